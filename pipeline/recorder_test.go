package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noa10/mataresit-app-sub001/store"
)

type fakeAttemptStore struct {
	created   []*store.EmbeddingAttempt
	completed []*store.CompleteEmbeddingAttempt
}

func (f *fakeAttemptStore) CreateEmbeddingAttempt(_ context.Context, create *store.EmbeddingAttempt) (*store.EmbeddingAttempt, error) {
	f.created = append(f.created, create)
	return create, nil
}

func (f *fakeAttemptStore) CompleteEmbeddingAttempt(_ context.Context, complete *store.CompleteEmbeddingAttempt) (*store.EmbeddingAttempt, error) {
	f.completed = append(f.completed, complete)
	return &store.EmbeddingAttempt{
		ID:         complete.ID,
		Status:     complete.Status,
		DurationMs: 1200,
	}, nil
}

func TestRecordAttempt(t *testing.T) {
	s := &fakeAttemptStore{}
	recorder := NewRecorder(s)

	id, err := recorder.RecordAttempt(context.Background(), &RecordAttempt{
		ReceiptID:             "receipt-1",
		UserID:                "user-1",
		TeamID:                "team-1",
		UploadContext:         store.UploadContextBatch,
		Model:                 "gemini-embedding-001",
		ContentTypesProcessed: []string{"merchant", "full_text"},
		ContentLength:         512,
	})
	require.NoError(t, err)
	require.NoError(t, uuid.Validate(id))

	require.Len(t, s.created, 1)
	created := s.created[0]
	require.Equal(t, id, created.ID)
	require.Equal(t, store.AttemptStatusPending, created.Status)
	require.Equal(t, 2, created.TotalContentTypes)
	require.False(t, created.StartTime.IsZero())
	require.True(t, created.EndTime.IsZero())
}

func TestRecordAttemptRequiresIdentity(t *testing.T) {
	recorder := NewRecorder(&fakeAttemptStore{})

	tests := []struct {
		name   string
		record *RecordAttempt
	}{
		{"MissingReceipt", &RecordAttempt{UserID: "u", TeamID: "t"}},
		{"MissingUser", &RecordAttempt{ReceiptID: "r", TeamID: "t"}},
		{"MissingTeam", &RecordAttempt{ReceiptID: "r", UserID: "u"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := recorder.RecordAttempt(context.Background(), tt.record)
			require.Error(t, err)
		})
	}
}

func TestRecordAttemptUniqueIDs(t *testing.T) {
	s := &fakeAttemptStore{}
	recorder := NewRecorder(s)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := recorder.RecordAttempt(context.Background(), &RecordAttempt{
			ReceiptID: "receipt-1",
			UserID:    "user-1",
			TeamID:    "team-1",
		})
		require.NoError(t, err)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestCompleteAttempt(t *testing.T) {
	s := &fakeAttemptStore{}
	recorder := NewRecorder(s)

	errType := store.AttemptErrorNetwork
	errMsg := "connection reset"
	err := recorder.CompleteAttempt(context.Background(), &store.CompleteEmbeddingAttempt{
		ID:           "attempt-1",
		Status:       store.AttemptStatusFailed,
		ErrorType:    &errType,
		ErrorMessage: &errMsg,
	})
	require.NoError(t, err)

	require.Len(t, s.completed, 1)
	complete := s.completed[0]
	require.Equal(t, "attempt-1", complete.ID)
	require.False(t, complete.EndTime.IsZero(), "end time should default to now")
	require.Equal(t, store.AttemptStatusFailed, complete.Status)
}

func TestCompleteAttemptRequiresID(t *testing.T) {
	recorder := NewRecorder(&fakeAttemptStore{})
	err := recorder.CompleteAttempt(context.Background(), &store.CompleteEmbeddingAttempt{
		EndTime: time.Now(),
		Status:  store.AttemptStatusSuccess,
	})
	require.Error(t, err)
}
