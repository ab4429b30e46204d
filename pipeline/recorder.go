// Package pipeline tracks the health of the embedding-generation
// pipeline: per-attempt recording, time-bucketed aggregation and
// per-receipt quality scoring.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

// AttemptStore is the store dependency of the recorder.
type AttemptStore interface {
	CreateEmbeddingAttempt(ctx context.Context, create *store.EmbeddingAttempt) (*store.EmbeddingAttempt, error)
	CompleteEmbeddingAttempt(ctx context.Context, complete *store.CompleteEmbeddingAttempt) (*store.EmbeddingAttempt, error)
}

// RecordAttempt describes the start of one embedding-generation attempt.
type RecordAttempt struct {
	ReceiptID string
	UserID    string
	TeamID    string

	UploadContext         store.UploadContext
	Model                 string
	StartTime             time.Time
	RetryCount            int
	ContentTypesProcessed []string
	ContentLength         int
}

// Recorder appends one record per embedding-generation attempt. It is
// the leaf of the observability layer; aggregation is pull-based and
// never triggered from here.
type Recorder struct {
	store AttemptStore
}

// NewRecorder creates an attempt recorder.
func NewRecorder(s AttemptStore) *Recorder {
	return &Recorder{store: s}
}

// RecordAttempt creates a pending attempt and returns its id. The only
// validation is non-empty identity fields.
func (r *Recorder) RecordAttempt(ctx context.Context, record *RecordAttempt) (string, error) {
	if record.ReceiptID == "" || record.UserID == "" || record.TeamID == "" {
		return "", errors.New("receipt, user and team ids are required")
	}

	startTime := record.StartTime
	if startTime.IsZero() {
		startTime = time.Now().UTC()
	}

	attempt := &store.EmbeddingAttempt{
		ID:                    uuid.New().String(),
		ReceiptID:             record.ReceiptID,
		UserID:                record.UserID,
		TeamID:                record.TeamID,
		UploadContext:         record.UploadContext,
		Model:                 record.Model,
		StartTime:             startTime,
		Status:                store.AttemptStatusPending,
		RetryCount:            record.RetryCount,
		ContentTypesProcessed: record.ContentTypesProcessed,
		TotalContentTypes:     len(record.ContentTypesProcessed),
		ContentLength:         record.ContentLength,
	}
	created, err := r.store.CreateEmbeddingAttempt(ctx, attempt)
	if err != nil {
		return "", errors.Wrap(err, "failed to record embedding attempt")
	}

	slog.Debug("embedding attempt recorded",
		"attempt_id", created.ID,
		"receipt_id", created.ReceiptID,
		"upload_context", string(created.UploadContext),
	)
	return created.ID, nil
}

// CompleteAttempt applies the completion update to an attempt. The
// duration is computed from the stored start time. Two completions for
// the same attempt race under last-write-wins semantics; the store
// performs no optimistic concurrency check.
func (r *Recorder) CompleteAttempt(ctx context.Context, complete *store.CompleteEmbeddingAttempt) error {
	if complete.ID == "" {
		return errors.New("attempt id is required")
	}
	if complete.EndTime.IsZero() {
		complete.EndTime = time.Now().UTC()
	}

	attempt, err := r.store.CompleteEmbeddingAttempt(ctx, complete)
	if err != nil {
		return errors.Wrap(err, "failed to complete embedding attempt")
	}

	slog.Debug("embedding attempt completed",
		"attempt_id", attempt.ID,
		"status", string(attempt.Status),
		"duration_ms", attempt.DurationMs,
	)
	return nil
}
