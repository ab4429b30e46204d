package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noa10/mataresit-app-sub001/store"
)

func TestEmbeddingAttemptLifecycle(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	start := time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC)
	created, err := ts.CreateEmbeddingAttempt(ctx, &store.EmbeddingAttempt{
		ID:                    "11111111-2222-3333-4444-555555555555",
		ReceiptID:             "receipt-1",
		UserID:                "user-1",
		TeamID:                "team-1",
		UploadContext:         store.UploadContextSingle,
		Model:                 "gemini-embedding-001",
		StartTime:             start,
		Status:                store.AttemptStatusPending,
		ContentTypesProcessed: []string{"merchant", "full_text"},
		TotalContentTypes:     2,
		ContentLength:         512,
	})
	require.NoError(t, err)
	require.NotZero(t, created.CreatedTs)

	successful := 2
	apiCalls := int64(3)
	tokens := int64(1800)
	completed, err := ts.CompleteEmbeddingAttempt(ctx, &store.CompleteEmbeddingAttempt{
		ID:                     created.ID,
		EndTime:                start.Add(1500 * time.Millisecond),
		Status:                 store.AttemptStatusSuccess,
		SuccessfulContentTypes: &successful,
		APICallsMade:           &apiCalls,
		APITokensUsed:          &tokens,
	})
	require.NoError(t, err)
	require.Equal(t, store.AttemptStatusSuccess, completed.Status)
	require.Equal(t, int64(1500), completed.DurationMs, "duration is computed from the stored start time")
	require.Equal(t, 2, completed.SuccessfulContentTypes)
	require.Equal(t, int64(3), completed.APICallsMade)
	require.Equal(t, []string{"merchant", "full_text"}, completed.ContentTypesProcessed)

	windowStart := start.Truncate(time.Hour)
	windowEnd := windowStart.Add(time.Hour)
	list, err := ts.ListEmbeddingAttempts(ctx, &store.FindEmbeddingAttempt{
		StartTimeGTE: &windowStart,
		StartTimeLT:  &windowEnd,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)
	require.Equal(t, start, list[0].StartTime)

	cutoff := start.Add(time.Hour)
	require.NoError(t, ts.DeleteEmbeddingAttempts(ctx, &store.DeleteEmbeddingAttempts{BeforeTime: &cutoff}))

	list, err = ts.ListEmbeddingAttempts(ctx, &store.FindEmbeddingAttempt{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestHourlyStatUpsertConvergence(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	bucket := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	first := &store.UpsertHourlyStat{
		HourBucket:    bucket,
		TeamID:        "team-1",
		TotalAttempts: 5,
		SuccessCount:  4,
		FailedCount:   1,
		ErrorsByType:  `{"network":1}`,
	}
	_, err := ts.UpsertHourlyStat(ctx, first)
	require.NoError(t, err)

	// A rerun with corrected values overwrites instead of accumulating.
	second := &store.UpsertHourlyStat{
		HourBucket:    bucket,
		TeamID:        "team-1",
		TotalAttempts: 6,
		SuccessCount:  6,
		ErrorsByType:  `{}`,
	}
	_, err = ts.UpsertHourlyStat(ctx, second)
	require.NoError(t, err)

	list, err := ts.ListHourlyStats(ctx, &store.FindHourlyStat{TeamID: &second.TeamID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(6), list[0].TotalAttempts)
	require.Equal(t, int64(6), list[0].SuccessCount)
	require.Equal(t, int64(0), list[0].FailedCount)
}

func TestUnifiedContentUpsertUniqueness(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	entry := &store.UnifiedContent{
		SourceType:  store.SourceTypeReceipt,
		SourceID:    "receipt-1",
		ContentType: "merchant",
		ContentText: "Starbucks",
		UserID:      "user-1",
		TeamID:      "team-1",
	}
	created, err := ts.UpsertUnifiedContent(ctx, entry)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	updated, err := ts.UpsertUnifiedContent(ctx, &store.UnifiedContent{
		SourceType:  store.SourceTypeReceipt,
		SourceID:    "receipt-1",
		ContentType: "merchant",
		ContentText: "Starbucks Reserve",
		UserID:      "user-1",
		TeamID:      "team-1",
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID, "same key must overwrite, not duplicate")

	sourceType := store.SourceTypeReceipt
	list, err := ts.ListUnifiedContent(ctx, &store.FindUnifiedContent{SourceType: &sourceType})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Starbucks Reserve", list[0].ContentText)

	require.NoError(t, ts.DeleteUnifiedContent(ctx, &store.DeleteUnifiedContent{
		SourceType: store.SourceTypeReceipt,
		SourceID:   "receipt-1",
	}))
	list, err = ts.ListUnifiedContent(ctx, &store.FindUnifiedContent{SourceType: &sourceType})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestQualityMetricClampedOnWrite(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	metric, err := ts.UpsertReceiptQualityMetric(ctx, &store.UpsertReceiptQualityMetric{
		ReceiptID:           "receipt-1",
		UserID:              "user-1",
		TeamID:              "team-1",
		OverallQualityScore: 135,
		ProcessingMethod:    store.ProcessingMethodEnhanced,
	})
	require.NoError(t, err)
	require.Equal(t, float64(100), metric.OverallQualityScore)

	userID := "user-1"
	list, err := ts.ListReceiptQualityMetrics(ctx, &store.FindReceiptQualityMetric{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, float64(100), list[0].OverallQualityScore)
}

func TestVectorSearchRequiresPostgres(t *testing.T) {
	if getDriverFromEnv() != "sqlite" {
		t.Skip("degradation only applies to the sqlite driver")
	}

	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.SearchUnifiedContent(ctx, &store.HybridSearchOptions{
		Vector: []float32{0.1, 0.2},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires PostgreSQL")
}
