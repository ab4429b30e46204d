package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noa10/mataresit-app-sub001/store"
	"github.com/noa10/mataresit-app-sub001/store/cache"
)

type fakeQualityStore struct {
	metrics  []*store.ReceiptQualityMetric
	lastFind *store.FindReceiptQualityMetric
	calls    int
}

func (f *fakeQualityStore) ListReceiptQualityMetrics(_ context.Context, find *store.FindReceiptQualityMetric) ([]*store.ReceiptQualityMetric, error) {
	f.lastFind = find
	f.calls++
	return f.metrics, nil
}

func qualityMetric(score float64, updated time.Time, synthetic bool, method store.ProcessingMethod) *store.ReceiptQualityMetric {
	return &store.ReceiptQualityMetric{
		ReceiptID:            "receipt-1",
		UserID:               "user-1",
		OverallQualityScore:  score,
		SyntheticContentUsed: synthetic,
		ProcessingMethod:     method,
		UpdatedTs:            updated.Unix(),
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now().UTC()
	s := &fakeQualityStore{metrics: []*store.ReceiptQualityMetric{
		qualityMetric(80, now.AddDate(0, 0, -1), false, store.ProcessingMethodEnhanced),
		qualityMetric(60, now.AddDate(0, 0, -2), true, store.ProcessingMethodEnhanced),
		qualityMetric(40, now.AddDate(0, 0, -20), false, store.ProcessingMethodFallback),
		qualityMetric(60, now.AddDate(0, 0, -25), true, store.ProcessingMethodLegacy),
	}}

	summary, err := NewQualityScorer(s).Summarize(context.Background(), "user-1", 30)
	require.NoError(t, err)
	require.Equal(t, 4, summary.ReceiptCount)
	require.InDelta(t, 60.0, summary.AvgQualityScore, 0.001)
	require.InDelta(t, 50.0, summary.SyntheticContentRate, 0.001)
	require.InDelta(t, 50.0, summary.EnhancedProcessingRate, 0.001)
	// Recent 7 days average 70, older window average 50.
	require.InDelta(t, 40.0, summary.RecentQualityTrendPct, 0.001)
}

func TestSummarizeEmpty(t *testing.T) {
	summary, err := NewQualityScorer(&fakeQualityStore{}).Summarize(context.Background(), "user-1", 30)
	require.NoError(t, err)
	require.Equal(t, 0, summary.ReceiptCount)
	require.Zero(t, summary.AvgQualityScore)
	require.Zero(t, summary.RecentQualityTrendPct)
}

func TestSummarizeCached(t *testing.T) {
	now := time.Now().UTC()
	s := &fakeQualityStore{metrics: []*store.ReceiptQualityMetric{
		qualityMetric(80, now.AddDate(0, 0, -1), false, store.ProcessingMethodEnhanced),
	}}
	c := cache.New(cache.DefaultConfig())
	defer c.Close()
	scorer := NewQualityScorer(s).WithCache(c)

	first, err := scorer.Summarize(context.Background(), "user-1", 30)
	require.NoError(t, err)
	second, err := scorer.Summarize(context.Background(), "user-1", 30)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, s.calls)

	// A different window is a different cache entry.
	_, err = scorer.Summarize(context.Background(), "user-1", 7)
	require.NoError(t, err)
	require.Equal(t, 2, s.calls)
}

func TestQualityTrendZeroOlderWindow(t *testing.T) {
	now := time.Now().UTC()
	metrics := []*store.ReceiptQualityMetric{
		qualityMetric(80, now.AddDate(0, 0, -1), false, store.ProcessingMethodEnhanced),
	}
	require.Zero(t, qualityTrend(metrics, now))
}

func TestFindLowQuality(t *testing.T) {
	s := &fakeQualityStore{metrics: []*store.ReceiptQualityMetric{
		qualityMetric(20, time.Now(), false, store.ProcessingMethodFallback),
	}}

	metrics, err := NewQualityScorer(s).FindLowQuality(context.Background(), "user-1", 50, 5)
	require.NoError(t, err)
	require.Len(t, metrics, 1)

	require.NotNil(t, s.lastFind.UserID)
	require.Equal(t, "user-1", *s.lastFind.UserID)
	require.NotNil(t, s.lastFind.MaxScore)
	require.Equal(t, 50.0, *s.lastFind.MaxScore)
	require.True(t, s.lastFind.OrderByScoreAsc)
	require.Equal(t, 5, s.lastFind.Limit)
}

func TestTrackImprovements(t *testing.T) {
	day1 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	s := &fakeQualityStore{metrics: []*store.ReceiptQualityMetric{
		qualityMetric(40, day1, true, store.ProcessingMethodFallback),
		qualityMetric(60, day1.Add(2*time.Hour), false, store.ProcessingMethodEnhanced),
		qualityMetric(90, day2, false, store.ProcessingMethodEnhanced),
	}}

	series, err := NewQualityScorer(s).TrackImprovements(context.Background(), "user-1", 30)
	require.NoError(t, err)
	require.Len(t, series, 2)

	require.Equal(t, day1.Truncate(24*time.Hour), series[0].Date)
	require.Equal(t, 2, series[0].Count)
	require.InDelta(t, 50.0, series[0].AvgScore, 0.001)
	require.InDelta(t, 50.0, series[0].SyntheticRate, 0.001)
	require.InDelta(t, 50.0, series[0].EnhancedRate, 0.001)

	require.Equal(t, day2.Truncate(24*time.Hour), series[1].Date)
	require.Equal(t, 1, series[1].Count)
	require.InDelta(t, 90.0, series[1].AvgScore, 0.001)
	require.InDelta(t, 100.0, series[1].EnhancedRate, 0.001)
}
