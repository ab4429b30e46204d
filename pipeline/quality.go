package pipeline

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
	"github.com/noa10/mataresit-app-sub001/store/cache"
)

// QualityStore is the store dependency of the quality scorer.
type QualityStore interface {
	ListReceiptQualityMetrics(ctx context.Context, find *store.FindReceiptQualityMetric) ([]*store.ReceiptQualityMetric, error)
}

// QualitySummary is the per-user quality overview for dashboards.
type QualitySummary struct {
	ReceiptCount          int
	AvgQualityScore       float64
	SyntheticContentRate  float64
	EnhancedProcessingRate float64
	// RecentQualityTrendPct compares the most recent 7 days against the
	// remainder of the window: (recentAvg - olderAvg) / olderAvg * 100.
	// Zero when the older window is empty or averages zero.
	RecentQualityTrendPct float64
}

// QualityDay is one bucket of the daily improvement series.
type QualityDay struct {
	Date          time.Time
	Count         int
	AvgScore      float64
	SyntheticRate float64
	EnhancedRate  float64
}

// QualityScorer summarizes per-receipt quality metrics for dashboards
// and the re-processing queue.
type QualityScorer struct {
	store QualityStore
	cache *cache.Cache
}

// NewQualityScorer creates a quality scorer.
func NewQualityScorer(s QualityStore) *QualityScorer {
	return &QualityScorer{store: s}
}

// WithCache enables short-lived caching of summaries for dashboard use.
func (q *QualityScorer) WithCache(c *cache.Cache) *QualityScorer {
	q.cache = c
	return q
}

// Summarize averages the user's quality metrics over the window and
// computes the recent-vs-older trend.
func (q *QualityScorer) Summarize(ctx context.Context, userID string, daysBack int) (*QualitySummary, error) {
	var key string
	if q.cache != nil {
		key = cache.BuildKey("quality_summary", userID, strconv.Itoa(daysBack))
		if cached, ok := q.cache.Get(ctx, key); ok {
			if summary, ok := cached.(*QualitySummary); ok {
				return summary, nil
			}
		}
	}

	metrics, err := q.listWindow(ctx, userID, daysBack)
	if err != nil {
		return nil, err
	}

	summary := &QualitySummary{ReceiptCount: len(metrics)}
	if len(metrics) == 0 {
		if q.cache != nil {
			q.cache.Set(ctx, key, summary)
		}
		return summary, nil
	}

	var scoreSum float64
	var synthetic, enhanced int
	for _, m := range metrics {
		scoreSum += m.OverallQualityScore
		if m.SyntheticContentUsed {
			synthetic++
		}
		if m.ProcessingMethod == store.ProcessingMethodEnhanced {
			enhanced++
		}
	}
	summary.AvgQualityScore = scoreSum / float64(len(metrics))
	summary.SyntheticContentRate = float64(synthetic) / float64(len(metrics)) * 100
	summary.EnhancedProcessingRate = float64(enhanced) / float64(len(metrics)) * 100
	summary.RecentQualityTrendPct = qualityTrend(metrics, time.Now().UTC())

	if q.cache != nil {
		q.cache.Set(ctx, key, summary)
	}
	return summary, nil
}

// FindLowQuality returns receipts below the score cutoff, ascending by
// score then descending by recency. Intended to drive a re-processing
// queue.
func (q *QualityScorer) FindLowQuality(ctx context.Context, userID string, minScore float64, limit int) ([]*store.ReceiptQualityMetric, error) {
	if limit <= 0 {
		limit = 10
	}
	metrics, err := q.store.ListReceiptQualityMetrics(ctx, &store.FindReceiptQualityMetric{
		UserID:          &userID,
		MaxScore:        &minScore,
		OrderByScoreAsc: true,
		Limit:           limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to find low quality receipts")
	}
	return metrics, nil
}

// TrackImprovements returns the date-bucketed quality series for trend
// dashboards, oldest day first.
func (q *QualityScorer) TrackImprovements(ctx context.Context, userID string, daysBack int) ([]*QualityDay, error) {
	metrics, err := q.listWindow(ctx, userID, daysBack)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count     int
		scoreSum  float64
		synthetic int
		enhanced  int
	}
	byDay := make(map[time.Time]*acc)
	for _, m := range metrics {
		day := time.Unix(m.UpdatedTs, 0).UTC().Truncate(24 * time.Hour)
		a, ok := byDay[day]
		if !ok {
			a = &acc{}
			byDay[day] = a
		}
		a.count++
		a.scoreSum += m.OverallQualityScore
		if m.SyntheticContentUsed {
			a.synthetic++
		}
		if m.ProcessingMethod == store.ProcessingMethodEnhanced {
			a.enhanced++
		}
	}

	series := make([]*QualityDay, 0, len(byDay))
	for day, a := range byDay {
		series = append(series, &QualityDay{
			Date:          day,
			Count:         a.count,
			AvgScore:      a.scoreSum / float64(a.count),
			SyntheticRate: float64(a.synthetic) / float64(a.count) * 100,
			EnhancedRate:  float64(a.enhanced) / float64(a.count) * 100,
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

func (q *QualityScorer) listWindow(ctx context.Context, userID string, daysBack int) ([]*store.ReceiptQualityMetric, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	windowStart := time.Now().UTC().AddDate(0, 0, -daysBack)
	metrics, err := q.store.ListReceiptQualityMetrics(ctx, &store.FindReceiptQualityMetric{
		UserID:       &userID,
		UpdatedAfter: &windowStart,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list quality metrics")
	}
	return metrics, nil
}

// qualityTrend splits the window at now-7d and compares averages.
func qualityTrend(metrics []*store.ReceiptQualityMetric, now time.Time) float64 {
	split := now.AddDate(0, 0, -7).Unix()

	var recentSum, olderSum float64
	var recentCount, olderCount int
	for _, m := range metrics {
		if m.UpdatedTs >= split {
			recentSum += m.OverallQualityScore
			recentCount++
		} else {
			olderSum += m.OverallQualityScore
			olderCount++
		}
	}
	if olderCount == 0 || olderSum == 0 {
		return 0
	}
	olderAvg := olderSum / float64(olderCount)
	if recentCount == 0 {
		return 0
	}
	recentAvg := recentSum / float64(recentCount)
	return (recentAvg - olderAvg) / olderAvg * 100
}
