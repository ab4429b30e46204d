package store

import (
	"context"
	"time"
)

// ProcessingMethod identifies how a receipt's content was embedded.
type ProcessingMethod string

const (
	ProcessingMethodEnhanced ProcessingMethod = "enhanced"
	ProcessingMethodFallback ProcessingMethod = "fallback"
	ProcessingMethodLegacy   ProcessingMethod = "legacy"
)

// ReceiptQualityMetric is the per-receipt embedding quality record.
// OverallQualityScore is clamped to [0,100] at write time.
type ReceiptQualityMetric struct {
	ID        int64
	ReceiptID string
	UserID    string
	TeamID    string

	TotalContentTypes    int
	SuccessfulEmbeddings int
	FailedEmbeddings     int
	SyntheticContentUsed bool

	OverallQualityScore  float64
	ProcessingMethod     ProcessingMethod
	ContentQualityScores string // JSON: {"content_type": score}

	UpdatedTs int64
}

// UpsertReceiptQualityMetric specifies the data for upserting a quality metric.
// Keyed by receipt; re-generation overwrites the previous metric.
type UpsertReceiptQualityMetric struct {
	ReceiptID string
	UserID    string
	TeamID    string

	TotalContentTypes    int
	SuccessfulEmbeddings int
	FailedEmbeddings     int
	SyntheticContentUsed bool

	OverallQualityScore  float64
	ProcessingMethod     ProcessingMethod
	ContentQualityScores string

	UpdatedTs int64
}

// FindReceiptQualityMetric specifies the conditions for finding quality metrics.
type FindReceiptQualityMetric struct {
	UserID       *string
	UpdatedAfter *time.Time
	// MaxScore keeps only metrics with OverallQualityScore strictly below it.
	MaxScore *float64
	// OrderByScoreAsc orders by score ascending, then recency descending.
	// The default ordering is recency descending.
	OrderByScoreAsc bool
	Limit           int
}

// clampQualityScore bounds a quality score to [0,100].
func clampQualityScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// UpsertReceiptQualityMetric upserts a quality metric, clamping the
// overall score to its valid range before the write.
func (s *Store) UpsertReceiptQualityMetric(ctx context.Context, upsert *UpsertReceiptQualityMetric) (*ReceiptQualityMetric, error) {
	upsert.OverallQualityScore = clampQualityScore(upsert.OverallQualityScore)
	if upsert.UpdatedTs == 0 {
		upsert.UpdatedTs = time.Now().Unix()
	}
	return s.driver.UpsertReceiptQualityMetric(ctx, upsert)
}

// ListReceiptQualityMetrics lists quality metrics.
func (s *Store) ListReceiptQualityMetrics(ctx context.Context, find *FindReceiptQualityMetric) ([]*ReceiptQualityMetric, error) {
	return s.driver.ListReceiptQualityMetrics(ctx, find)
}
