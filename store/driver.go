package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// EmbeddingAttempt model related methods.
	CreateEmbeddingAttempt(ctx context.Context, create *EmbeddingAttempt) (*EmbeddingAttempt, error)
	CompleteEmbeddingAttempt(ctx context.Context, complete *CompleteEmbeddingAttempt) (*EmbeddingAttempt, error)
	ListEmbeddingAttempts(ctx context.Context, find *FindEmbeddingAttempt) ([]*EmbeddingAttempt, error)
	DeleteEmbeddingAttempts(ctx context.Context, delete *DeleteEmbeddingAttempts) error

	// HourlyStat / DailyStat rollup related methods.
	UpsertHourlyStat(ctx context.Context, upsert *UpsertHourlyStat) (*HourlyStat, error)
	ListHourlyStats(ctx context.Context, find *FindHourlyStat) ([]*HourlyStat, error)
	DeleteHourlyStats(ctx context.Context, delete *DeleteHourlyStats) error
	UpsertDailyStat(ctx context.Context, upsert *UpsertDailyStat) (*DailyStat, error)
	ListDailyStats(ctx context.Context, find *FindDailyStat) ([]*DailyStat, error)
	DeleteDailyStats(ctx context.Context, delete *DeleteDailyStats) error

	// ReceiptQualityMetric model related methods.
	UpsertReceiptQualityMetric(ctx context.Context, upsert *UpsertReceiptQualityMetric) (*ReceiptQualityMetric, error)
	ListReceiptQualityMetrics(ctx context.Context, find *FindReceiptQualityMetric) ([]*ReceiptQualityMetric, error)

	// UnifiedContent model related methods.
	UpsertUnifiedContent(ctx context.Context, upsert *UnifiedContent) (*UnifiedContent, error)
	ListUnifiedContent(ctx context.Context, find *FindUnifiedContent) ([]*UnifiedContent, error)
	DeleteUnifiedContent(ctx context.Context, delete *DeleteUnifiedContent) error

	// SearchUnifiedContent generates filtered search candidates with the
	// semantic score computed for entries that have an embedding.
	SearchUnifiedContent(ctx context.Context, opts *HybridSearchOptions) ([]*ContentCandidate, error)

	// ContentHealthStats computes per (source type, content type) content
	// completeness percentages.
	ContentHealthStats(ctx context.Context) ([]*ContentHealthStat, error)

	// Receipt read model related methods.
	ListReceipts(ctx context.Context, find *FindReceipt) ([]*Receipt, error)
	ListReceiptsMissingContent(ctx context.Context, contentType string, limit int) ([]*Receipt, error)
}
