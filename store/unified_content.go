package store

import "context"

// SourceType identifies the kind of record a unified content entry
// was indexed from.
type SourceType string

const (
	SourceTypeReceipt        SourceType = "receipt"
	SourceTypeLineItem       SourceType = "line_item"
	SourceTypeClaim          SourceType = "claim"
	SourceTypeTeamMember     SourceType = "team_member"
	SourceTypeCustomCategory SourceType = "custom_category"
)

// UnifiedContent is one entry of the unified content index, uniquely
// identified by (SourceType, SourceID, ContentType). Re-embedding
// overwrites text, vector and metadata rather than duplicating.
type UnifiedContent struct {
	ID          int64
	SourceType  SourceType
	SourceID    string
	ContentType string

	ContentText string
	Embedding   []float32 // nil when no vector has been generated
	Metadata    string    // JSON
	UserID      string
	TeamID      string
	Language    string

	CreatedTs int64
	UpdatedTs int64
}

// FindUnifiedContent is the find condition for unified content entries.
type FindUnifiedContent struct {
	SourceType  *SourceType
	SourceID    *string
	ContentType *string
	// EmptyTextOnly keeps only entries with null or empty content text.
	EmptyTextOnly bool
	Limit         int
}

// DeleteUnifiedContent deletes all entries for a source record
// (cascade on source deletion).
type DeleteUnifiedContent struct {
	SourceType SourceType
	SourceID   string
}

// HybridSearchOptions is the driver-level candidate generation request.
// The driver applies the filters and computes the semantic score for
// entries that have an embedding; text signals are computed by the
// search engine.
type HybridSearchOptions struct {
	Vector []float32

	SourceTypes  []SourceType
	ContentTypes []string
	UserID       *string
	TeamID       *string
	Language     *string

	// Monetary filters apply to receipt-sourced entries via a join to
	// the receipt record store.
	AmountMin *float64
	AmountMax *float64
	Currency  *string

	// SourceIDs restricts candidates to an explicit allowlist, used
	// for date-window-scoped searches.
	SourceIDs []string

	Limit int
}

// ContentCandidate is a unified content entry with its semantic score.
// Semantic is 0 when the entry has no embedding or no query vector
// was supplied.
type ContentCandidate struct {
	UnifiedContent
	Semantic float64
}

// ContentHealthStat is the per (source type, content type) content
// completeness bucket.
type ContentHealthStat struct {
	SourceType  SourceType
	ContentType string
	Total       int64
	NonEmpty    int64
	NonEmptyPct float64
}

// UpsertUnifiedContent inserts or overwrites a unified content entry.
func (s *Store) UpsertUnifiedContent(ctx context.Context, upsert *UnifiedContent) (*UnifiedContent, error) {
	return s.driver.UpsertUnifiedContent(ctx, upsert)
}

// ListUnifiedContent lists unified content entries.
func (s *Store) ListUnifiedContent(ctx context.Context, find *FindUnifiedContent) ([]*UnifiedContent, error) {
	return s.driver.ListUnifiedContent(ctx, find)
}

// DeleteUnifiedContent deletes all entries for a source record.
func (s *Store) DeleteUnifiedContent(ctx context.Context, delete *DeleteUnifiedContent) error {
	return s.driver.DeleteUnifiedContent(ctx, delete)
}

// SearchUnifiedContent generates filtered candidates with semantic scores.
func (s *Store) SearchUnifiedContent(ctx context.Context, opts *HybridSearchOptions) ([]*ContentCandidate, error) {
	return s.driver.SearchUnifiedContent(ctx, opts)
}

// ContentHealthStats computes per-bucket content completeness.
func (s *Store) ContentHealthStats(ctx context.Context) ([]*ContentHealthStat, error) {
	return s.driver.ContentHealthStats(ctx)
}
