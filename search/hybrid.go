// Package search implements hybrid rank-fusion retrieval over the
// unified content index, plus a degraded-mode text search over the
// receipt record store.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/noa10/mataresit-app-sub001/store"
)

// weightSumTolerance is the absolute tolerance for the weight-sum precondition.
const weightSumTolerance = 0.01

// defaultCandidateLimit bounds driver-level candidate generation when
// the caller does not size it explicitly.
const defaultCandidateLimit = 200

// Weights is the rank-fusion weight triple. The three weights must sum
// to 1.0 within an absolute tolerance of 0.01.
type Weights struct {
	Semantic float64
	Keyword  float64
	Trigram  float64
}

// Validate checks the weight-sum precondition.
func (w Weights) Validate() error {
	sum := w.Semantic + w.Keyword + w.Trigram
	if math.Abs(sum-1.0) > weightSumTolerance {
		return &ValidationError{
			Field:  "weights",
			Reason: fmt.Sprintf("semantic+keyword+trigram must sum to 1.0 (±%.2f), got %.4f", weightSumTolerance, sum),
		}
	}
	return nil
}

// DefaultWeights favors the semantic signal, matching the production
// search configuration.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.6, Keyword: 0.25, Trigram: 0.15}
}

// Thresholds are the admission bars for the semantic and trigram signals.
type Thresholds struct {
	Similarity float64
	Trigram    float64
}

// DefaultThresholds returns the default admission thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Similarity: 0.2, Trigram: 0.3}
}

// ValidationError is a structured request validation failure. Search
// requests fail fast on it with no partial results.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Filters restricts candidate generation.
type Filters struct {
	SourceTypes  []store.SourceType
	ContentTypes []string
	UserID       *string
	TeamID       *string
	Language     *string

	AmountMin *float64
	AmountMax *float64
	Currency  *string

	// SourceIDs is an explicit allowlist used for date-window-scoped
	// searches resolved by the caller.
	SourceIDs []string
}

// Request is one hybrid search invocation. Ephemeral, never persisted.
type Request struct {
	Vector []float32
	Query  string

	Filters    Filters
	Weights    Weights
	Thresholds Thresholds
	Limit      int
}

// Result is one ranked match.
type Result struct {
	SourceType  store.SourceType
	SourceID    string
	ContentType string
	ContentText string
	Metadata    string

	Semantic float64
	Keyword  float64
	Trigram  float64
	Combined float64
}

// ContentSearcher is the store dependency of the hybrid engine.
type ContentSearcher interface {
	SearchUnifiedContent(ctx context.Context, opts *store.HybridSearchOptions) ([]*store.ContentCandidate, error)
}

// Engine fuses the semantic, trigram and keyword signals into one
// ranking. Queries are pure reads and fully parallelizable.
type Engine struct {
	store ContentSearcher
}

// NewEngine creates a hybrid search engine.
func NewEngine(s ContentSearcher) *Engine {
	return &Engine{store: s}
}

// Search executes a hybrid query. A weight misconfiguration is a hard
// validation error; a candidate missing one signal degrades gracefully
// to a zero for that signal.
func (e *Engine) Search(ctx context.Context, req *Request) ([]*Result, error) {
	if err := req.Weights.Validate(); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	candidateLimit := defaultCandidateLimit
	if limit > candidateLimit {
		candidateLimit = limit
	}
	candidates, err := e.store.SearchUnifiedContent(ctx, &store.HybridSearchOptions{
		Vector:       req.Vector,
		SourceTypes:  req.Filters.SourceTypes,
		ContentTypes: req.Filters.ContentTypes,
		UserID:       req.Filters.UserID,
		TeamID:       req.Filters.TeamID,
		Language:     req.Filters.Language,
		AmountMin:    req.Filters.AmountMin,
		AmountMax:    req.Filters.AmountMax,
		Currency:     req.Filters.Currency,
		SourceIDs:    req.Filters.SourceIDs,
		Limit:        candidateLimit,
	})
	if err != nil {
		return nil, err
	}

	results := rankCandidates(candidates, req)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// rankCandidates scores, admits and orders candidates. Split out from
// Search so the fusion semantics are testable without a store.
func rankCandidates(candidates []*store.ContentCandidate, req *Request) []*Result {
	results := make([]*Result, 0, len(candidates))
	for _, c := range candidates {
		s := signals{
			Semantic: clampSemantic(c.Semantic),
			Trigram:  trigramSimilarity(c.ContentText, req.Query),
			Keyword:  keywordScore(c.ContentText, req.Query),
		}

		// At least one signal must clear its minimal bar. Signals below
		// their bar still contribute to the combined score once the
		// candidate is admitted.
		if s.Semantic <= req.Thresholds.Similarity &&
			s.Trigram <= req.Thresholds.Trigram &&
			s.Keyword <= 0.01 {
			continue
		}

		results = append(results, &Result{
			SourceType:  c.SourceType,
			SourceID:    c.SourceID,
			ContentType: c.ContentType,
			ContentText: c.ContentText,
			Metadata:    c.Metadata,
			Semantic:    s.Semantic,
			Keyword:     s.Keyword,
			Trigram:     s.Trigram,
			Combined:    combinedScore(s, req.Weights),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Combined != results[j].Combined {
			return results[i].Combined > results[j].Combined
		}
		if results[i].Semantic != results[j].Semantic {
			return results[i].Semantic > results[j].Semantic
		}
		return results[i].Trigram > results[j].Trigram
	})
	return results
}

// DateWindow resolves a [from, to) day window into the receipt id
// allowlist used for temporal scoping, via the receipt record store.
func DateWindow(ctx context.Context, lister ReceiptLister, userID string, from, to time.Time) ([]string, error) {
	receipts, err := lister.ListReceipts(ctx, &store.FindReceipt{
		UserID:   &userID,
		DateFrom: &from,
		DateTo:   &to,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(receipts))
	for _, r := range receipts {
		ids = append(ids, r.ID)
	}
	return ids, nil
}
