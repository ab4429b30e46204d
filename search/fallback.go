package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/noa10/mataresit-app-sub001/store"
)

// Tiered fallback scores. Unlike the hybrid engine these are not fused:
// a receipt gets the single highest tier it matches.
const (
	fallbackScoreMerchant = 0.9
	fallbackScoreCategory = 0.7
	fallbackScoreFullText = 0.5
	fallbackScoreNoMatch  = 0.1
)

// FallbackRequest is one degraded-mode text search invocation.
type FallbackRequest struct {
	Query  string
	Limit  int
	Offset int

	DateFrom  *time.Time
	DateTo    *time.Time
	AmountMin *float64
	AmountMax *float64
	Merchants []string

	UserID *string
	TeamID *string
}

// FallbackResult is one scored receipt.
type FallbackResult struct {
	Receipt *store.Receipt
	Score   float64
}

// FallbackResponse carries one page of results plus the total match count.
type FallbackResponse struct {
	Results    []*FallbackResult
	TotalCount int
}

// ReceiptLister is the store dependency of the fallback search.
type ReceiptLister interface {
	ListReceipts(ctx context.Context, find *store.FindReceipt) ([]*store.Receipt, error)
}

// Fallback is the degraded-mode substring search over the receipt
// record store. It has no embedding dependency and cannot fail due to
// vector-index unavailability.
type Fallback struct {
	store ReceiptLister
}

// NewFallback creates a fallback text searcher.
func NewFallback(s ReceiptLister) *Fallback {
	return &Fallback{store: s}
}

// Search runs the tiered text search. A blank query matches everything
// at the no-match score, so the response degenerates to a recency
// listing of the filtered receipts.
func (f *Fallback) Search(ctx context.Context, req *FallbackRequest) (*FallbackResponse, error) {
	receipts, err := f.store.ListReceipts(ctx, &store.FindReceipt{
		UserID:    req.UserID,
		TeamID:    req.TeamID,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		AmountMin: req.AmountMin,
		AmountMax: req.AmountMax,
		Merchants: req.Merchants,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*FallbackResult, 0, len(receipts))
	for _, r := range receipts {
		results = append(results, &FallbackResult{
			Receipt: r,
			Score:   fallbackScore(r, req.Query),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Receipt.Date.After(results[j].Receipt.Date)
	})

	total := len(results)
	offset := req.Offset
	if offset > total {
		offset = total
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &FallbackResponse{
		Results:    results[offset:end],
		TotalCount: total,
	}, nil
}

// fallbackScore assigns the tier for one receipt. Merchant is the
// primary identifying field, category the secondary categorical field,
// full text the free-text catch-all.
func fallbackScore(r *store.Receipt, query string) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return fallbackScoreNoMatch
	}
	if strings.Contains(strings.ToLower(r.Merchant), query) {
		return fallbackScoreMerchant
	}
	if strings.Contains(strings.ToLower(r.Category), query) {
		return fallbackScoreCategory
	}
	if strings.Contains(strings.ToLower(r.FullText), query) {
		return fallbackScoreFullText
	}
	return fallbackScoreNoMatch
}
