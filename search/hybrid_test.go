package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noa10/mataresit-app-sub001/store"
)

type fakeContentSearcher struct {
	candidates []*store.ContentCandidate
	lastOpts   *store.HybridSearchOptions
}

func (f *fakeContentSearcher) SearchUnifiedContent(_ context.Context, opts *store.HybridSearchOptions) ([]*store.ContentCandidate, error) {
	f.lastOpts = opts
	return f.candidates, nil
}

func candidate(sourceID, text string, semantic float64) *store.ContentCandidate {
	return &store.ContentCandidate{
		UnifiedContent: store.UnifiedContent{
			SourceType:  store.SourceTypeReceipt,
			SourceID:    sourceID,
			ContentType: "merchant",
			ContentText: text,
		},
		Semantic: semantic,
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"Default", Weights{Semantic: 0.6, Keyword: 0.25, Trigram: 0.15}, false},
		{"WithinTolerance", Weights{Semantic: 0.6, Keyword: 0.25, Trigram: 0.155}, false},
		{"SumTooHigh", Weights{Semantic: 0.5, Keyword: 0.3, Trigram: 0.3}, true},
		{"SumTooLow", Weights{Semantic: 0.4, Keyword: 0.2, Trigram: 0.2}, true},
		{"AllZero", Weights{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				require.Error(t, err)
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				require.Equal(t, "weights", vErr.Field)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSearchRejectsBadWeights(t *testing.T) {
	engine := NewEngine(&fakeContentSearcher{})
	_, err := engine.Search(context.Background(), &Request{
		Query:      "coffee",
		Weights:    Weights{Semantic: 0.5, Keyword: 0.3, Trigram: 0.3},
		Thresholds: DefaultThresholds(),
	})
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestSearchAdmission(t *testing.T) {
	// Semantic 0.25 clears the 0.2 similarity threshold even with no
	// text overlap; semantic 0.1 with no text overlap is dropped.
	searcher := &fakeContentSearcher{candidates: []*store.ContentCandidate{
		candidate("r1", "zzzzzz", 0.25),
		candidate("r2", "zzzzzz", 0.10),
	}}
	engine := NewEngine(searcher)

	results, err := engine.Search(context.Background(), &Request{
		Query:      "coffee",
		Weights:    DefaultWeights(),
		Thresholds: DefaultThresholds(),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "r1", results[0].SourceID)
}

func TestSearchKeywordOnlyAdmission(t *testing.T) {
	// No vector at all: a keyword hit alone admits the candidate.
	searcher := &fakeContentSearcher{candidates: []*store.ContentCandidate{
		candidate("r1", "Starbucks Coffee", 0),
		candidate("r2", "unrelated text", 0),
	}}
	engine := NewEngine(searcher)

	results, err := engine.Search(context.Background(), &Request{
		Query:      "starbucks",
		Weights:    DefaultWeights(),
		Thresholds: DefaultThresholds(),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "r1", results[0].SourceID)
	require.Equal(t, 1.0, results[0].Keyword)
}

func TestSearchOrdering(t *testing.T) {
	searcher := &fakeContentSearcher{candidates: []*store.ContentCandidate{
		candidate("low", "zzzzzz", 0.4),
		candidate("high", "zzzzzz", 0.9),
		candidate("mid", "zzzzzz", 0.6),
	}}
	engine := NewEngine(searcher)

	results, err := engine.Search(context.Background(), &Request{
		Query:      "coffee",
		Weights:    DefaultWeights(),
		Thresholds: DefaultThresholds(),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "high", results[0].SourceID)
	require.Equal(t, "mid", results[1].SourceID)
	require.Equal(t, "low", results[2].SourceID)
	require.Greater(t, results[0].Combined, results[1].Combined)
	require.Greater(t, results[1].Combined, results[2].Combined)
}

func TestSearchSemanticTieBreak(t *testing.T) {
	// Both candidates land on a combined score of exactly 0.5: one from
	// pure semantic, one from pure keyword. The semantic one wins the tie.
	req := &Request{
		Query:      "coffee",
		Weights:    Weights{Semantic: 0.5, Keyword: 0.5, Trigram: 0.0},
		Thresholds: DefaultThresholds(),
	}
	candidates := []*store.ContentCandidate{
		candidate("keywordOnly", "coffee", 0),
		candidate("semanticOnly", "zzzzzz", 1.0),
	}
	results := rankCandidates(candidates, req)
	require.Len(t, results, 2)
	require.Equal(t, results[0].Combined, results[1].Combined)
	require.Equal(t, "semanticOnly", results[0].SourceID)
}

func TestSearchMonotonicity(t *testing.T) {
	// Raising one signal while the others stay fixed never demotes a
	// candidate below one it previously outranked.
	base := &Request{
		Query:      "coffee",
		Weights:    DefaultWeights(),
		Thresholds: DefaultThresholds(),
	}
	for _, semantic := range []float64{0.3, 0.5, 0.7, 0.95} {
		results := rankCandidates([]*store.ContentCandidate{
			candidate("fixed", "zzzzzz", 0.25),
			candidate("rising", "zzzzzz", semantic),
		}, base)
		require.Len(t, results, 2)
		require.Equal(t, "rising", results[0].SourceID, "semantic=%v", semantic)
	}
}

func TestSearchLimits(t *testing.T) {
	candidates := make([]*store.ContentCandidate, 0, 15)
	for i := 0; i < 15; i++ {
		candidates = append(candidates, candidate(string(rune('a'+i)), "zzzzzz", 0.5))
	}
	searcher := &fakeContentSearcher{candidates: candidates}
	engine := NewEngine(searcher)

	results, err := engine.Search(context.Background(), &Request{
		Query:      "coffee",
		Weights:    DefaultWeights(),
		Thresholds: DefaultThresholds(),
	})
	require.NoError(t, err)
	require.Len(t, results, 10)
	require.Equal(t, defaultCandidateLimit, searcher.lastOpts.Limit)
}
