package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		query   string
		want    float64
	}{
		{
			name:    "FullContainment",
			content: "Starbucks Coffee Jakarta",
			query:   "starbucks coffee",
			want:    1.0,
		},
		{
			name:    "FirstTokenOnly",
			content: "Starbucks Reserve",
			query:   "starbucks downtown branch",
			want:    0.7,
		},
		{
			name:    "LastTokenOnly",
			content: "Monthly parking garage",
			query:   "airport terminal garage",
			want:    0.7,
		},
		{
			name:    "MiddleTokenIgnored",
			content: "terminal",
			query:   "airport terminal garage",
			want:    0,
		},
		{
			name:    "NoMatch",
			content: "Grocery run",
			query:   "starbucks",
			want:    0,
		},
		{
			name:    "EmptyQuery",
			content: "Starbucks",
			query:   "   ",
			want:    0,
		},
		{
			name:    "EmptyContent",
			content: "",
			query:   "starbucks",
			want:    0,
		},
		{
			name:    "CaseInsensitive",
			content: "STARBUCKS COFFEE",
			query:   "Starbucks Coffee",
			want:    1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, keywordScore(tt.content, tt.query))
		})
	}
}

func TestTrigramSimilarity(t *testing.T) {
	require.Equal(t, float64(0), trigramSimilarity("", "starbucks"))
	require.Equal(t, float64(0), trigramSimilarity("starbucks", "  "))

	identical := trigramSimilarity("starbucks coffee", "starbucks coffee")
	require.InDelta(t, 1.0, identical, 0.001)

	typo := trigramSimilarity("starbucks coffee", "starbuks coffee")
	require.Greater(t, typo, 0.5)
	require.Less(t, typo, 1.0)

	unrelated := trigramSimilarity("starbucks coffee", "hardware store")
	require.Less(t, unrelated, typo)
}

func TestClampSemantic(t *testing.T) {
	require.Equal(t, float64(0), clampSemantic(-0.2))
	require.Equal(t, 0.42, clampSemantic(0.42))
	require.Equal(t, 1.0, clampSemantic(1.7))
}

func TestCombinedScoreWeighting(t *testing.T) {
	w := Weights{Semantic: 0.6, Keyword: 0.25, Trigram: 0.15}
	s := signals{Semantic: 1, Keyword: 1, Trigram: 1}
	require.InDelta(t, 1.0, combinedScore(s, w), 0.0001)

	// Holding the other signals fixed, a higher semantic score never
	// lowers the combined score.
	low := combinedScore(signals{Semantic: 0.3, Keyword: 0.5, Trigram: 0.5}, w)
	high := combinedScore(signals{Semantic: 0.8, Keyword: 0.5, Trigram: 0.5}, w)
	require.Greater(t, high, low)
}
