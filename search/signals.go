package search

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// Raw signal scores for a single candidate. Each signal is in [0,1];
// a missing input zeroes the signal rather than failing the candidate.
type signals struct {
	Semantic float64
	Keyword  float64
	Trigram  float64
}

// keywordScore is the coarse keyword heuristic: 1.0 when the content
// contains the full query (case-insensitive), 0.7 when it contains the
// first or the last whitespace-delimited token, else 0. Multi-token
// partial overlap beyond the first and last token is deliberately not
// considered.
func keywordScore(content, query string) float64 {
	query = strings.TrimSpace(query)
	if content == "" || query == "" {
		return 0
	}

	content = strings.ToLower(content)
	query = strings.ToLower(query)

	if strings.Contains(content, query) {
		return 1.0
	}

	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return 0
	}
	if strings.Contains(content, tokens[0]) {
		return 0.7
	}
	if strings.Contains(content, tokens[len(tokens)-1]) {
		return 0.7
	}
	return 0
}

// trigramSimilarity is the fuzzy-text signal: character 3-gram cosine
// similarity between the content and the query, tolerant of typos.
func trigramSimilarity(content, query string) float64 {
	content = strings.ToLower(strings.TrimSpace(content))
	query = strings.ToLower(strings.TrimSpace(query))
	if content == "" || query == "" {
		return 0
	}

	sim := float64(edlib.CosineSimilarity(content, query, 3))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// clampSemantic bounds a driver-computed semantic score to [0,1].
func clampSemantic(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// combinedScore is the weighted rank fusion of the three signals.
// Holding weights and two signals fixed, it is monotonic in the third.
func combinedScore(s signals, w Weights) float64 {
	return s.Semantic*w.Semantic + s.Trigram*w.Trigram + s.Keyword*w.Keyword
}
