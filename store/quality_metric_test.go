package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampQualityScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{"Negative", -5, 0},
		{"Zero", 0, 0},
		{"InRange", 72.5, 72.5},
		{"UpperBound", 100, 100},
		{"AboveRange", 130, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, clampQualityScore(tt.score))
		})
	}
}
