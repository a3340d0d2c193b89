package taxonomy

import (
	"math"
	"testing"
)

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"cache", "latency"}, []string{"cache", "latency"}, 1},
		{"disjoint", []string{"cache"}, []string{"auth"}, 0},
		{"half overlap", []string{"cache", "latency"}, []string{"cache", "auth"}, 1.0 / 3.0},
		{"subset", []string{"cache"}, []string{"cache", "auth"}, 0.5},
		{"one empty", nil, []string{"cache"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JaccardSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("JaccardSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

// Merging two highly-overlapping categories must never lower the
// average orthogonality of the remaining set.
func TestMergeMonotonicity(t *testing.T) {
	overlapping := [][]string{
		{"cache", "latency", "throughput"},
		{"cache", "latency", "memory"},
		{"auth", "token"},
		{"timeline", "history"},
	}

	before := AverageOrthogonality(overlapping)

	merged := [][]string{
		{"cache", "latency", "throughput", "memory"},
		{"auth", "token"},
		{"timeline", "history"},
	}
	after := AverageOrthogonality(merged)

	if after < before {
		t.Errorf("merge decreased orthogonality: before=%v after=%v", before, after)
	}
}

func TestAverageOrthogonalityBounds(t *testing.T) {
	if got := AverageOrthogonality([][]string{{"one"}}); got != 1 {
		t.Errorf("single category orthogonality = %v, want 1", got)
	}

	disjoint := [][]string{{"a1"}, {"b1"}, {"c1"}}
	if got := AverageOrthogonality(disjoint); got != 1 {
		t.Errorf("disjoint sets orthogonality = %v, want 1", got)
	}

	identical := [][]string{{"x"}, {"x"}}
	if got := AverageOrthogonality(identical); got != 0 {
		t.Errorf("identical sets orthogonality = %v, want 0", got)
	}
}

func TestBalanceCV(t *testing.T) {
	if got := BalanceCV([]int{10, 10, 10}); got != 0 {
		t.Errorf("uniform units CV = %v, want 0", got)
	}

	skewed := BalanceCV([]int{100, 1, 1, 1})
	if skewed < 1 {
		t.Errorf("skewed units CV = %v, want > 1", skewed)
	}

	if got := BalanceCV(nil); got != 0 {
		t.Errorf("empty CV = %v, want 0", got)
	}
	if got := BalanceCV([]int{0, 0}); got != 0 {
		t.Errorf("all-zero CV = %v, want 0", got)
	}
}
