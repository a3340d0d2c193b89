package taxonomy

import "math"

// JaccardSimilarity measures keyword-set overlap between two categories.
// Zero-orthogonality (identical sets) is what the refinement loop must
// eliminate.
func JaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]bool, len(a))
	for _, k := range a {
		set[k] = true
	}

	intersection := 0
	for _, k := range b {
		if set[k] {
			intersection++
		}
	}

	union := len(set) + countDistinct(b) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}

// AverageOrthogonality is the mean pairwise (1 - Jaccard) over all
// category pairs. This single function gates taxonomy convergence AND
// feeds the grade report; both stages must observe the same value.
func AverageOrthogonality(sets [][]string) float64 {
	if len(sets) < 2 {
		return 1
	}

	sum := 0.0
	pairs := 0
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			sum += 1 - JaccardSimilarity(sets[i], sets[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// AverageOrthogonality reports the taxonomy's own score.
func (t *Taxonomy) AverageOrthogonality() float64 {
	return AverageOrthogonality(t.KeywordSets())
}

// BalanceCV is the coefficient of variation of per-category unit
// counts. High CV means a few categories absorb most of the signal.
func BalanceCV(units []int) float64 {
	if len(units) == 0 {
		return 0
	}

	sum := 0
	for _, u := range units {
		sum += u
	}
	mean := float64(sum) / float64(len(units))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, u := range units {
		d := float64(u) - mean
		variance += d * d
	}
	variance /= float64(len(units))

	return math.Sqrt(variance) / mean
}

func countDistinct(keywords []string) int {
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		seen[k] = true
	}
	return len(seen)
}
