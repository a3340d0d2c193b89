package taxonomy

import (
	"fmt"
	"sort"
	"strings"

	"trustdebt/internal/config"
	"trustdebt/internal/corpus"
	"trustdebt/internal/errors"
	"trustdebt/internal/keywords"
	"trustdebt/internal/logging"
)

// maxParents caps the number of depth-0 categories; everything else
// becomes a child (depth <= 2 invariant).
const maxParents = 7

// Generator derives a taxonomy from a keyword index.
type Generator struct {
	cfg    config.TaxonomyConfig
	logger *logging.Logger
}

// NewGenerator creates a Generator with validated configuration.
func NewGenerator(cfg config.TaxonomyConfig, logger *logging.Logger) *Generator {
	return &Generator{cfg: cfg, logger: logger}
}

// cluster is a working category during refinement: an exclusive keyword
// set plus its observed units. Clusters have no identity; IDs and ranks
// are assigned only after the set is final.
type cluster struct {
	keywords []string
	units    int
}

// Generate proposes an initial category set, runs the bounded
// refinement loop, and finalizes IDs, hierarchy, and ShortLex ranks.
// A taxonomy that misses the thresholds within the iteration cap is
// returned with Converged=false, never an error.
func (g *Generator) Generate(idx *keywords.Index) (*Taxonomy, error) {
	ranked := idx.Keywords()
	if len(ranked) < 2 {
		return nil, errors.New(errors.CorpusEmpty,
			"keyword index has fewer than 2 distinct keywords; taxonomy would be degenerate", nil).
			WithDetails(map[string]interface{}{"distinctKeywords": len(ranked)})
	}

	freqs := totalFrequencies(idx)

	count := g.cfg.TargetCount
	if count > len(ranked) {
		count = len(ranked)
	}
	if count < g.cfg.MinCategories {
		count = g.cfg.MinCategories
	}
	if count > len(ranked) {
		count = len(ranked)
	}

	clusters := seedClusters(ranked, freqs, count)

	iterations := 0
	orth := AverageOrthogonality(clusterSets(clusters))
	cv := BalanceCV(clusterUnits(clusters))

	for iterations < g.cfg.MaxIterations && !g.converged(orth, cv) {
		iterations++

		changed := mergeIdentical(&clusters, freqs)

		if orth < g.cfg.OrthogonalityThreshold {
			if mergeMostSimilar(&clusters, freqs, g.cfg.MinCategories) {
				changed = true
			}
		} else if cv > g.cfg.BalanceCVThreshold {
			if rebalance(&clusters, freqs, g.cfg.MinCategories, count) {
				changed = true
			}
		}

		orth = AverageOrthogonality(clusterSets(clusters))
		cv = BalanceCV(clusterUnits(clusters))

		g.logger.Debug("Taxonomy refinement iteration", map[string]interface{}{
			"iteration":     iterations,
			"categories":    len(clusters),
			"orthogonality": orth,
			"balanceCv":     cv,
		})

		if !changed {
			// No refinement action applies; further iterations
			// cannot improve anything.
			break
		}
	}

	// Identical keyword sets are never tolerable, converged or not.
	mergeIdentical(&clusters, freqs)
	orth = AverageOrthogonality(clusterSets(clusters))
	cv = BalanceCV(clusterUnits(clusters))

	converged := g.converged(orth, cv)
	if !converged {
		g.logger.Warn("Taxonomy did not converge", map[string]interface{}{
			"iterations":    iterations,
			"orthogonality": orth,
			"balanceCv":     cv,
		})
	}

	tax := g.finalize(clusters, idx)
	tax.Converged = converged
	tax.Iterations = iterations
	tax.Orthogonality = orth
	tax.BalanceCV = cv

	return tax, nil
}

// clusterSets projects each cluster's keyword set for orthogonality scoring.
func clusterSets(clusters []cluster) [][]string {
	sets := make([][]string, len(clusters))
	for i, c := range clusters {
		sets[i] = c.keywords
	}
	return sets
}

// clusterUnits projects each cluster's unit count for balance scoring.
func clusterUnits(clusters []cluster) []int {
	units := make([]int, len(clusters))
	for i, c := range clusters {
		units[i] = c.units
	}
	return units
}

func (g *Generator) converged(orth, cv float64) bool {
	return orth >= g.cfg.OrthogonalityThreshold && cv <= g.cfg.BalanceCVThreshold
}

// seedClusters deals ranked keywords across count clusters in snake
// order, so early (high-frequency) keywords spread evenly.
func seedClusters(ranked []string, freqs map[string]int, count int) []cluster {
	clusters := make([]cluster, count)
	forward := true
	i := 0
	for _, kw := range ranked {
		clusters[i].keywords = append(clusters[i].keywords, kw)
		clusters[i].units += freqs[kw]
		if forward {
			if i == count-1 {
				forward = false
			} else {
				i++
			}
		} else {
			if i == 0 {
				forward = true
			} else {
				i--
			}
		}
	}
	for i := range clusters {
		sort.Strings(clusters[i].keywords)
	}
	return clusters
}

// mergeIdentical merges clusters with identical keyword sets. Mandatory:
// zero orthogonality between two categories is never acceptable.
func mergeIdentical(clusters *[]cluster, freqs map[string]int) bool {
	merged := false
	for i := 0; i < len(*clusters); i++ {
		for j := i + 1; j < len(*clusters); j++ {
			if JaccardSimilarity((*clusters)[i].keywords, (*clusters)[j].keywords) == 1 {
				mergePair(clusters, i, j, freqs)
				merged = true
				j--
			}
		}
	}
	return merged
}

// mergeMostSimilar merges the single most-overlapping pair, when any
// pair overlaps at all.
func mergeMostSimilar(clusters *[]cluster, freqs map[string]int, minCount int) bool {
	if len(*clusters) <= minCount {
		return false
	}

	bestI, bestJ := -1, -1
	bestSim := 0.0
	for i := 0; i < len(*clusters); i++ {
		for j := i + 1; j < len(*clusters); j++ {
			sim := JaccardSimilarity((*clusters)[i].keywords, (*clusters)[j].keywords)
			if sim > bestSim {
				bestSim, bestI, bestJ = sim, i, j
			}
		}
	}
	if bestI < 0 {
		return false
	}
	mergePair(clusters, bestI, bestJ, freqs)
	return true
}

// rebalance attacks a high balance CV: split a genuinely overloaded
// cluster when there is room below the target count, otherwise fold the
// two lightest clusters together.
func rebalance(clusters *[]cluster, freqs map[string]int, minCount, maxCount int) bool {
	total := 0
	for _, c := range *clusters {
		total += c.units
	}
	mean := float64(total) / float64(len(*clusters))

	heaviest := -1
	if len(*clusters) < maxCount {
		for i, c := range *clusters {
			if len(c.keywords) < 2 || float64(c.units) < 2*mean {
				continue
			}
			if heaviest < 0 || c.units > (*clusters)[heaviest].units {
				heaviest = i
			}
		}
	}

	if heaviest >= 0 {
		splitCluster(clusters, heaviest, freqs)
		return true
	}

	if len(*clusters) > minCount {
		light1, light2 := lightestPair(*clusters)
		mergePair(clusters, light1, light2, freqs)
		return true
	}

	return false
}

// splitCluster deals one cluster's keywords into two halves in snake
// order by frequency.
func splitCluster(clusters *[]cluster, idx int, freqs map[string]int) {
	kws := append([]string(nil), (*clusters)[idx].keywords...)
	sort.Slice(kws, func(i, j int) bool {
		if freqs[kws[i]] != freqs[kws[j]] {
			return freqs[kws[i]] > freqs[kws[j]]
		}
		return kws[i] < kws[j]
	})

	var a, b cluster
	for i, kw := range kws {
		if i%2 == 0 {
			a.keywords = append(a.keywords, kw)
			a.units += freqs[kw]
		} else {
			b.keywords = append(b.keywords, kw)
			b.units += freqs[kw]
		}
	}
	sort.Strings(a.keywords)
	sort.Strings(b.keywords)

	(*clusters)[idx] = a
	*clusters = append(*clusters, b)
}

func mergePair(clusters *[]cluster, i, j int, freqs map[string]int) {
	union := make(map[string]bool)
	for _, k := range (*clusters)[i].keywords {
		union[k] = true
	}
	for _, k := range (*clusters)[j].keywords {
		union[k] = true
	}

	kws := make([]string, 0, len(union))
	units := 0
	for k := range union {
		kws = append(kws, k)
		units += freqs[k]
	}
	sort.Strings(kws)

	(*clusters)[i] = cluster{keywords: kws, units: units}
	*clusters = append((*clusters)[:j], (*clusters)[j+1:]...)
}

func lightestPair(clusters []cluster) (int, int) {
	first, second := 0, 1
	if clusters[second].units < clusters[first].units {
		first, second = second, first
	}
	for i := 2; i < len(clusters); i++ {
		if clusters[i].units < clusters[first].units {
			second = first
			first = i
		} else if clusters[i].units < clusters[second].units {
			second = i
		}
	}
	if first > second {
		first, second = second, first
	}
	return first, second
}

// finalize turns anonymous clusters into ranked categories: heaviest
// clusters become parents, the rest attach to the parent they co-occur
// with most, and ShortLex ranks run parents-first.
func (g *Generator) finalize(clusters []cluster, idx *keywords.Index) *Taxonomy {
	ordered := append([]cluster(nil), clusters...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].units != ordered[j].units {
			return ordered[i].units > ordered[j].units
		}
		return ordered[i].keywords[0] < ordered[j].keywords[0]
	})

	parentCount := (len(ordered) + 4) / 5
	if parentCount < 2 {
		parentCount = 2
	}
	if parentCount > maxParents {
		parentCount = maxParents
	}
	if parentCount > len(ordered) {
		parentCount = len(ordered)
	}

	budget := 1.0 / float64(len(ordered))

	categories := make([]Category, 0, len(ordered))
	for i := 0; i < parentCount; i++ {
		id := string(rune('A' + i))
		categories = append(categories, Category{
			ID:         id,
			Label:      labelFor(ordered[i].keywords),
			Keywords:   ordered[i].keywords,
			Units:      ordered[i].units,
			UnitBudget: budget,
		})
	}

	fileFreqs := combinedFileFrequencies(idx)
	childCounts := make(map[string]int)
	for i := parentCount; i < len(ordered); i++ {
		parent := &categories[bestParent(ordered[i], categories[:parentCount], fileFreqs)]
		childCounts[parent.ID]++
		categories = append(categories, Category{
			ID:         fmt.Sprintf("%s%d", parent.ID, childCounts[parent.ID]),
			ParentID:   parent.ID,
			Label:      labelFor(ordered[i].keywords),
			Keywords:   ordered[i].keywords,
			Units:      ordered[i].units,
			UnitBudget: budget,
		})
	}

	SortCategories(categories)
	return &Taxonomy{Categories: categories}
}

// bestParent picks the parent whose keywords co-occur most with the
// cluster's, falling back to the lightest parent for cold clusters.
func bestParent(c cluster, parents []Category, fileFreqs map[string]map[string]int) int {
	best := -1
	bestAffinity := -1
	for i := range parents {
		affinity := 0
		for _, m := range fileFreqs {
			cw := 0
			pw := 0
			for _, k := range c.keywords {
				cw += m[k]
			}
			for _, k := range parents[i].Keywords {
				pw += m[k]
			}
			if cw < pw {
				affinity += cw
			} else {
				affinity += pw
			}
		}
		if affinity > bestAffinity {
			bestAffinity = affinity
			best = i
		}
	}
	if bestAffinity <= 0 {
		// No co-occurrence signal; spread cold clusters evenly.
		lightest := 0
		for i := range parents {
			if parents[i].Units < parents[lightest].Units {
				lightest = i
			}
		}
		return lightest
	}
	return best
}

func combinedFileFrequencies(idx *keywords.Index) map[string]map[string]int {
	combined := make(map[string]map[string]int)
	for _, d := range corpus.Domains {
		for path, m := range idx.FileFrequencies(d) {
			target, ok := combined[path]
			if !ok {
				target = make(map[string]int)
				combined[path] = target
			}
			for k, f := range m {
				target[k] += f
			}
		}
	}
	return combined
}

func totalFrequencies(idx *keywords.Index) map[string]int {
	totals := make(map[string]int)
	for _, o := range idx.Occurrences {
		totals[o.Keyword] += o.Frequency
	}
	return totals
}

// labelFor derives a display label from the set's first keyword.
func labelFor(kws []string) string {
	if len(kws) == 0 {
		return ""
	}
	kw := kws[0]
	return strings.ToUpper(kw[:1]) + kw[1:]
}
