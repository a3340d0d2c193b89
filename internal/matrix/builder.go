package matrix

import (
	"sort"

	"trustdebt/internal/config"
	"trustdebt/internal/corpus"
	"trustdebt/internal/errors"
	"trustdebt/internal/keywords"
	"trustdebt/internal/logging"
	"trustdebt/internal/taxonomy"
)

// Builder constructs the drift matrix from a finalized taxonomy and the
// keyword index.
type Builder struct {
	cfg    config.MatrixConfig
	logger *logging.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(cfg config.MatrixConfig, logger *logging.Logger) *Builder {
	return &Builder{cfg: cfg, logger: logger}
}

// domainStats caches per-domain aggregates for one build.
type domainStats struct {
	// share is each category's per-hundred share of total domain
	// frequency. Zero-occurrence categories simply hold 0.
	share map[string]float64
	// files holds per-file category frequencies, sorted by path so
	// float summation order is stable across runs.
	files []fileEntry
	total int
}

type fileEntry struct {
	path    string
	catFreq map[string]int
}

// Build computes every cell of the N×N matrix. Deterministic: cells are
// emitted in row-major ShortLex order and all arithmetic is pure.
func (b *Builder) Build(tax *taxonomy.Taxonomy, idx *keywords.Index) (*Matrix, error) {
	if len(tax.Categories) == 0 {
		return nil, errors.New(errors.ArtifactInvalid, "taxonomy has no categories", nil)
	}

	ids := make([]string, len(tax.Categories))
	for i, c := range tax.Categories {
		ids[i] = c.ID
	}

	intent := b.domainStats(tax, idx, corpus.DomainIntent)
	reality := b.domainStats(tax, idx, corpus.DomainReality)

	n := len(ids)
	cells := make([]Cell, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cells = append(cells, b.buildCell(ids, i, j, intent, reality))
		}
	}

	b.logger.Debug("Matrix build complete", map[string]interface{}{
		"categories": n,
		"cells":      len(cells),
	})

	return &Matrix{CategoryIDs: ids, Cells: cells}, nil
}

func (b *Builder) buildCell(ids []string, i, j int, intent, reality *domainStats) Cell {
	row, col := ids[i], ids[j]

	if i == j {
		iv := intent.share[row]
		rv := reality.share[row]
		diff := iv - rv
		return Cell{
			RowID:        row,
			ColID:        col,
			IntentValue:  iv,
			RealityValue: rv,
			DriftUnits:   diff * diff * b.cfg.DiagonalWeight,
			Triangle:     TriangleDiagonal,
		}
	}

	// Directed joint strength: (row, col) order matters, so cell (i,j)
	// and cell (j,i) measure different things.
	iv := jointStrength(intent, row, col)
	rv := jointStrength(reality, row, col)
	diff := iv - rv

	if i < j {
		// Upper triangle: drift weighted by the pair's Reality activity.
		weight := 1 + (reality.share[row]+reality.share[col])/200
		return Cell{
			RowID:        row,
			ColID:        col,
			IntentValue:  iv,
			RealityValue: rv,
			DriftUnits:   diff * diff * weight,
			Triangle:     TriangleUpper,
		}
	}

	// Lower triangle: drift weighted by the pair's Intent activity.
	weight := 1 + (intent.share[row]+intent.share[col])/200
	return Cell{
		RowID:        row,
		ColID:        col,
		IntentValue:  iv,
		RealityValue: rv,
		DriftUnits:   diff * diff * weight,
		Triangle:     TriangleLower,
	}
}

// domainStats aggregates one domain's signals per category.
func (b *Builder) domainStats(tax *taxonomy.Taxonomy, idx *keywords.Index, d corpus.Domain) *domainStats {
	total := idx.TotalFrequency(d)
	kwFreqs := idx.KeywordFrequencies(d)

	share := make(map[string]float64, len(tax.Categories))
	for _, c := range tax.Categories {
		freq := 0
		for _, kw := range c.Keywords {
			freq += kwFreqs[kw]
		}
		if total > 0 {
			share[c.ID] = 100 * float64(freq) / float64(total)
		} else {
			share[c.ID] = 0
		}
	}

	var files []fileEntry
	for path, kwFreq := range idx.FileFrequencies(d) {
		catFreq := make(map[string]int)
		for kw, f := range kwFreq {
			if id := tax.Classify(kw); id != "" {
				catFreq[id] += f
			}
		}
		if len(catFreq) > 0 {
			files = append(files, fileEntry{path: path, catFreq: catFreq})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })

	return &domainStats{share: share, files: files, total: total}
}

// jointStrength is the directed co-occurrence of two categories within
// one domain: files where both appear contribute the smaller frequency,
// scaled toward the row category's weight in that file. Defined as 0
// when either category never occurs; no division by zero is possible.
func jointStrength(stats *domainStats, rowID, colID string) float64 {
	if stats.total == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range stats.files {
		fr := entry.catFreq[rowID]
		fc := entry.catFreq[colID]
		if fr == 0 || fc == 0 {
			continue
		}
		joint := float64(fr)
		if fc < fr {
			joint = float64(fc)
		}
		sum += joint * float64(fr) / float64(fr+fc)
	}

	return 100 * sum / float64(stats.total)
}
