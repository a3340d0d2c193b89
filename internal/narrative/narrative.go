// Package narrative turns the drift matrix into ranked, human-readable
// recommendations. It distinguishes benign cold spots (nobody talks
// about it, nobody does it) from genuine one-sided drift.
package narrative

import (
	"fmt"
	"sort"

	"trustdebt/internal/config"
	"trustdebt/internal/errors"
	"trustdebt/internal/grading"
	"trustdebt/internal/logging"
	"trustdebt/internal/matrix"
	"trustdebt/internal/output"
	"trustdebt/internal/taxonomy"
)

// Kind classifies a recommendation.
type Kind string

const (
	// KindDrift flags a one-sided mismatch between Intent and Reality.
	KindDrift Kind = "drift"
	// KindColdSpot flags a category pair inactive on both sides.
	KindColdSpot Kind = "cold-spot"
)

// Effort is a coarse remediation-size bucket.
type Effort string

const (
	EffortSmall  Effort = "small"
	EffortMedium Effort = "medium"
	EffortLarge  Effort = "large"
)

// Effort bucket cutoffs in drift units.
const (
	effortMediumFloor = 25.0
	effortLargeFloor  = 100.0
)

// Recommendation is one actionable finding.
type Recommendation struct {
	Kind       Kind    `json:"kind"`
	RowID      string  `json:"rowId"`
	ColID      string  `json:"colId"`
	RowLabel   string  `json:"rowLabel"`
	ColLabel   string  `json:"colLabel,omitempty"`
	Direction  string  `json:"direction"`
	DriftUnits float64 `json:"driftUnits"`
	Effort     Effort  `json:"effort"`
	Benign     bool    `json:"benign"`
}

// Report is the narrative artifact payload.
type Report struct {
	Letter          string           `json:"letter"`
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Generator renders reports against the configured activity threshold.
type Generator struct {
	cfg    config.MatrixConfig
	logger *logging.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(cfg config.MatrixConfig, logger *logging.Logger) *Generator {
	return &Generator{cfg: cfg, logger: logger}
}

// Narrate ranks findings by drift descending; cold spots carry no drift
// and sink to the bottom. Ties break on ShortLex cell position so the
// report is deterministic.
func (g *Generator) Narrate(m *matrix.Matrix, grade *grading.GradeResult, tax *taxonomy.Taxonomy) (*Report, error) {
	if m == nil || m.Size() == 0 {
		return nil, errors.New(errors.ArtifactInvalid, "drift matrix is empty", nil)
	}

	var recs []Recommendation
	for _, cell := range m.Cells {
		if rec, ok := g.assess(cell, tax); ok {
			recs = append(recs, rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].DriftUnits != recs[j].DriftUnits {
			return recs[i].DriftUnits > recs[j].DriftUnits
		}
		if recs[i].RowID != recs[j].RowID {
			return taxonomy.ShortLexLess(recs[i].RowID, recs[j].RowID)
		}
		return taxonomy.ShortLexLess(recs[i].ColID, recs[j].ColID)
	})

	report := &Report{
		Letter:          grade.Letter,
		Summary:         summarize(grade, recs),
		Recommendations: recs,
	}

	g.logger.Debug("Narrative generated", map[string]interface{}{
		"recommendations": len(recs),
		"letter":          grade.Letter,
	})

	return report, nil
}

// assess classifies one cell. Cells with balanced, active values are
// healthy and produce nothing.
func (g *Generator) assess(cell matrix.Cell, tax *taxonomy.Taxonomy) (Recommendation, bool) {
	cold := g.cfg.ColdThreshold
	lowIntent := cell.IntentValue < cold
	lowReality := cell.RealityValue < cold

	rowLabel := labelOf(tax, cell.RowID)

	if lowIntent && lowReality {
		// Only diagonal cold spots are worth reporting; a quiet pair of
		// quiet categories carries no extra signal.
		if cell.Triangle != matrix.TriangleDiagonal {
			return Recommendation{}, false
		}
		return Recommendation{
			Kind:       KindColdSpot,
			RowID:      cell.RowID,
			ColID:      cell.ColID,
			RowLabel:   rowLabel,
			Direction:  fmt.Sprintf("%s is inactive in both docs and code; no action needed", rowLabel),
			DriftUnits: output.RoundFloat(cell.DriftUnits),
			Effort:     EffortSmall,
			Benign:     true,
		}, true
	}

	if lowIntent == lowReality || cell.DriftUnits == 0 {
		// Both sides active: drift here is diffuse, not one-sided.
		return Recommendation{}, false
	}

	rec := Recommendation{
		Kind:       KindDrift,
		RowID:      cell.RowID,
		ColID:      cell.ColID,
		RowLabel:   rowLabel,
		DriftUnits: output.RoundFloat(cell.DriftUnits),
		Effort:     effortFor(cell.DriftUnits),
	}

	if cell.Triangle == matrix.TriangleDiagonal {
		if lowReality {
			rec.Direction = fmt.Sprintf("%s is promised in docs but barely present in code", rowLabel)
		} else {
			rec.Direction = fmt.Sprintf("%s is implemented but undocumented", rowLabel)
		}
		return rec, true
	}

	colLabel := labelOf(tax, cell.ColID)
	rec.ColLabel = colLabel
	if lowReality {
		rec.Direction = fmt.Sprintf("docs couple %s with %s but the code does not", rowLabel, colLabel)
	} else {
		rec.Direction = fmt.Sprintf("code couples %s with %s but the docs never mention it", rowLabel, colLabel)
	}
	return rec, true
}

func effortFor(drift float64) Effort {
	switch {
	case drift >= effortLargeFloor:
		return EffortLarge
	case drift >= effortMediumFloor:
		return EffortMedium
	default:
		return EffortSmall
	}
}

func summarize(grade *grading.GradeResult, recs []Recommendation) string {
	issues := 0
	for _, r := range recs {
		if !r.Benign {
			issues++
		}
	}

	direction := "docs and code are roughly in step"
	if grade.AsymmetryRatio > 1.5 {
		direction = "the code has moved ahead of the docs"
	} else if grade.AsymmetryRatio > 0 && grade.AsymmetryRatio < 0.67 {
		direction = "the docs promise more than the code delivers"
	}

	return fmt.Sprintf("Grade %s with %.1f total drift units; %s. %d drift issue(s), %d cold spot(s).",
		grade.Letter, grade.TotalUnits, direction, issues, len(recs)-issues)
}

func labelOf(tax *taxonomy.Taxonomy, id string) string {
	if c := tax.Category(id); c != nil && c.Label != "" {
		return c.Label
	}
	return id
}
