// Package grading collapses the drift matrix into triangle sums, an
// asymmetry ratio, and a letter grade from the configured boundary
// table.
package grading

import (
	"trustdebt/internal/config"
	"trustdebt/internal/errors"
	"trustdebt/internal/logging"
	"trustdebt/internal/matrix"
	"trustdebt/internal/taxonomy"
)

// GradeResult is the grade artifact payload. All unit fields are sums of
// cell DriftUnits over one triangle.
type GradeResult struct {
	TotalUnits    float64 `json:"totalUnits"`
	UpperUnits    float64 `json:"upperUnits"`
	LowerUnits    float64 `json:"lowerUnits"`
	DiagonalUnits float64 `json:"diagonalUnits"`
	// AsymmetryRatio is upper over lower with an epsilon-floored
	// denominator; > 1 means Reality-weighted drift dominates.
	AsymmetryRatio float64 `json:"asymmetryRatio"`
	// Orthogonality restates the taxonomy's own convergence metric so
	// the grade and the taxonomy can never disagree about it.
	Orthogonality float64 `json:"orthogonality"`
	Converged     bool    `json:"converged"`
	Letter        string  `json:"letter"`
}

// Calculator computes grades against a validated boundary table.
type Calculator struct {
	cfg    config.GradesConfig
	logger *logging.Logger
}

// NewCalculator validates the boundary table and returns a Calculator.
// An invalid table is a fatal configuration error.
func NewCalculator(cfg config.GradesConfig, logger *logging.Logger) (*Calculator, error) {
	if err := config.ValidateBoundaries(cfg.Boundaries); err != nil {
		return nil, err
	}
	if cfg.Epsilon <= 0 {
		return nil, errors.New(errors.ConfigInvalid, "grades.epsilon must be positive", nil)
	}
	return &Calculator{cfg: cfg, logger: logger}, nil
}

// Grade sums the matrix triangles and maps the total onto the boundary
// table. Every non-negative total maps to exactly one letter.
func (c *Calculator) Grade(m *matrix.Matrix, tax *taxonomy.Taxonomy) (*GradeResult, error) {
	if m == nil || m.Size() == 0 {
		return nil, errors.New(errors.ArtifactInvalid, "drift matrix is empty", nil)
	}

	result := &GradeResult{
		Orthogonality: taxonomy.AverageOrthogonality(tax.KeywordSets()),
		Converged:     tax.Converged,
	}

	for _, cell := range m.Cells {
		result.TotalUnits += cell.DriftUnits
		switch cell.Triangle {
		case matrix.TriangleUpper:
			result.UpperUnits += cell.DriftUnits
		case matrix.TriangleLower:
			result.LowerUnits += cell.DriftUnits
		case matrix.TriangleDiagonal:
			result.DiagonalUnits += cell.DriftUnits
		}
	}

	denom := result.LowerUnits
	if denom < c.cfg.Epsilon {
		denom = c.cfg.Epsilon
	}
	result.AsymmetryRatio = result.UpperUnits / denom

	result.Letter = c.letterFor(result.TotalUnits)

	c.logger.Info("Grade computed", map[string]interface{}{
		"letter":         result.Letter,
		"totalUnits":     result.TotalUnits,
		"asymmetryRatio": result.AsymmetryRatio,
	})

	return result, nil
}

// letterFor maps a total onto the half-open boundary ranges. The table
// is validated contiguous and terminated by an unbounded range, so the
// loop always returns.
func (c *Calculator) letterFor(total float64) string {
	for _, b := range c.cfg.Boundaries {
		if b.Unbounded || total < b.MaxUnits {
			return b.Letter
		}
	}
	// Unreachable with a validated table.
	return c.cfg.Boundaries[len(c.cfg.Boundaries)-1].Letter
}
