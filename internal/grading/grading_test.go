package grading

import (
	"math"
	"testing"

	"trustdebt/internal/config"
	"trustdebt/internal/logging"
	"trustdebt/internal/matrix"
	"trustdebt/internal/taxonomy"
)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()
	logger := logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel})
	c, err := NewCalculator(config.DefaultConfig().Grades, logger)
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return c
}

func testTaxonomy() *taxonomy.Taxonomy {
	cats := []taxonomy.Category{
		{ID: "A", Label: "Performance", Keywords: []string{"cache"}},
		{ID: "B", Label: "Security", Keywords: []string{"auth"}},
	}
	taxonomy.SortCategories(cats)
	return &taxonomy.Taxonomy{Categories: cats, Converged: true}
}

// twoByTwo builds a matrix with explicit per-cell drift:
// diagonal d0, d1; upper u; lower l.
func twoByTwo(d0, d1, u, l float64) *matrix.Matrix {
	return &matrix.Matrix{
		CategoryIDs: []string{"A", "B"},
		Cells: []matrix.Cell{
			{RowID: "A", ColID: "A", DriftUnits: d0, Triangle: matrix.TriangleDiagonal},
			{RowID: "A", ColID: "B", DriftUnits: u, Triangle: matrix.TriangleUpper},
			{RowID: "B", ColID: "A", DriftUnits: l, Triangle: matrix.TriangleLower},
			{RowID: "B", ColID: "B", DriftUnits: d1, Triangle: matrix.TriangleDiagonal},
		},
	}
}

func TestTriangleSums(t *testing.T) {
	g, err := testCalculator(t).Grade(twoByTwo(10, 5, 20, 8), testTaxonomy())
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}

	if g.DiagonalUnits != 15 {
		t.Errorf("DiagonalUnits = %v, want 15", g.DiagonalUnits)
	}
	if g.UpperUnits != 20 {
		t.Errorf("UpperUnits = %v, want 20", g.UpperUnits)
	}
	if g.LowerUnits != 8 {
		t.Errorf("LowerUnits = %v, want 8", g.LowerUnits)
	}
	if g.TotalUnits != 43 {
		t.Errorf("TotalUnits = %v, want 43", g.TotalUnits)
	}
	if math.Abs(g.AsymmetryRatio-2.5) > 1e-9 {
		t.Errorf("AsymmetryRatio = %v, want 2.5", g.AsymmetryRatio)
	}
}

func TestLetterBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		want  string
	}{
		{"zero drift", 0, "A"},
		{"just under A cap", 49.999, "A"},
		{"exactly A cap", 50, "B"},
		{"mid B", 100, "B"},
		{"exactly B cap", 150, "C"},
		{"exactly C cap", 400, "D"},
		{"huge", 1e9, "D"},
	}

	calc := testCalculator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := calc.Grade(twoByTwo(tt.total, 0, 0, 0), testTaxonomy())
			if err != nil {
				t.Fatalf("Grade: %v", err)
			}
			if g.Letter != tt.want {
				t.Errorf("total %v: letter = %q, want %q", tt.total, g.Letter, tt.want)
			}
		})
	}
}

// A zero matrix earns the best grade and a finite asymmetry ratio: the
// epsilon floor keeps the division defined.
func TestZeroDriftBestGrade(t *testing.T) {
	g, err := testCalculator(t).Grade(twoByTwo(0, 0, 0, 0), testTaxonomy())
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}

	if g.Letter != "A" {
		t.Errorf("letter = %q, want A", g.Letter)
	}
	if g.AsymmetryRatio != 0 {
		t.Errorf("AsymmetryRatio = %v, want 0", g.AsymmetryRatio)
	}
	if math.IsNaN(g.AsymmetryRatio) || math.IsInf(g.AsymmetryRatio, 0) {
		t.Errorf("AsymmetryRatio is not finite: %v", g.AsymmetryRatio)
	}
}

func TestOrthogonalityMatchesTaxonomy(t *testing.T) {
	tax := testTaxonomy()
	g, err := testCalculator(t).Grade(twoByTwo(1, 1, 1, 1), tax)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}

	want := taxonomy.AverageOrthogonality(tax.KeywordSets())
	if g.Orthogonality != want {
		t.Errorf("Orthogonality = %v, want %v (same function as convergence gate)", g.Orthogonality, want)
	}
	if !g.Converged {
		t.Error("Converged not carried from taxonomy")
	}
}

func TestNewCalculatorRejectsBadTable(t *testing.T) {
	logger := logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel})

	bad := config.GradesConfig{
		Boundaries: []config.GradeBoundary{
			{MinUnits: 0, MaxUnits: 50, Letter: "A"},
			{MinUnits: 60, Unbounded: true, Letter: "B"}, // gap
		},
		Epsilon: 0.001,
	}
	if _, err := NewCalculator(bad, logger); err == nil {
		t.Error("expected error for gapped boundary table")
	}

	noEps := config.DefaultConfig().Grades
	noEps.Epsilon = 0
	if _, err := NewCalculator(noEps, logger); err == nil {
		t.Error("expected error for zero epsilon")
	}
}

func TestEmptyMatrixRejected(t *testing.T) {
	if _, err := testCalculator(t).Grade(&matrix.Matrix{}, testTaxonomy()); err == nil {
		t.Error("expected error for empty matrix")
	}
}
