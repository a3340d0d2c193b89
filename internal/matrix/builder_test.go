package matrix

import (
	"math"
	"reflect"
	"testing"

	"trustdebt/internal/config"
	"trustdebt/internal/corpus"
	"trustdebt/internal/keywords"
	"trustdebt/internal/logging"
	"trustdebt/internal/taxonomy"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel})
}

func testBuilder() *Builder {
	return NewBuilder(config.MatrixConfig{DiagonalWeight: 2.0, ColdThreshold: 1.0}, testLogger())
}

// threeCategories builds a fixed taxonomy: A=performance, B=security,
// C=timeline.
func threeCategories() *taxonomy.Taxonomy {
	cats := []taxonomy.Category{
		{ID: "A", Label: "Performance", Keywords: []string{"cache", "performance"}},
		{ID: "B", Label: "Security", Keywords: []string{"auth", "security"}},
		{ID: "C", Label: "Timeline", Keywords: []string{"history", "timeline"}},
	}
	taxonomy.SortCategories(cats)
	return &taxonomy.Taxonomy{Categories: cats, Converged: true}
}

func occ(kw string, d corpus.Domain, path string, freq int) keywords.Occurrence {
	return keywords.Occurrence{Keyword: kw, Domain: d, SourcePath: path, Frequency: freq}
}

func TestBuildDeterministic(t *testing.T) {
	idx := &keywords.Index{Occurrences: []keywords.Occurrence{
		occ("performance", corpus.DomainIntent, "a.md", 10),
		occ("security", corpus.DomainIntent, "a.md", 5),
		occ("cache", corpus.DomainReality, "x.go", 7),
		occ("auth", corpus.DomainReality, "x.go", 3),
		occ("timeline", corpus.DomainReality, "y.go", 2),
	}}

	first, err := testBuilder().Build(threeCategories(), idx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := testBuilder().Build(threeCategories(), idx)
		if err != nil {
			t.Fatalf("Build %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("run %d produced a different matrix", i)
		}
	}
}

func TestBuildShape(t *testing.T) {
	idx := &keywords.Index{Occurrences: []keywords.Occurrence{
		occ("performance", corpus.DomainIntent, "a.md", 1),
		occ("security", corpus.DomainReality, "x.go", 1),
	}}

	m, err := testBuilder().Build(threeCategories(), idx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if m.Size() != 3 || len(m.Cells) != 9 {
		t.Fatalf("size = %d, cells = %d", m.Size(), len(m.Cells))
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cell := m.Cells[i*3+j]
			want := TriangleDiagonal
			if i < j {
				want = TriangleUpper
			} else if i > j {
				want = TriangleLower
			}
			if cell.Triangle != want {
				t.Errorf("cell (%d,%d) triangle = %s, want %s", i, j, cell.Triangle, want)
			}
			if cell.DriftUnits < 0 || math.IsNaN(cell.DriftUnits) {
				t.Errorf("cell (%d,%d) drift = %v", i, j, cell.DriftUnits)
			}
		}
	}
}

// A category with zero occurrences in both domains is a legitimate cold
// category: all its cells are exactly zero, never NaN.
func TestDiagonalZeroLaw(t *testing.T) {
	idx := &keywords.Index{Occurrences: []keywords.Occurrence{
		occ("performance", corpus.DomainIntent, "a.md", 10),
		occ("cache", corpus.DomainReality, "x.go", 10),
	}}

	m, err := testBuilder().Build(threeCategories(), idx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// B and C never occur.
	for _, id := range []string{"B", "C"} {
		diag := m.Cell(id, id)
		if diag.DriftUnits != 0 || diag.IntentValue != 0 || diag.RealityValue != 0 {
			t.Errorf("cold category %s diagonal = %+v, want zeros", id, *diag)
		}
		for _, other := range m.CategoryIDs {
			if other == id {
				continue
			}
			for _, cell := range []*Cell{m.Cell(id, other), m.Cell(other, id)} {
				if cell.DriftUnits != 0 || math.IsNaN(cell.DriftUnits) {
					t.Errorf("cold category %s cell (%s,%s) = %+v", id, cell.RowID, cell.ColID, *cell)
				}
			}
		}
	}
}

// Upper cell (i,j) and lower cell (j,i) are sourced from different
// domain weightings and must not be silently symmetrized.
func TestAsymmetryInvariant(t *testing.T) {
	idx := &keywords.Index{Occurrences: []keywords.Occurrence{
		// Intent: performance and security co-mentioned heavily.
		occ("performance", corpus.DomainIntent, "a.md", 9),
		occ("security", corpus.DomainIntent, "a.md", 3),
		// Reality: barely co-occur, reversed proportions.
		occ("cache", corpus.DomainReality, "x.go", 1),
		occ("auth", corpus.DomainReality, "x.go", 8),
		occ("auth", corpus.DomainReality, "y.go", 4),
	}}

	m, err := testBuilder().Build(threeCategories(), idx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	upper := m.Cell("A", "B")
	lower := m.Cell("B", "A")

	if upper.Triangle != TriangleUpper || lower.Triangle != TriangleLower {
		t.Fatalf("triangle labels wrong: %s / %s", upper.Triangle, lower.Triangle)
	}
	if upper.IntentValue == lower.IntentValue && upper.RealityValue == lower.RealityValue {
		t.Error("mirror cells are identical; matrix was symmetrized")
	}
}

// Intent mentions performance heavily, Reality never: the performance
// diagonal must carry strictly positive drift and dominate the diagonal.
func TestOneSidedDriftScenario(t *testing.T) {
	idx := &keywords.Index{Occurrences: []keywords.Occurrence{
		occ("performance", corpus.DomainIntent, "a.md", 50),
		occ("security", corpus.DomainIntent, "a.md", 5),
		occ("timeline", corpus.DomainIntent, "b.md", 5),
		// Reality has no performance signal at all.
		occ("auth", corpus.DomainReality, "x.go", 5),
		occ("history", corpus.DomainReality, "y.go", 5),
	}}

	m, err := testBuilder().Build(threeCategories(), idx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	perf := m.Cell("A", "A")
	if perf.DriftUnits <= 0 {
		t.Fatalf("performance diagonal drift = %v, want > 0", perf.DriftUnits)
	}

	for _, cell := range m.Diagonal() {
		if cell.RowID != "A" && cell.DriftUnits >= perf.DriftUnits {
			t.Errorf("diagonal %s drift %v >= performance drift %v", cell.RowID, cell.DriftUnits, perf.DriftUnits)
		}
	}
}

// Identical Intent and Reality signals must produce a zero matrix.
func TestIdenticalCorporaZeroDrift(t *testing.T) {
	shared := []struct {
		kw   string
		path string
		freq int
	}{
		{"performance", "doc.md", 4},
		{"security", "doc.md", 2},
		{"timeline", "other.md", 3},
	}

	idx := &keywords.Index{}
	for _, s := range shared {
		idx.Occurrences = append(idx.Occurrences,
			occ(s.kw, corpus.DomainIntent, s.path, s.freq),
			occ(s.kw, corpus.DomainReality, s.path, s.freq),
		)
	}

	m, err := testBuilder().Build(threeCategories(), idx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, cell := range m.Cells {
		if cell.DriftUnits != 0 {
			t.Errorf("cell (%s,%s) drift = %v, want 0", cell.RowID, cell.ColID, cell.DriftUnits)
		}
	}
}
