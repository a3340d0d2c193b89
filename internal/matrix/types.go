// Package matrix builds the asymmetric category×category drift matrix.
// The upper triangle is weighted by Reality-corpus activity and the
// lower triangle by Intent-corpus activity; that asymmetry is the
// measurement, not an accident to be smoothed away.
package matrix

// Triangle labels a cell's position relative to the diagonal.
type Triangle string

const (
	// TriangleUpper marks row rank < col rank (Reality-weighted).
	TriangleUpper Triangle = "upper"
	// TriangleLower marks row rank > col rank (Intent-weighted).
	TriangleLower Triangle = "lower"
	// TriangleDiagonal marks a category's self-consistency cell.
	TriangleDiagonal Triangle = "diagonal"
)

// Cell is one matrix entry. Values are per-hundred shares (diagonal) or
// directed co-occurrence strengths (off-diagonal); DriftUnits is the
// squared-difference penalty. All fields are non-negative.
type Cell struct {
	RowID        string   `json:"rowId"`
	ColID        string   `json:"colId"`
	IntentValue  float64  `json:"intentValue"`
	RealityValue float64  `json:"realityValue"`
	DriftUnits   float64  `json:"driftUnits"`
	Triangle     Triangle `json:"triangle"`
}

// Matrix is the complete N×N result of one pipeline run. Built once,
// never mutated; a new run produces a new matrix.
type Matrix struct {
	// CategoryIDs in ShortLex rank order; row/col indices follow it.
	CategoryIDs []string `json:"categoryIds"`
	// Cells in row-major order over CategoryIDs.
	Cells []Cell `json:"cells"`
}

// Size returns N.
func (m *Matrix) Size() int {
	return len(m.CategoryIDs)
}

// Cell returns the cell at (row, col) by category ID, or nil.
func (m *Matrix) Cell(rowID, colID string) *Cell {
	row, col := -1, -1
	for i, id := range m.CategoryIDs {
		if id == rowID {
			row = i
		}
		if id == colID {
			col = i
		}
	}
	if row < 0 || col < 0 {
		return nil
	}
	return &m.Cells[row*len(m.CategoryIDs)+col]
}

// Diagonal returns the self-consistency cells in rank order.
func (m *Matrix) Diagonal() []Cell {
	n := len(m.CategoryIDs)
	cells := make([]Cell, 0, n)
	for i := 0; i < n; i++ {
		cells = append(cells, m.Cells[i*n+i])
	}
	return cells
}
