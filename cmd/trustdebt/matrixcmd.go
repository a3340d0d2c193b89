package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trustdebt/internal/matrix"
)

var matrixFormat string

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Build the asymmetric drift matrix",
	Long: `Builds the category-by-category drift matrix from the persisted
taxonomy and keyword index. The upper triangle is Reality-weighted, the
lower triangle Intent-weighted; the two are never symmetrized.`,
	Run: runMatrix,
}

func init() {
	matrixCmd.Flags().StringVar(&matrixFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, args []string) {
	pc := newPipelineContext(matrixFormat)

	m, err := pc.RunMatrix()
	if err != nil {
		fail(err)
	}

	if OutputFormat(matrixFormat) == FormatHuman {
		fmt.Print(formatMatrixHuman(m))
		return
	}

	output, err := FormatResponse(m, OutputFormat(matrixFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}

// formatMatrixHuman renders the drift units as a compact grid.
func formatMatrixHuman(m *matrix.Matrix) string {
	out := fmt.Sprintf("Drift matrix (%d x %d), drift units per cell:\n\n      ", m.Size(), m.Size())
	for _, id := range m.CategoryIDs {
		out += fmt.Sprintf("%8s", id)
	}
	out += "\n"
	n := m.Size()
	for i, row := range m.CategoryIDs {
		out += fmt.Sprintf("%-6s", row)
		for j := 0; j < n; j++ {
			out += fmt.Sprintf("%8.1f", m.Cells[i*n+j].DriftUnits)
		}
		out += "\n"
	}
	return out
}
