package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var categoriesFormat string

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Generate the category taxonomy",
	Long: `Derives the category taxonomy from the persisted keyword index and
persists it. A taxonomy that misses the orthogonality or balance
thresholds within the iteration cap is reported as not converged, not
hidden.`,
	Run: runCategories,
}

func init() {
	categoriesCmd.Flags().StringVar(&categoriesFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) {
	pc := newPipelineContext(categoriesFormat)

	tax, err := pc.RunTaxonomy()
	if err != nil {
		fail(err)
	}

	output, err := FormatResponse(tax, OutputFormat(categoriesFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
