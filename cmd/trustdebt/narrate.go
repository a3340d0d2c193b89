package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var narrateFormat string

var narrateCmd = &cobra.Command{
	Use:   "narrate",
	Short: "Generate ranked recommendations",
	Long: `Turns the persisted matrix and grade into human-readable findings:
one-sided drift issues ranked worst-first, plus benign cold spots.`,
	Run: runNarrate,
}

func init() {
	narrateCmd.Flags().StringVar(&narrateFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(narrateCmd)
}

func runNarrate(cmd *cobra.Command, args []string) {
	pc := newPipelineContext(narrateFormat)

	report, err := pc.RunNarrative()
	if err != nil {
		fail(err)
	}

	output, err := FormatResponse(report, OutputFormat(narrateFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
