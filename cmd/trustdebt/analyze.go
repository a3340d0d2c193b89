package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	analyzeFormat   string
	analyzeTimeline bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full drift measurement pipeline",
	Long: `Runs every pipeline stage in order: corpus, keyword index, taxonomy,
matrix, grade, and narrative. Add --with-timeline to also replay git
history. Each stage persists its artifact, so individual stages can be
rerun afterwards.`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "human", "Output format (json, human, yaml)")
	analyzeCmd.Flags().BoolVar(&analyzeTimeline, "with-timeline", false, "Also replay git history")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	pc := newPipelineContext(analyzeFormat)

	report, err := pc.RunAll(newContext(), analyzeTimeline)
	if err != nil {
		fail(err)
	}

	output, err := FormatResponse(report, OutputFormat(analyzeFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
