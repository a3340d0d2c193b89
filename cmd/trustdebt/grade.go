package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var gradeFormat string

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Compute the trust debt grade",
	Long: `Collapses the persisted drift matrix into triangle sums, an asymmetry
ratio, and a letter grade from the configured boundary table.`,
	Run: runGrade,
}

func init() {
	gradeCmd.Flags().StringVar(&gradeFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(gradeCmd)
}

func runGrade(cmd *cobra.Command, args []string) {
	pc := newPipelineContext(gradeFormat)

	grade, err := pc.RunGrade()
	if err != nil {
		fail(err)
	}

	output, err := FormatResponse(grade, OutputFormat(gradeFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
