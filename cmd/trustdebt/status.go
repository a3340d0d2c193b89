package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline artifact status",
	Long:  "Display which pipeline stages have artifacts, their status, and the run that produced them",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	pc := newPipelineContext(statusFormat)

	output, err := FormatResponse(pc.Status(), OutputFormat(statusFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
