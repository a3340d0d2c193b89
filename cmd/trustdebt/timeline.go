package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var timelineFormat string

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Replay drift measurement across git history",
	Long: `Samples commits oldest to newest and regrades each against the frozen
HEAD taxonomy. Replays are cached in SQLite, so reruns only compute new
commits. Unreadable historical states are skipped as gaps.`,
	Run: runTimeline,
}

func init() {
	timelineCmd.Flags().StringVar(&timelineFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, args []string) {
	pc := newPipelineContext(timelineFormat)

	result, err := pc.RunTimeline(newContext())
	if err != nil {
		fail(err)
	}

	output, err := FormatResponse(result, OutputFormat(timelineFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
