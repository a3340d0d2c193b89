package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexFormat string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Resolve the corpora and build the keyword index",
	Long: `Resolves the Intent and Reality file sets from the configured globs,
scans them with the fixed pattern table, and persists the corpus and
keyword index artifacts.`,
	Run: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) {
	pc := newPipelineContext(indexFormat)

	corpusPayload, err := pc.RunCorpus()
	if err != nil {
		fail(err)
	}
	indexPayload, err := pc.RunIndex()
	if err != nil {
		fail(err)
	}

	if OutputFormat(indexFormat) == FormatHuman {
		fmt.Printf("Corpus: %d intent files, %d reality files, %d skipped\n",
			len(corpusPayload.Intent), len(corpusPayload.Reality), len(corpusPayload.Skipped))
		fmt.Printf("Index: %d occurrences, %d distinct keywords\n",
			len(indexPayload.Index.Occurrences), len(indexPayload.Index.Keywords()))
		return
	}

	output, err := FormatResponse(indexPayload, OutputFormat(indexFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
