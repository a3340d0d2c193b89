package main

import (
	"github.com/spf13/cobra"

	"trustdebt/internal/version"
)

var (
	// namespaceFlag isolates artifact sets for concurrent runs.
	namespaceFlag string
	// logLevelFlag overrides the configured log level.
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "trustdebt",
	Short: "Trust Debt - docs-vs-code drift measurement",
	Long: `Trust Debt measures the drift between what a repository's documentation
promises (Intent) and what its code does (Reality). It indexes both corpora,
derives an orthogonal category taxonomy, builds an asymmetric drift matrix,
and collapses it into a letter grade with ranked recommendations.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("trustdebt version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&namespaceFlag, "namespace", "",
		"Artifact namespace (default from config; isolates concurrent runs)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error (default from config)")
}
