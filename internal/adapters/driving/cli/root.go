// Package cli wires the vaultd command line: flags, configuration
// loading, and the serve command that assembles the service graph.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vaultd/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagConfig  string
	flagVerbose bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "vaultd",
	Short: "Personal document vault with semantic search and RAG chat",
	Long: `vaultd ingests your documents (PDF, DOCX, plain text, Markdown),
indexes them for semantic search, and answers questions grounded in
their content. Documents are processed in the background; the HTTP API
reports per-document status while the pipeline runs.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
	// Bare "vaultd" serves; "vaultd serve" is the explicit form.
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "vaultd.toml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
