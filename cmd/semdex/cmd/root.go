// Package cmd provides the CLI commands for semdex.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/semdex/pkg/version"
)

// configPath is the --config persistent flag.
var configPath string

// NewRootCmd creates the root command for the semdex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semdex",
		Short: "Hybrid search over tabular and record data",
		Long: `semdex ingests CSV, TSV, JSON, and JSONL files into a hybrid
(lexical + vector) search index and serves fused retrieval queries.

Indexing runs as cancellable jobs with persisted progress; use
'semdex jobs' to inspect or cancel them.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("semdex version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: built-in defaults + SEMDEX_* env)")

	cmd.AddCommand(newDetectCmd())
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newJobsCmd())
	cmd.AddCommand(newCollectionsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command with signal-aware context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
