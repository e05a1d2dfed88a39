// Package commands implements the layerscope command line.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	configcmd "github.com/marmos91/layerscope/cmd/layerscope/commands/config"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "layerscope",
		Short: "Inspect and clean a container engine's storage",
		Long: `layerscope reads the storage root of a container engine (overlay2 layers,
image metadata, containers and their mounts), builds the dependency graph
between them and lets you find and remove what nothing uses any more.

Removal always shows a preview first and deletes dependencies only when
nothing else references them.

Use "layerscope [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdutil.Flags.ConfigFile, _ = cmd.Flags().GetString("config")
			cmdutil.Flags.BaseDir, _ = cmd.Flags().GetString("base")
			cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
			cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
			cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
			cmdutil.Flags.MetricsFile, _ = cmd.Flags().GetString("metrics-file")
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default $XDG_CONFIG_HOME/layerscope/config.yaml)")
	pf.StringP("base", "b", "", "Engine storage root (overrides storage.base_dir)")
	pf.StringP("output", "o", "table", "Output format (table|json|yaml)")
	pf.Bool("no-color", false, "Disable colored output")
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.String("metrics-file", "", "Write Prometheus metrics to this textfile on exit")

	root.AddCommand(
		newScanCmd(),
		newListCmd(),
		newShowCmd(),
		newRmCmd(),
		newPruneCmd(),
		newBrowseCmd(),
		newHistoryCmd(),
		newVersionCmd(),
		configcmd.NewCmd(),
	)
	return root
}

// Execute runs the command line. SIGINT and SIGTERM cancel the running
// command between node removals.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
