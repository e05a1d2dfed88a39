package commands

import (
	"errors"
	"time"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/internal/logger"
	"github.com/marmos91/layerscope/pkg/journal"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past removals from the journal",
		Long: `Show the removals recorded in the journal, newest first.

The journal is off by default; enable it with journal.enabled in the
configuration file or LAYERSCOPE_JOURNAL_ENABLED=true.

Examples:
  layerscope history
  layerscope history --limit 5 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Entries to show (default journal.history_limit, -1 for all)")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}
	if err := cmdutil.InitLogger(cfg); err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return errors.New("the journal is disabled (set journal.enabled: true)")
	}
	printer, err := cmdutil.GetPrinter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	store, err := cmdutil.OpenJournal(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if limit == 0 {
		limit = cfg.Journal.HistoryLimit
	}
	ctx := cmd.Context()
	entries, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if total, err := store.Count(ctx); err == nil {
		logger.DebugCtx(ctx, "journal read", logger.Count(len(entries)), logger.Nodes(total))
	}

	if entries == nil {
		entries = []*journal.Entry{}
	}
	list := EntryList{Entries: entries, now: time.Now()}
	return cmdutil.PrintOutput(printer, list, len(entries) == 0, "No removals recorded.")
}
