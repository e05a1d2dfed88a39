package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/internal/tui"
	"github.com/spf13/cobra"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the storage graph interactively",
		Long: `Open a full-screen browser over the storage graph.

Pick a category and kind, inspect nodes and follow their dependencies and
referrers. Press d to remove the selected node, D to also remove what it
leaves unreferenced, and p on a dangling kind to prune it. Every removal
shows its plan and waits for y before touching the disk.

Removals executed while browsing are printed when the browser exits.`,
		Args: cobra.NoArgs,
		RunE: runBrowse,
	}
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	if err := cmdutil.RequireTerminal(); err != nil {
		return err
	}

	env, err := cmdutil.Setup(cmd, cmdutil.SetupOptions{
		Command: "browse",
		Strict:  true,
		Journal: true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	removals, err := tui.Run(env.Ctx, env.Session,
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return err
	}

	for _, r := range removals {
		if err := printRemoval(env.Printer, r); err != nil {
			return err
		}
	}
	return nil
}
