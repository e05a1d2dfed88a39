package commands

import (
	"fmt"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/pkg/session"
	"github.com/spf13/cobra"
)

type rmOptions struct {
	recursive bool
	dryRun    bool
	force     bool
}

func newRmCmd() *cobra.Command {
	opts := &rmOptions{}

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a node",
		Long: `Remove one node from disk and from the graph.

Without --recursive only the node itself is removed. With --recursive the
dependencies it leaves unreferenced are removed too, depth first; a
dependency still used by anything else is kept.

The removal plan is always printed first and must be confirmed unless
--force is given. --dry-run stops after the plan and opens the storage
root read-only.

Examples:
  # Preview removing a container and everything only it uses
  layerscope rm Container:4f1c... -r --dry-run

  # Remove an unused overlay2 layer without prompting
  layerscope rm Overlay2:9a7e... --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Also remove dependencies left unreferenced")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the plan and stop")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}

func runRm(cmd *cobra.Command, id string, opts *rmOptions) error {
	env, err := cmdutil.Setup(cmd, cmdutil.SetupOptions{
		Command:  "rm",
		ReadOnly: opts.dryRun,
		Strict:   true,
		Journal:  !opts.dryRun,
	})
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	return removal{
		preview: session.PreviewDelete{ID: id, Recursive: opts.recursive},
		execute: func() session.Command {
			return session.Delete{ID: id, Recursive: opts.recursive, Confirmed: true}
		},
		confirm: func(plan *session.PlanView) (bool, error) {
			label := fmt.Sprintf("Remove %s (%s)?", cmdutil.Plural(len(plan.Items), "node"), plan.Size)
			return cmdutil.Confirm(label, opts.force)
		},
		dryRun: opts.dryRun,
		force:  opts.force,
	}.run(env)
}
