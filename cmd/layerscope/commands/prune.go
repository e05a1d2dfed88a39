package commands

import (
	"fmt"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/pkg/graph"
	"github.com/marmos91/layerscope/pkg/session"
	"github.com/spf13/cobra"
)

type pruneOptions struct {
	kinds  []string
	dryRun bool
	force  bool
}

func newPruneCmd() *cobra.Command {
	opts := &pruneOptions{}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove every dangling node",
		Long: `Recursively remove every dangling node: nodes of a removable kind that
nothing references, together with the dependencies they leave
unreferenced. Image tags and containers are never pruned.

Without --force the plan is printed and you must type 'prune' to
proceed. The removal stops at the first node that cannot be deleted.

Examples:
  # See what a prune would free
  layerscope prune --dry-run

  # Only orphaned overlay2 layers and mounts
  layerscope prune --kind overlay2 --kind mount --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.kinds, "kind", "k", nil, "Restrict to these kinds (repeatable)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the plan and stop")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}

func runPrune(cmd *cobra.Command, opts *pruneOptions) error {
	kinds := make([]graph.Kind, 0, len(opts.kinds))
	for _, s := range opts.kinds {
		k, err := graph.ParseKind(s)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}

	env, err := cmdutil.Setup(cmd, cmdutil.SetupOptions{
		Command:  "prune",
		ReadOnly: opts.dryRun,
		Strict:   true,
		Journal:  !opts.dryRun,
	})
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	return removal{
		preview: session.PreviewPrune{Kinds: kinds},
		execute: func() session.Command {
			return session.Prune{Kinds: kinds, Confirmed: true}
		},
		confirm: func(plan *session.PlanView) (bool, error) {
			label := fmt.Sprintf("Prune %s (%s)", cmdutil.Plural(len(plan.Items), "node"), plan.Size)
			return cmdutil.ConfirmDanger(label, "prune", opts.force)
		},
		dryRun: opts.dryRun,
		force:  opts.force,
	}.run(env)
}
