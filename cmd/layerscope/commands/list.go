package commands

import (
	"errors"
	"fmt"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/internal/cli/prompt"
	"github.com/marmos91/layerscope/pkg/graph"
	"github.com/marmos91/layerscope/pkg/session"
	"github.com/spf13/cobra"
)

type listOptions struct {
	dangling    bool
	unreachable bool
	interactive bool
}

func newListCmd() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list [kind]",
		Short: "List nodes by kind",
		Long: `List the nodes of one kind. Without a kind, list the browsing
categories with their node counts.

Kinds: ImageRepo, Container, ImageContent, ImageLayer, DiffMetadata,
Overlay2, Mount, Placeholder (case-insensitive).

Examples:
  # Show categories and counts
  layerscope list

  # Overlay2 layers nothing references
  layerscope list overlay2 --dangling

  # Everything no tag or container can reach
  layerscope list --unreachable

  # Pick the kind from a menu
  layerscope list -i`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dangling, "dangling", false, "Only nodes nothing references")
	cmd.Flags().BoolVar(&opts.unreachable, "unreachable", false, "Only nodes no tag or container can reach")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Choose the kind interactively")
	cmd.MarkFlagsMutuallyExclusive("dangling", "unreachable")
	return cmd
}

func runList(cmd *cobra.Command, args []string, opts *listOptions) error {
	var kind graph.Kind
	if len(args) == 1 {
		k, err := graph.ParseKind(args[0])
		if err != nil {
			return err
		}
		kind = k
	}

	env, err := cmdutil.Setup(cmd, cmdutil.SetupOptions{Command: "list", ReadOnly: true})
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	if kind == "" && opts.interactive {
		kind, err = chooseKind(env)
		if err != nil {
			return err
		}
	}

	if kind == "" && !opts.dangling && !opts.unreachable {
		view, err := env.Session.Execute(env.Ctx, session.ListCategories{})
		if err != nil {
			return err
		}
		cats := view.(*session.CategoriesView)
		return render(env.Printer, cats, CategoryList{cats})
	}

	view, err := env.Session.Execute(env.Ctx, session.SelectCategory{
		Kind:        kind,
		Dangling:    opts.dangling,
		Unreachable: opts.unreachable,
	})
	if err != nil {
		return err
	}
	list := view.(*session.ListView)
	if len(list.Items) == 0 && env.Printer.IsTable() {
		env.Printer.Println("No nodes found.")
		return nil
	}
	return render(env.Printer, list, ItemList(list.Items))
}

// chooseKind offers every non-empty kind in a menu.
func chooseKind(env *cmdutil.Env) (graph.Kind, error) {
	view, err := env.Session.Execute(env.Ctx, session.Summarize{})
	if err != nil {
		return "", err
	}

	var options []prompt.SelectOption
	for _, s := range view.(*session.SummaryView).Kinds {
		options = append(options, prompt.SelectOption{
			Label:       fmt.Sprintf("%s (%d)", s.Kind, s.Total),
			Value:       s.Kind.String(),
			Description: fmt.Sprintf("%d dangling, %d unreachable", s.Dangling, s.Unreachable),
		})
	}
	if len(options) == 0 {
		return "", errors.New("the storage root is empty")
	}

	value, err := prompt.Select("Node kind", options)
	if err != nil {
		return "", err
	}
	return graph.ParseKind(value)
}
