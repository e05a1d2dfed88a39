package commands

import (
	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/internal/cli/output"
	"github.com/marmos91/layerscope/pkg/session"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one node with its dependencies and referrers",
		Long: `Show one node: its paths, attributes and size on disk, the nodes it
depends on and the nodes that depend on it.

Examples:
  layerscope show Container:4f1c...
  layerscope show ImageRepo:alpine:3.20 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.Setup(cmd, cmdutil.SetupOptions{Command: "show", ReadOnly: true})
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	view, err := env.Session.Execute(env.Ctx, session.ViewNode{ID: args[0]})
	if err != nil {
		return err
	}
	node := view.(*session.NodeView)

	p := env.Printer
	if !p.IsTable() {
		return p.Print(node)
	}

	if err := output.SimpleTable(p.Writer(), nodeDetails(node)); err != nil {
		return err
	}
	for _, section := range []struct {
		title string
		items []session.Item
	}{
		{"Depends on", node.Deps},
		{"Referenced by", node.RDeps},
	} {
		p.Println()
		if len(section.items) == 0 {
			p.Printf("%s: nothing\n", section.title)
			continue
		}
		p.Printf("%s:\n", section.title)
		if err := output.PrintTable(p.Writer(), ItemList(section.items)); err != nil {
			return err
		}
	}
	return nil
}
