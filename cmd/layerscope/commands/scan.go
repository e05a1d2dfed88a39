package commands

import (
	"fmt"
	"time"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/internal/cli/output"
	"github.com/marmos91/layerscope/internal/cli/timeutil"
	"github.com/marmos91/layerscope/pkg/scan"
	"github.com/marmos91/layerscope/pkg/session"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the storage root and summarize it",
		Long: `Scan the storage root and print, per node kind, how many nodes exist,
how many are dangling (nothing references them) and how many cannot be
reached from any image tag or container.

Placeholder nodes are identifiers that something references but that do
not exist on disk.

Examples:
  # Summarize the default storage root
  layerscope scan

  # Summarize another root as JSON
  layerscope scan --base /srv/docker -o json`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.Setup(cmd, cmdutil.SetupOptions{Command: "scan", ReadOnly: true})
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	view, err := env.Session.Execute(env.Ctx, session.Summarize{})
	if err != nil {
		return err
	}

	result := ScanResult{
		BaseDir:  env.Config.Storage.BaseDir,
		Summary:  view.(*session.SummaryView),
		Scanners: env.Report.Scanners,
		Warnings: env.Report.Warnings,
	}
	if result.Warnings == nil {
		result.Warnings = []scan.Warning{}
	}

	p := env.Printer
	if !p.IsTable() {
		return p.Print(result)
	}

	if err := p.Print(result); err != nil {
		return err
	}
	var elapsed time.Duration
	for _, s := range result.Scanners {
		elapsed += s.Duration
	}
	p.Println()
	p.Printf("Scanned %s in %s: %s, %s.\n", result.BaseDir, timeutil.FormatDuration(elapsed),
		cmdutil.Plural(result.Summary.Nodes, "node"), cmdutil.Plural(result.Summary.Roots, "root"))
	if len(result.Warnings) > 0 {
		p.Warning(fmt.Sprintf("%s:", cmdutil.Plural(len(result.Warnings), "warning")))
		return output.PrintTable(p.Writer(), WarningList(result.Warnings))
	}
	return nil
}
