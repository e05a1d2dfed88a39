package config

import (
	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/internal/cli/output"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging the file, environment variables,
flags and defaults. Table output is rendered as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig()
			if err != nil {
				return err
			}
			p, err := cmdutil.GetPrinter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if p.IsTable() {
				return output.PrintYAML(p.Writer(), cfg)
			}
			return p.Print(cfg)
		},
	}
}
