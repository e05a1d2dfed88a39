// Package config implements the config subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// NewCmd builds the parent command for configuration management.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Long: `Create, inspect and validate the layerscope configuration file.

The file lives at $XDG_CONFIG_HOME/layerscope/config.yaml unless --config
is given. Every key can be overridden with a LAYERSCOPE_ environment
variable, e.g. LAYERSCOPE_STORAGE_BASE_DIR.

Examples:
  layerscope config init
  layerscope config show -o json
  layerscope config validate --config /etc/layerscope.yaml`,
	}
	cmd.AddCommand(newInitCmd(), newShowCmd(), newValidateCmd())
	return cmd
}
