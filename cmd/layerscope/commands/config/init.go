package config

import (
	"fmt"
	"os"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/pkg/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
			}

			cfg := config.GetDefaultConfig()
			if cmdutil.Flags.BaseDir != "" {
				cfg.Storage.BaseDir = cmdutil.Flags.BaseDir
				config.ApplyDefaults(cfg)
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func configPath() string {
	if cmdutil.Flags.ConfigFile != "" {
		return cmdutil.Flags.ConfigFile
	}
	return config.GetDefaultConfigPath()
}
