package config

import (
	"fmt"
	"os"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/internal/cli/output"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Check the configuration file for syntax errors, missing required
fields and invalid values, and report settings that will not work on
this host.`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("configuration file not found: %s\n\nCreate it with:\n  layerscope config init", path)
	}

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	var warnings []string
	if info, err := os.Stat(cfg.Storage.BaseDir); err != nil {
		warnings = append(warnings, fmt.Sprintf("storage.base_dir is not accessible: %v", err))
	} else if !info.IsDir() {
		warnings = append(warnings, "storage.base_dir is not a directory")
	}
	if !cfg.Journal.Enabled {
		warnings = append(warnings, "journal disabled: removals will not be recorded")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", path)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	return output.SimpleTable(out, [][2]string{
		{"Storage root", cfg.Storage.BaseDir},
		{"Read only", fmt.Sprint(cfg.Storage.ReadOnly)},
		{"Journal", cmdutil.EmptyOr(enabledPath(cfg.Journal.Enabled, cfg.Journal.Path), "disabled")},
		{"Metrics", cmdutil.EmptyOr(enabledPath(cfg.Metrics.Enabled, cfg.Metrics.File), "disabled")},
		{"Log level", cfg.Logging.Level},
	})
}

func enabledPath(enabled bool, path string) string {
	if !enabled {
		return ""
	}
	return path
}
