// Package cmdutil holds the state and helpers shared by layerscope commands.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/marmos91/layerscope/internal/cli/output"
	"github.com/marmos91/layerscope/internal/cli/prompt"
	"github.com/marmos91/layerscope/internal/logger"
	"github.com/marmos91/layerscope/pkg/config"
	"github.com/marmos91/layerscope/pkg/journal"
	"github.com/marmos91/layerscope/pkg/metrics"
	promMetrics "github.com/marmos91/layerscope/pkg/metrics/prometheus"
	"github.com/marmos91/layerscope/pkg/scan"
	"github.com/marmos91/layerscope/pkg/session"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// GlobalFlags are the persistent flags of the root command.
type GlobalFlags struct {
	ConfigFile  string
	BaseDir     string
	Output      string
	NoColor     bool
	Verbose     bool
	MetricsFile string
}

// Flags is synced from the root command before any subcommand runs.
var Flags = &GlobalFlags{}

// ErrPartialScan is returned by destructive commands when the scan did not
// complete: a missing scanner would make live nodes look dangling.
var ErrPartialScan = errors.New("scan incomplete, refusing to remove anything")

// LoadConfig loads the configuration file and applies flag overrides.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if Flags.BaseDir != "" {
		cfg.Storage.BaseDir = Flags.BaseDir
	}
	if Flags.Verbose {
		cfg.Logging.Level = "DEBUG"
	}
	if Flags.MetricsFile != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.File = Flags.MetricsFile
	}
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// GetPrinter creates a printer for w from the global flags.
func GetPrinter(w io.Writer) (*output.Printer, error) {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(w, format, colorEnabled(w)), nil
}

func colorEnabled(w io.Writer) bool {
	if Flags.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// PrintOutput prints data, or emptyMsg in table format when isEmpty.
func PrintOutput(p *output.Printer, data any, isEmpty bool, emptyMsg string) error {
	if isEmpty && p.IsTable() {
		p.Println(emptyMsg)
		return nil
	}
	return p.Print(data)
}

// EmptyOr returns fallback when value is empty.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Confirm asks before a destructive step unless force is set. Without a
// terminal on stdin there is nobody to ask, so --force is required.
func Confirm(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if err := RequireTerminal(); err != nil {
		return false, err
	}
	ok, err := prompt.ConfirmWithForce(label, false)
	if prompt.IsAborted(err) {
		return false, nil
	}
	return ok, err
}

// ConfirmDanger is Confirm for large removals: the user must type word.
func ConfirmDanger(label, word string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if err := RequireTerminal(); err != nil {
		return false, err
	}
	ok, err := prompt.ConfirmDanger(label, word)
	if prompt.IsAborted(err) {
		return false, nil
	}
	return ok, err
}

// RequireTerminal fails unless stdin is an interactive terminal.
func RequireTerminal() error {
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return errors.New("stdin is not a terminal, use --force to confirm")
	}
	return nil
}

// SetupOptions selects what Setup prepares.
type SetupOptions struct {
	// Command names the run in logs and journal entries.
	Command string

	// ReadOnly opens the storage root read-only.
	ReadOnly bool

	// Strict fails when any scanner failed.
	Strict bool

	// Journal opens the journal when it is enabled in the configuration.
	Journal bool
}

// Env is everything a command needs after setup. Close must be called.
type Env struct {
	Ctx     context.Context
	Config  *config.Config
	Printer *output.Printer
	// Notices writes to stderr in the same format as Printer, for output
	// that must not mix with a structured result on stdout.
	Notices *output.Printer
	RunID   string
	Fs      afero.Fs
	Report  *scan.Report
	Session *session.Session
	Journal *journal.Store
}

// Setup loads configuration, initializes logging and metrics, opens the
// journal and scans the storage root.
func Setup(cmd *cobra.Command, opts SetupOptions) (*Env, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	printer, err := GetPrinter(cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	notices, err := GetPrinter(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	runID := uuid.NewString()
	lc := logger.NewLogContext(runID, opts.Command).WithBaseDir(cfg.Storage.BaseDir)
	env := &Env{
		Ctx:     logger.WithContext(cmd.Context(), lc),
		Config:  cfg,
		Printer: printer,
		Notices: notices,
		RunID:   runID,
	}
	fail := func(err error) (*Env, error) {
		_ = env.Close()
		return nil, err
	}

	if opts.Journal && cfg.Journal.Enabled {
		if env.Journal, err = OpenJournal(cfg); err != nil {
			return fail(err)
		}
	}

	if env.Fs, err = scan.HostFs(cfg.Storage.BaseDir, opts.ReadOnly || cfg.Storage.ReadOnly); err != nil {
		return fail(err)
	}

	scanCtx, cancel := context.WithTimeout(env.Ctx, cfg.Storage.ScanTimeout)
	defer cancel()
	report, err := scan.Run(scanCtx, env.Fs, scan.Options{Metrics: promMetrics.NewScanMetrics()})
	if err != nil {
		if opts.Strict || scanCtx.Err() != nil {
			return fail(fmt.Errorf("%w: %w", ErrPartialScan, err))
		}
		cmd.PrintErrf("Warning: scan incomplete, results may be partial: %v\n", err)
	}
	env.Report = report

	sopts := session.Options{
		RunID:   runID,
		BaseDir: cfg.Storage.BaseDir,
		Metrics: promMetrics.NewDeleteMetrics(),
	}
	if env.Journal != nil {
		sopts.Journal = env.Journal
	}
	env.Session = session.New(report.Graph, sopts)
	return env, nil
}

// OpenJournal opens the journal described by cfg.
func OpenJournal(cfg *config.Config) (*journal.Store, error) {
	return journal.Open(journal.Config{
		Path:             cfg.Journal.Path,
		SyncWrites:       cfg.Journal.SyncWrites,
		ValueLogFileSize: cfg.Journal.ValueLogFileSize.Int64(),
	}, promMetrics.NewJournalMetrics())
}

// Close writes the metrics textfile and closes the journal.
func (e *Env) Close() error {
	var errs []error
	if e.Journal != nil {
		if err := e.Journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
		e.Journal = nil
	}
	if e.Config.Metrics.Enabled && metrics.IsEnabled() {
		if err := metrics.WriteTextfile(e.Config.Metrics.File); err != nil {
			errs = append(errs, err)
		}
		metrics.Disable()
	}
	return errors.Join(errs...)
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// Plural returns word with an "s" unless n is one.
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// JoinOr joins values with ", " or returns fallback when there are none.
func JoinOr(values []string, fallback string) string {
	return EmptyOr(strings.Join(values, ", "), fallback)
}
