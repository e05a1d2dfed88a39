// Package scan builds the storage graph from a container engine's data
// root. Each scanner reads one area of the tree and registers nodes and
// edges on a shared graph.Builder; later scanners link to nodes created by
// earlier ones, and anything referenced but never found becomes a
// placeholder.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/layerscope/internal/logger"
	"github.com/marmos91/layerscope/pkg/graph"
	"github.com/marmos91/layerscope/pkg/metrics"
	"github.com/spf13/afero"
)

// Options configures Build.
type Options struct {
	// Metrics receives per-scanner observations. Nil disables metrics.
	Metrics metrics.ScanMetrics
}

// Warning is a recoverable problem found while scanning: the affected node
// was still created, without the edges the broken file would have provided.
type Warning struct {
	Scanner string `json:"scanner" yaml:"scanner"`
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

// ScannerStat describes one scanner run.
type ScannerStat struct {
	Name     string        `json:"name" yaml:"name"`
	Nodes    int           `json:"nodes" yaml:"nodes"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Err      error         `json:"-" yaml:"-"`
}

// Report is the outcome of a scan.
type Report struct {
	Graph    *graph.Graph  `json:"-" yaml:"-"`
	Scanners []ScannerStat `json:"scanners" yaml:"scanners"`
	Warnings []Warning     `json:"warnings" yaml:"warnings"`
}

// state is shared by the scanners of one Build.
type state struct {
	fs       afero.Fs
	b        *graph.Builder
	warnings []Warning
}

func (s *state) warn(ctx context.Context, scanner, path string, err error) {
	logger.WarnCtx(ctx, "skipping unreadable entry", logger.Scanner(scanner), logger.Path(path), logger.Err(err))
	s.warnings = append(s.warnings, Warning{Scanner: scanner, Path: path, Message: err.Error()})
}

type scanner struct {
	name string
	run  func(context.Context, *state) error
}

// scanners run in dependency order: overlay layers, image metadata, then
// containers and their mounts.
var scanners = []scanner{
	{name: "overlay", run: scanOverlay},
	{name: "image", run: scanImages},
	{name: "container", run: scanContainers},
}

// Build scans fsys and returns the storage graph.
//
// A scanner that hits an I/O error stops, but the remaining scanners still
// run; the returned error joins every scanner failure and the partial graph
// is returned alongside it. Missing directories are not errors.
func Build(ctx context.Context, fsys afero.Fs, opts Options) (*graph.Graph, error) {
	report, err := Run(ctx, fsys, opts)
	return report.Graph, err
}

// Run is Build with per-scanner statistics and warnings.
func Run(ctx context.Context, fsys afero.Fs, opts Options) (*Report, error) {
	st := &state{fs: fsys, b: graph.NewBuilder(fsys)}
	report := &Report{}
	start := time.Now()

	var errs []error
	for _, sc := range scanners {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		before := st.b.Graph().Len()
		t0 := time.Now()
		err := sc.run(ctx, st)
		stat := ScannerStat{
			Name:     sc.name,
			Nodes:    st.b.Graph().Len() - before,
			Duration: time.Since(t0),
			Err:      err,
		}
		report.Scanners = append(report.Scanners, stat)
		metrics.ObserveScanner(opts.Metrics, sc.name, stat.Nodes, stat.Duration, err)

		if err != nil {
			logger.ErrorCtx(ctx, "scanner failed", logger.Scanner(sc.name), logger.Err(err))
			errs = append(errs, fmt.Errorf("%s scanner: %w", sc.name, err))
			continue
		}
		logger.DebugCtx(ctx, "scanner finished", logger.Scanner(sc.name),
			logger.Nodes(stat.Nodes), logger.DurationMs(float64(stat.Duration.Microseconds())/1000.0))
	}

	g := st.b.Finish()
	report.Graph = g
	report.Warnings = st.warnings

	for _, s := range g.Summarize() {
		metrics.RecordKind(opts.Metrics, s.Kind.String(), s.Total, s.Dangling, s.Unreachable)
	}
	logger.InfoCtx(ctx, "scan complete",
		logger.Nodes(g.Len()),
		logger.Count(len(st.warnings)),
		logger.DurationMs(logger.Duration(start)))

	return report, errors.Join(errs...)
}
