package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/internal/bytesize"
	"github.com/marmos91/layerscope/internal/cli/output"
	"github.com/marmos91/layerscope/internal/cli/timeutil"
	"github.com/marmos91/layerscope/pkg/journal"
	"github.com/marmos91/layerscope/pkg/scan"
	"github.com/marmos91/layerscope/pkg/session"
)

// ScanResult is the output of the scan command.
type ScanResult struct {
	BaseDir  string               `json:"base_dir" yaml:"base_dir"`
	Summary  *session.SummaryView `json:"summary" yaml:"summary"`
	Scanners []scan.ScannerStat   `json:"scanners" yaml:"scanners"`
	Warnings []scan.Warning       `json:"warnings" yaml:"warnings"`
}

// Headers implements TableRenderer.
func (r ScanResult) Headers() []string {
	return []string{"KIND", "TOTAL", "DANGLING", "UNREACHABLE"}
}

// Rows implements TableRenderer.
func (r ScanResult) Rows() [][]string {
	rows := make([][]string, 0, len(r.Summary.Kinds)+1)
	var total, dangling, unreachable int
	for _, k := range r.Summary.Kinds {
		rows = append(rows, []string{k.Kind.String(), strconv.Itoa(k.Total), strconv.Itoa(k.Dangling), strconv.Itoa(k.Unreachable)})
		total += k.Total
		dangling += k.Dangling
		unreachable += k.Unreachable
	}
	rows = append(rows, []string{"all", strconv.Itoa(total), strconv.Itoa(dangling), strconv.Itoa(unreachable)})
	return rows
}

// WarningList renders scan warnings.
type WarningList []scan.Warning

func (wl WarningList) Headers() []string {
	return []string{"SCANNER", "PATH", "PROBLEM"}
}

func (wl WarningList) Rows() [][]string {
	rows := make([][]string, 0, len(wl))
	for _, w := range wl {
		rows = append(rows, []string{w.Scanner, w.Path, w.Message})
	}
	return rows
}

// CategoryList renders ListCategories.
type CategoryList struct {
	*session.CategoriesView
}

func (cl CategoryList) Headers() []string {
	return []string{"CATEGORY", "KIND", "COUNT"}
}

func (cl CategoryList) Rows() [][]string {
	var rows [][]string
	for _, c := range cl.Categories {
		for _, k := range c.Kinds {
			rows = append(rows, []string{c.Name, k.Kind.String(), strconv.Itoa(k.Count)})
		}
	}
	return rows
}

// ItemList renders node listings.
type ItemList []session.Item

func (il ItemList) Headers() []string {
	return []string{"ID", "LABEL", "REFS", "DEPS", "DANGLING"}
}

func (il ItemList) Rows() [][]string {
	rows := make([][]string, 0, len(il))
	for _, it := range il {
		rows = append(rows, []string{
			it.ID,
			cmdutil.EmptyOr(it.Label, "-"),
			strconv.Itoa(it.RefCount),
			strconv.Itoa(it.Deps),
			yesNo(it.Dangling),
		})
	}
	return rows
}

// nodeDetails is the key/value view of a single node.
func nodeDetails(v *session.NodeView) [][2]string {
	n := v.Node
	pairs := [][2]string{
		{"ID", n.ID},
		{"Kind", n.Kind.String()},
		{"Key", n.Key},
		{"Size", v.Size.String()},
		{"Reachable", yesNo(v.Reachable)},
		{"Dangling", yesNo(n.IsDangling())},
		{"Paths", cmdutil.JoinOr(n.Paths, "-")},
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, [2]string{k, n.Attrs[k]})
	}
	return pairs
}

// PlanTable renders a removal preview.
type PlanTable struct {
	*session.PlanView
}

func (p PlanTable) Headers() []string {
	return []string{"#", "ID", "KIND", "LABEL"}
}

func (p PlanTable) Rows() [][]string {
	rows := make([][]string, 0, len(p.Items))
	for i, it := range p.Items {
		rows = append(rows, []string{strconv.Itoa(i + 1), it.ID, it.Kind.String(), cmdutil.EmptyOr(it.Label, "-")})
	}
	return rows
}

// RemovalTable renders an executed removal.
type RemovalTable struct {
	*session.RemovalView
}

func (r RemovalTable) Headers() []string {
	return []string{"REMOVED", "KIND", "LABEL"}
}

func (r RemovalTable) Rows() [][]string {
	rows := make([][]string, 0, len(r.Removed))
	for _, it := range r.Removed {
		rows = append(rows, []string{it.ID, it.Kind.String(), cmdutil.EmptyOr(it.Label, "-")})
	}
	return rows
}

// EntryList renders journal entries.
type EntryList struct {
	Entries []*journal.Entry `json:"entries" yaml:"entries"`
	now     time.Time
}

func (el EntryList) Headers() []string {
	return []string{"TIME", "WHEN", "COMMAND", "STATUS", "TARGETS", "REMOVED", "SIZE"}
}

func (el EntryList) Rows() [][]string {
	rows := make([][]string, 0, len(el.Entries))
	for _, e := range el.Entries {
		var size int64
		for _, r := range e.Removed {
			size += r.Bytes
		}
		status := e.Status
		if e.Failed != "" {
			status = fmt.Sprintf("%s (at %s)", status, e.Failed)
		}
		rows = append(rows, []string{
			timeutil.FormatTime(e.Time),
			timeutil.Ago(e.Time, el.now),
			e.Command,
			status,
			targetsLabel(e.Targets),
			strconv.Itoa(len(e.Removed)),
			bytesize.ByteSize(size).String(),
		})
	}
	return rows
}

// targetsLabel keeps long prune target lists readable.
func targetsLabel(targets []string) string {
	const shown = 2
	if len(targets) <= shown {
		return cmdutil.JoinOr(targets, "-")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(targets[:shown], ", "), len(targets)-shown)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// render prints table in table format and data otherwise, so that JSON and
// YAML carry the view exactly as the session returned it.
func render(p *output.Printer, data any, table output.TableRenderer) error {
	if p.IsTable() {
		return output.PrintTable(p.Writer(), table)
	}
	return p.Print(data)
}
