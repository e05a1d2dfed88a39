// Package output renders command results as tables, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Format is an output format selected with --output.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses s into a Format. The empty string selects a table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}

// Printer writes results and status lines to one writer.
type Printer struct {
	out    io.Writer
	format Format
	color  bool

	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
}

// NewPrinter creates a Printer. Status lines are colored only when color
// is set and out supports it.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:     out,
		format:  format,
		color:   color,
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

func (p *Printer) Format() Format {
	return p.format
}

func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) ColorEnabled() bool {
	return p.color
}

// IsTable reports whether results are rendered as tables, i.e. whether
// human-oriented status lines belong in the output.
func (p *Printer) IsTable() bool {
	return p.format == FormatTable
}

// Print renders data in the configured format. Table output requires a
// TableRenderer; anything else falls back to JSON.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Success(msg string) {
	p.status(p.success, msg)
}

func (p *Printer) Error(msg string) {
	p.status(p.failure, msg)
}

func (p *Printer) Warning(msg string) {
	p.status(p.warning, msg)
}

func (p *Printer) status(style lipgloss.Style, msg string) {
	if p.color {
		msg = style.Render(msg)
	}
	_, _ = fmt.Fprintln(p.out, msg)
}
