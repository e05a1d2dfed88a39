package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "upper case", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: " table ", want: FormatTable},
		{name: "unknown", input: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type layerRow struct {
	ID   string `json:"id" yaml:"id"`
	Refs int    `json:"refs" yaml:"refs"`
}

type layerRows []layerRow

func (r layerRows) Headers() []string { return []string{"ID", "Refs"} }

func (r layerRows) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, l := range r {
		out = append(out, []string{l.ID, "1"})
	}
	return out
}

func TestPrinterPrint(t *testing.T) {
	rows := layerRows{{ID: "Overlay2:abc", Refs: 1}}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(rows))
		assert.Contains(t, buf.String(), "REFS")
		assert.Contains(t, buf.String(), "Overlay2:abc")
	})

	t.Run("table falls back to json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(layerRow{ID: "x"}))
		assert.Contains(t, buf.String(), `"id": "x"`)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(rows))
		assert.Contains(t, buf.String(), `"id": "Overlay2:abc"`)
		assert.Contains(t, buf.String(), `"refs": 1`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(rows))
		assert.Contains(t, buf.String(), "- id: Overlay2:abc")
		assert.Contains(t, buf.String(), "  refs: 1")
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, NewPrinter(&buf, Format("xml"), false).Print(rows))
	})
}

func TestPrinterStatusLines(t *testing.T) {
	for _, color := range []bool{false, true} {
		var buf bytes.Buffer
		p := NewPrinter(&buf, FormatTable, color)

		p.Success("removed 3 nodes")
		p.Warning("2 warnings")
		p.Error("cascade stopped")

		out := buf.String()
		assert.Contains(t, out, "removed 3 nodes")
		assert.Contains(t, out, "2 warnings")
		assert.Contains(t, out, "cascade stopped")
	}
}

func TestPrinterAccessors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON, true)

	assert.Equal(t, FormatJSON, p.Format())
	assert.Same(t, &buf, p.Writer())
	assert.True(t, p.ColorEnabled())
	assert.False(t, p.IsTable())

	p.Printf("%d nodes\n", 4)
	p.Println("done")
	assert.Equal(t, "4 nodes\ndone\n", buf.String())
}
