package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineRoot lays out an overlay2 storage root on disk:
//
//	L1 (orphan), L2 on L3, L3
//
// L1 and L2 are dangling; L3 is only used by L2.
func engineRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	layer := func(id, link, lower string) {
		dir := filepath.Join(root, "overlay2", id)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "diff"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "diff", "file"), []byte("layer "+id), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "link"), []byte(link+"\n"), 0o644))
		if lower != "" {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "lower"), []byte(lower), 0o644))
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "overlay2", "l"), 0o755))
	layer("L1", "AAA", "")
	layer("L2", "BBB", "l/CCC")
	layer("L3", "CCC", "")
	return root
}

// isolate keeps the host's configuration and data out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	t.Setenv("LAYERSCOPE_LOGGING_LEVEL", "error")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func layerExists(root, id string) bool {
	_, err := os.Stat(filepath.Join(root, "overlay2", id))
	return err == nil
}

func TestVersionCmd(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Commit)
}

func TestScanCmd(t *testing.T) {
	isolate(t)
	root := engineRoot(t)

	t.Run("json", func(t *testing.T) {
		out, err := runCLI(t, "-b", root, "-o", "json", "scan")
		require.NoError(t, err)

		result := decode[struct {
			BaseDir string `json:"base_dir"`
			Summary struct {
				Nodes int `json:"nodes"`
				Roots int `json:"roots"`
				Kinds []struct {
					Kind     string `json:"kind"`
					Total    int    `json:"total"`
					Dangling int    `json:"dangling"`
				} `json:"kinds"`
			} `json:"summary"`
			Scanners []struct {
				Name string `json:"name"`
			} `json:"scanners"`
		}](t, out)

		assert.Equal(t, root, result.BaseDir)
		assert.Equal(t, 3, result.Summary.Nodes)
		assert.Zero(t, result.Summary.Roots)
		assert.Len(t, result.Scanners, 3)
		for _, k := range result.Summary.Kinds {
			if k.Kind == "Overlay2" {
				assert.Equal(t, 3, k.Total)
				assert.Equal(t, 2, k.Dangling)
			}
		}
	})

	t.Run("table", func(t *testing.T) {
		out, err := runCLI(t, "-b", root, "scan")
		require.NoError(t, err)
		assert.Contains(t, out, "DANGLING")
		assert.Contains(t, out, "Overlay2")
		assert.Contains(t, out, "3 nodes, 0 roots")
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := runCLI(t, "-b", filepath.Join(root, "missing"), "scan")
		require.Error(t, err)
	})
}

func TestListCmd(t *testing.T) {
	isolate(t)
	root := engineRoot(t)

	t.Run("categories", func(t *testing.T) {
		out, err := runCLI(t, "-b", root, "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Top level")
		assert.Contains(t, out, "Dangling")
	})

	t.Run("dangling kind", func(t *testing.T) {
		out, err := runCLI(t, "-b", root, "-o", "json", "list", "overlay2", "--dangling")
		require.NoError(t, err)

		view := decode[struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		}](t, out)
		var ids []string
		for _, it := range view.Items {
			ids = append(ids, it.ID)
		}
		assert.Equal(t, []string{"Overlay2:L1", "Overlay2:L2"}, ids)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := runCLI(t, "-b", root, "list", "bogus")
		require.Error(t, err)
	})

	t.Run("exclusive filters", func(t *testing.T) {
		_, err := runCLI(t, "-b", root, "list", "--dangling", "--unreachable")
		require.Error(t, err)
	})
}

func TestShowCmd(t *testing.T) {
	isolate(t)
	root := engineRoot(t)

	out, err := runCLI(t, "-b", root, "-o", "json", "show", "Overlay2:L2")
	require.NoError(t, err)
	view := decode[struct {
		Node struct {
			ID    string   `json:"id"`
			Deps  []string `json:"deps"`
			Attrs map[string]string
		} `json:"node"`
		Reachable bool `json:"reachable"`
	}](t, out)
	assert.Equal(t, "Overlay2:L2", view.Node.ID)
	assert.Equal(t, []string{"Overlay2:L3"}, view.Node.Deps)
	assert.False(t, view.Reachable)

	out, err = runCLI(t, "-b", root, "show", "Overlay2:L3")
	require.NoError(t, err)
	assert.Contains(t, out, "Referenced by:")
	assert.Contains(t, out, "Overlay2:L2")

	_, err = runCLI(t, "-b", root, "show", "Overlay2:nope")
	require.Error(t, err)
}

func TestRmCmd(t *testing.T) {
	isolate(t)

	t.Run("dry run", func(t *testing.T) {
		root := engineRoot(t)
		out, err := runCLI(t, "-b", root, "rm", "Overlay2:L2", "-r", "--dry-run")
		require.NoError(t, err)
		assert.Contains(t, out, "2 nodes would be removed")
		assert.True(t, layerExists(root, "L2"))
		assert.True(t, layerExists(root, "L3"))
	})

	t.Run("recursive", func(t *testing.T) {
		root := engineRoot(t)
		out, err := runCLI(t, "-b", root, "rm", "Overlay2:L2", "-r", "--force")
		require.NoError(t, err)
		assert.Contains(t, out, "Removed 2 nodes")
		assert.False(t, layerExists(root, "L2"))
		assert.False(t, layerExists(root, "L3"))
		assert.True(t, layerExists(root, "L1"))
	})

	t.Run("shared dependency is kept", func(t *testing.T) {
		root := engineRoot(t)
		_, err := runCLI(t, "-b", root, "rm", "Overlay2:L3", "--force")
		require.NoError(t, err)
		assert.False(t, layerExists(root, "L3"))
		assert.True(t, layerExists(root, "L2"))
	})

	t.Run("unknown node", func(t *testing.T) {
		root := engineRoot(t)
		_, err := runCLI(t, "-b", root, "rm", "Overlay2:nope", "--force")
		require.Error(t, err)
	})
}

func TestPruneAndHistory(t *testing.T) {
	isolate(t)
	root := engineRoot(t)
	t.Setenv("LAYERSCOPE_JOURNAL_ENABLED", "true")
	t.Setenv("LAYERSCOPE_JOURNAL_PATH", filepath.Join(t.TempDir(), "journal"))

	out, err := runCLI(t, "-b", root, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No removals recorded.")

	out, err = runCLI(t, "-b", root, "prune", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "3 nodes would be removed")
	assert.True(t, layerExists(root, "L1"))

	_, err = runCLI(t, "-b", root, "prune", "--kind", "container", "--force")
	require.Error(t, err, "root kinds cannot be pruned")

	out, err = runCLI(t, "-b", root, "prune", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 3 nodes")
	for _, id := range []string{"L1", "L2", "L3"} {
		assert.False(t, layerExists(root, id), id)
	}

	out, err = runCLI(t, "-b", root, "-o", "json", "history")
	require.NoError(t, err)
	history := decode[struct {
		Entries []struct {
			Command string   `json:"command"`
			Targets []string `json:"targets"`
			Removed []struct {
				ID string `json:"id"`
			} `json:"removed"`
		} `json:"entries"`
	}](t, out)
	require.Len(t, history.Entries, 1, "dry runs and refused prunes are not recorded")
	assert.Equal(t, "prune", history.Entries[0].Command)
	assert.Equal(t, []string{"Overlay2:L1", "Overlay2:L2"}, history.Entries[0].Targets)
	assert.Len(t, history.Entries[0].Removed, 3)
}

func TestHistoryCmd_JournalDisabled(t *testing.T) {
	isolate(t)

	_, err := runCLI(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal is disabled")
}

func TestMetricsFile(t *testing.T) {
	isolate(t)
	root := engineRoot(t)
	file := filepath.Join(t.TempDir(), "layerscope.prom")

	_, err := runCLI(t, "-b", root, "--metrics-file", file, "rm", "Overlay2:L1", "--force")
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "layerscope_scanner_runs_total")
	assert.Contains(t, string(data), "layerscope_removed_nodes_total")
}

func TestConfigCmds(t *testing.T) {
	isolate(t)
	root := engineRoot(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCLI(t, "--config", path, "config", "validate")
	require.Error(t, err)

	out, err := runCLI(t, "--config", path, "-b", root, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = runCLI(t, "--config", path, "config", "init")
	require.Error(t, err, "existing file is not overwritten without --force")

	out, err = runCLI(t, "--config", path, "-o", "json", "config", "show")
	require.NoError(t, err)
	cfg := decode[struct {
		Storage struct {
			BaseDir string `json:"base_dir"`
		} `json:"storage"`
	}](t, out)
	assert.Equal(t, root, cfg.Storage.BaseDir)

	out, err = runCLI(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "journal disabled")
}
