package tui

import (
	"context"
	"path"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marmos91/layerscope/pkg/graph"
	"github.com/marmos91/layerscope/pkg/session"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExecutor forwards to a session and remembers every command.
type recordingExecutor struct {
	s    *session.Session
	sent []session.Command
}

func (r *recordingExecutor) Execute(ctx context.Context, cmd session.Command) (session.View, error) {
	r.sent = append(r.sent, cmd)
	return r.s.Execute(ctx, cmd)
}

func (r *recordingExecutor) deletes() []session.Command {
	var out []session.Command
	for _, c := range r.sent {
		switch c.(type) {
		case session.Delete, session.Prune:
			out = append(out, c)
		}
	}
	return out
}

// browserGraph builds one tagged image used by a container, plus an orphan
// overlay chain O1 -> O2.
func browserGraph(t *testing.T, fsys afero.Fs) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(fsys)
	add := func(kind graph.Kind, key, dir string) string {
		require.NoError(t, fsys.MkdirAll(dir, 0o755))
		require.NoError(t, afero.WriteFile(fsys, path.Join(dir, "data"), make([]byte, 64), 0o644))
		return b.Add(kind, key, []string{dir}, nil)
	}

	l3 := add(graph.KindOverlay2, "L3", "overlay2/L3")
	o1 := add(graph.KindOverlay2, "O1", "overlay2/O1")
	o2 := add(graph.KindOverlay2, "O2", "overlay2/O2")
	b.Link(o1, o2)

	d1 := add(graph.KindImageLayer, "D1", "layerdb/D1")
	b.Link(d1, l3)
	i1 := add(graph.KindImageContent, "I1", "imagedb/I1")
	b.Link(i1, d1)
	repo := b.Add(graph.KindImageRepo, "app:1", nil, map[string]string{graph.AttrName: "app:1"})
	b.Link(repo, i1)
	c1 := add(graph.KindContainer, "C1", "containers/C1")
	b.Link(c1, i1)

	return b.Finish()
}

func newTestModel(t *testing.T) (Model, *recordingExecutor, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	exec := &recordingExecutor{s: session.New(browserGraph(t, fsys), session.Options{RunID: "run-1"})}
	return NewModel(context.Background(), exec), exec, fsys
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

// overlayRow is the position of the dangling Overlay2 row on the category
// screen: ImageRepo, Container, then the dangling kinds.
const overlayRow = 5

func TestNewModel_LoadsCategories(t *testing.T) {
	m, _, _ := newTestModel(t)

	require.NoError(t, m.err)
	assert.Equal(t, screenCategories, m.screen)
	require.Len(t, m.categories, 8)

	row := m.categories[overlayRow]
	assert.Equal(t, graph.KindOverlay2, row.kind)
	assert.True(t, row.dangling)
	assert.Equal(t, 1, row.count)

	assert.Equal(t, graph.KindImageRepo, m.categories[0].kind)
	assert.Equal(t, 1, m.categories[0].count)
}

func TestModel_CursorStaysInBounds(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, "up", "up")
	assert.Equal(t, 0, m.catCursor)

	m = press(t, m, "G")
	assert.Equal(t, len(m.categories)-1, m.catCursor)

	m = press(t, m, "down")
	assert.Equal(t, len(m.categories)-1, m.catCursor)

	m = press(t, m, "g")
	assert.Equal(t, 0, m.catCursor)
}

func TestModel_Navigation(t *testing.T) {
	m, _, _ := newTestModel(t)

	for i := 0; i < overlayRow; i++ {
		m = press(t, m, "down")
	}
	m = press(t, m, "enter")
	require.Equal(t, screenList, m.screen)
	require.NotNil(t, m.list)
	assert.True(t, m.list.Dangling)
	require.Len(t, m.list.Items, 1)
	assert.Equal(t, "Overlay2:O1", m.list.Items[0].ID)

	m = press(t, m, "enter")
	require.Equal(t, screenNode, m.screen)
	assert.Equal(t, "Overlay2:O1", m.node.Node.ID)
	require.Len(t, m.node.Deps, 1)

	// Follow the dependency link and come back.
	m = press(t, m, "enter")
	assert.Equal(t, "Overlay2:O2", m.node.Node.ID)
	assert.Equal(t, []string{"Overlay2:O1"}, m.trail)

	m = press(t, m, "esc")
	assert.Equal(t, screenNode, m.screen)
	assert.Equal(t, "Overlay2:O1", m.node.Node.ID)

	m = press(t, m, "esc")
	assert.Equal(t, screenList, m.screen)

	m = press(t, m, "esc")
	assert.Equal(t, screenCategories, m.screen)
	assert.Equal(t, overlayRow, m.catCursor)
}

func TestModel_DeleteRequiresConfirmation(t *testing.T) {
	m, exec, fsys := newTestModel(t)

	for i := 0; i < overlayRow; i++ {
		m = press(t, m, "down")
	}
	m = press(t, m, "enter", "D")
	require.Equal(t, screenConfirm, m.screen)
	require.NotNil(t, m.confirm)
	assert.True(t, m.confirm.plan.Recursive)
	assert.Len(t, m.confirm.plan.Items, 2)
	assert.Contains(t, m.View(), "Recursively remove 2 nodes")

	m = press(t, m, "n")
	assert.Equal(t, screenList, m.screen)
	assert.Nil(t, m.confirm)
	assert.Equal(t, "Aborted, nothing was removed.", m.status)
	assert.Empty(t, exec.deletes())

	exists, err := afero.DirExists(fsys, "overlay2/O1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestModel_RecursiveDelete(t *testing.T) {
	m, exec, fsys := newTestModel(t)

	for i := 0; i < overlayRow; i++ {
		m = press(t, m, "down")
	}
	m = press(t, m, "enter", "D", "y")

	require.NoError(t, m.err)
	assert.Equal(t, screenList, m.screen)
	require.Len(t, exec.deletes(), 1)
	assert.Equal(t, session.Delete{ID: "Overlay2:O1", Recursive: true, Confirmed: true}, exec.deletes()[0])

	require.Len(t, m.Removals(), 1)
	assert.Len(t, m.Removals()[0].Removed, 2)
	assert.Contains(t, m.status, "Removed 2 nodes")

	for _, dir := range []string{"overlay2/O1", "overlay2/O2"} {
		exists, err := afero.DirExists(fsys, dir)
		require.NoError(t, err)
		assert.False(t, exists, dir)
	}

	// Views were reloaded from the mutated graph.
	assert.Empty(t, m.list.Items)
	assert.Equal(t, 0, m.categories[overlayRow].count)
}

func TestModel_DeleteFromNodeReturnsToList(t *testing.T) {
	m, _, _ := newTestModel(t)

	// Container:C1 is the only container.
	m = press(t, m, "down", "enter", "enter")
	require.Equal(t, screenNode, m.screen)
	require.Equal(t, "Container:C1", m.node.Node.ID)

	m = press(t, m, "d")
	require.Equal(t, screenConfirm, m.screen)
	assert.False(t, m.confirm.plan.Recursive)
	assert.Len(t, m.confirm.plan.Items, 1)

	m = press(t, m, "y")
	require.NoError(t, m.err)
	assert.Equal(t, screenList, m.screen)
	assert.Nil(t, m.node)
	assert.Empty(t, m.list.Items)
	assert.Equal(t, 0, m.categories[1].count)
}

func TestModel_Prune(t *testing.T) {
	t.Run("root kinds cannot be pruned", func(t *testing.T) {
		m, exec, _ := newTestModel(t)
		m = press(t, m, "p")
		assert.Equal(t, screenCategories, m.screen)
		assert.Contains(t, m.status, "cannot be pruned")
		assert.Empty(t, exec.deletes())
	})

	t.Run("empty plan", func(t *testing.T) {
		m, _, _ := newTestModel(t)
		m = press(t, m, "down", "down", "p")
		assert.Equal(t, screenCategories, m.screen)
		assert.Equal(t, "Nothing to remove.", m.status)
	})

	t.Run("dangling kind", func(t *testing.T) {
		m, exec, _ := newTestModel(t)
		for i := 0; i < overlayRow; i++ {
			m = press(t, m, "down")
		}
		m = press(t, m, "p")
		require.Equal(t, screenConfirm, m.screen)
		assert.Len(t, m.confirm.plan.Items, 2)

		m = press(t, m, "y")
		require.NoError(t, m.err)
		assert.Equal(t, screenCategories, m.screen)
		require.Len(t, exec.deletes(), 1)
		assert.Equal(t, session.Prune{Kinds: []graph.Kind{graph.KindOverlay2}, Confirmed: true}, exec.deletes()[0])
		assert.Equal(t, 0, m.categories[overlayRow].count)
	})
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			m, _, _ := newTestModel(t)
			next, cmd := m.Update(keyMsg(key))
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, next.View())
		})
	}
}

func TestModel_View(t *testing.T) {
	m, _, _ := newTestModel(t)

	assert.Contains(t, m.View(), "categories")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	require.True(t, m.ready)
	assert.Equal(t, 25, m.viewport.Height)

	view := m.View()
	assert.Contains(t, view, "Top level")
	assert.Contains(t, view, "Dangling")
	assert.Contains(t, view, "Overlay2")
	assert.Contains(t, view, "q quit")
}
