package graph

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_PlaceholderSharedOnce(t *testing.T) {
	b := NewBuilder(afero.NewMemMapFs())
	a := b.Add(KindImageLayer, "a", nil, nil)
	c := b.Add(KindImageLayer, "c", nil, nil)

	p1 := b.Resolve("Overlay2:missing")
	p2 := b.Resolve("Overlay2:missing")
	require.Equal(t, p1, p2)
	assert.Equal(t, "Placeholder:Overlay2:missing", p1)

	b.Link(a, p1)
	b.Link(c, p2)

	g := b.Finish()
	assert.Len(t, g.ByKind(KindPlaceholder), 1)
	assert.Equal(t, 2, g.RefCount(p1))
	require.NoError(t, g.CheckSymmetry())
}

func TestBuilder_ResolveExisting(t *testing.T) {
	b := NewBuilder(afero.NewMemMapFs())
	id := b.Add(KindOverlay2, "x", nil, nil)
	assert.Equal(t, id, b.Resolve(id))
	assert.False(t, b.Has("Placeholder:Overlay2:x"))
}

func TestBuilder_PlaceholderMergedIntoRealNode(t *testing.T) {
	b := NewBuilder(afero.NewMemMapFs())
	first := b.Add(KindOverlay2, "first", nil, nil)
	last := b.Add(KindOverlay2, "last", nil, nil)
	child := b.Add(KindOverlay2, "child", nil, nil)

	b.Link(child, first)
	b.Link(child, b.Resolve("Overlay2:parent"))
	b.Link(child, last)
	other := b.Add(KindImageLayer, "other", nil, nil)
	b.Link(other, b.Resolve("Overlay2:parent"))

	parent := b.Add(KindOverlay2, "parent", nil, nil)
	g := b.Finish()

	assert.False(t, g.Has("Placeholder:Overlay2:parent"))
	n, ok := g.Node(child)
	require.True(t, ok)
	assert.Equal(t, []string{first, parent, last}, n.Deps, "dependency order is preserved")
	assert.Equal(t, 2, g.RefCount(parent))
	require.NoError(t, g.CheckSymmetry())
}

func TestBuilder_MergeWithExistingEdge(t *testing.T) {
	b := NewBuilder(afero.NewMemMapFs())
	child := b.Add(KindContainer, "c", nil, nil)
	b.Link(child, b.Resolve("Mount:c"))

	mount := b.Add(KindMount, "c", nil, nil)
	b.Link(child, mount)
	g := b.Finish()

	n, _ := g.Node(child)
	assert.Equal(t, []string{mount}, n.Deps)
	assert.Equal(t, 1, g.RefCount(mount))
	require.NoError(t, g.CheckSymmetry())
}

func TestBuilder_LinkIgnoresDuplicates(t *testing.T) {
	b := NewBuilder(afero.NewMemMapFs())
	a := b.Add(KindMount, "a", nil, nil)
	o := b.Add(KindOverlay2, "o", nil, nil)
	b.Link(a, o)
	b.Link(a, o)
	g := b.Finish()
	assert.Equal(t, 1, g.RefCount(o))
}

func TestBuilder_AddTwiceReturnsExisting(t *testing.T) {
	b := NewBuilder(afero.NewMemMapFs())
	id1 := b.Add(KindOverlay2, "a", []string{"overlay2/a"}, nil)
	id2 := b.Add(KindOverlay2, "a", []string{"elsewhere"}, nil)
	assert.Equal(t, id1, id2)
	n, _ := b.Lookup(id1)
	assert.Equal(t, []string{"overlay2/a"}, n.Paths)
}

func TestBuilder_FinishSeals(t *testing.T) {
	b := NewBuilder(afero.NewMemMapFs())
	b.Finish()
	assert.Panics(t, func() { b.Add(KindOverlay2, "a", nil, nil) })
	assert.Panics(t, func() { b.Resolve("Overlay2:a") })
	assert.Panics(t, func() { b.Finish() })
}

func TestBuilder_LinkUnknownPanics(t *testing.T) {
	b := NewBuilder(afero.NewMemMapFs())
	a := b.Add(KindOverlay2, "a", nil, nil)
	assert.Panics(t, func() { b.Link(a, "Overlay2:nope") })
}
