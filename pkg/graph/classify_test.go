package graph

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_PartitionsByKind(t *testing.T) {
	g := sharedLayerGraph(t, afero.NewMemMapFs())

	groups := g.Classify()
	total := 0
	for kind, nodes := range groups {
		total += len(nodes)
		for _, n := range nodes {
			assert.Equal(t, kind, KindOf(n.ID))
		}
	}
	assert.Equal(t, g.Len(), total)
	assert.Len(t, groups[KindOverlay2], 3)
	assert.Len(t, groups[KindContainer], 2)
}

func TestDangling(t *testing.T) {
	g := sharedLayerGraph(t, afero.NewMemMapFs())

	assert.Equal(t, []string{"Overlay2:L1"}, nodeIDs(g.Dangling(KindOverlay2)))
	assert.Empty(t, g.Dangling(KindContainer), "roots are never dangling")
	assert.Equal(t, []string{"Overlay2:L1"}, nodeIDs(g.Dangling("")))

	for _, n := range g.Nodes() {
		assert.Equal(t, !n.Kind.IsRoot() && len(n.RDeps) == 0, n.IsDangling(), n.ID)
	}
}

func TestRoots(t *testing.T) {
	g := sharedLayerGraph(t, afero.NewMemMapFs())
	assert.Equal(t,
		[]string{"Container:C1", "Container:C2", "ImageRepo:myrepo:latest"},
		nodeIDs(g.Roots()))
}

func TestUnreachable_OrphanChain(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := NewBuilder(fsys)
	repo := b.Add(KindImageRepo, "app:1", nil, nil)
	img := b.Add(KindImageContent, "img", nil, nil)
	b.Link(repo, img)

	// An orphan layer chain: only the top is dangling, both are unreachable.
	upper := b.Add(KindOverlay2, "upper", nil, nil)
	lower := b.Add(KindOverlay2, "lower", nil, nil)
	b.Link(upper, lower)
	g := b.Finish()

	assert.Equal(t, []string{upper}, nodeIDs(g.Dangling("")))
	assert.Equal(t, []string{lower, upper}, nodeIDs(g.Unreachable()))
}

func TestSummarize(t *testing.T) {
	g := sharedLayerGraph(t, afero.NewMemMapFs())

	sums := g.Summarize()
	require.NotEmpty(t, sums)
	byKind := make(map[Kind]Summary)
	for _, s := range sums {
		byKind[s.Kind] = s
	}
	assert.Equal(t, Summary{Kind: KindOverlay2, Total: 3, Dangling: 1, Unreachable: 1}, byKind[KindOverlay2])
	assert.Equal(t, Summary{Kind: KindContainer, Total: 2}, byKind[KindContainer])
	_, ok := byKind[KindPlaceholder]
	assert.False(t, ok)

	// display order follows Kinds
	var order []Kind
	for _, s := range sums {
		order = append(order, s.Kind)
	}
	var want []Kind
	for _, k := range Kinds {
		if _, ok := byKind[k]; ok {
			want = append(want, k)
		}
	}
	assert.Equal(t, want, order)
}

func TestDiskUsage(t *testing.T) {
	fsys := afero.NewMemMapFs()
	g := sharedLayerGraph(t, fsys)

	size, err := g.DiskUsage("Overlay2:L1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, size)

	size, err = g.DiskUsage("ImageRepo:myrepo:latest")
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, fsys.RemoveAll("overlay2/L2"))
	size, err = g.DiskUsage("Overlay2:L2")
	require.NoError(t, err)
	assert.Zero(t, size)

	_, err = g.DiskUsage("Overlay2:nope")
	assert.True(t, IsNotFoundError(err))
}
