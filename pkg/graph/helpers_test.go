package graph

import (
	"errors"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// failingFs fails RemoveAll for selected paths.
type failingFs struct {
	afero.Fs
	fail map[string]bool
}

func (f *failingFs) RemoveAll(p string) error {
	if f.fail[p] {
		return errors.New("device or resource busy")
	}
	return f.Fs.RemoveAll(p)
}

func touch(t *testing.T, fsys afero.Fs, dir string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fsys, path.Join(dir, "data"), []byte("0123456789"), 0o644))
}

// sharedLayerGraph builds:
//
//	ImageRepo:myrepo:latest -> ImageContent:I1 -> ImageLayer:D1 -> Overlay2:L3
//	Container:C1 -> ImageContent:I1, Mount:M1 -> Overlay2:L2
//	Container:C2 -> ImageContent:I1, Mount:M2 -> Overlay2:L2
//	Overlay2:L1 (orphan)
func sharedLayerGraph(t *testing.T, fsys afero.Fs) *Graph {
	t.Helper()
	for _, dir := range []string{
		"overlay2/L1", "overlay2/L2", "overlay2/L3",
		"image/overlay2/layerdb/sha256/D1",
		"image/overlay2/imagedb/content/sha256/I1",
		"image/overlay2/layerdb/mounts/M1", "image/overlay2/layerdb/mounts/M2",
		"containers/C1", "containers/C2",
	} {
		touch(t, fsys, dir)
	}

	b := NewBuilder(fsys)
	l1 := b.Add(KindOverlay2, "L1", []string{"overlay2/L1"}, nil)
	l2 := b.Add(KindOverlay2, "L2", []string{"overlay2/L2"}, nil)
	l3 := b.Add(KindOverlay2, "L3", []string{"overlay2/L3"}, nil)
	_ = l1

	d1 := b.Add(KindImageLayer, "D1", []string{"image/overlay2/layerdb/sha256/D1"}, nil)
	b.Link(d1, l3)
	i1 := b.Add(KindImageContent, "I1", []string{"image/overlay2/imagedb/content/sha256/I1"}, nil)
	b.Link(i1, d1)
	repo := b.Add(KindImageRepo, "myrepo:latest", nil, nil)
	b.Link(repo, i1)

	m1 := b.Add(KindMount, "M1", []string{"image/overlay2/layerdb/mounts/M1"}, nil)
	b.Link(m1, l2)
	m2 := b.Add(KindMount, "M2", []string{"image/overlay2/layerdb/mounts/M2"}, nil)
	b.Link(m2, l2)

	c1 := b.Add(KindContainer, "C1", []string{"containers/C1"}, nil)
	b.Link(c1, i1)
	b.Link(c1, m1)
	c2 := b.Add(KindContainer, "C2", []string{"containers/C2"}, nil)
	b.Link(c2, i1)
	b.Link(c2, m2)

	g := b.Finish()
	require.NoError(t, g.CheckSymmetry())
	return g
}

func exists(t *testing.T, fsys afero.Fs, p string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, p)
	require.NoError(t, err)
	return ok
}
