package graph

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"

	"github.com/marmos91/layerscope/internal/bytesize"
	"github.com/spf13/afero"
)

// Common attribute keys recorded by the scanners.
const (
	AttrShortLink        = "link"
	AttrCacheID          = "cache_id"
	AttrDiffID           = "diff_id"
	AttrParent           = "parent"
	AttrDigest           = "digest"
	AttrSourceRepository = "source_repository"
	AttrImage            = "image"
	AttrInitID           = "init_id"
	AttrMountID          = "mount_id"
	AttrTarget           = "target"
	AttrName             = "name"
)

// record is the arena slot of a node.
type record struct {
	id    string
	kind  Kind
	key   string
	deps  []int
	rdeps []int
	paths []string
	attrs map[string]string
}

// Node is a read-only snapshot of a graph node.
type Node struct {
	ID    string            `json:"id" yaml:"id"`
	Kind  Kind              `json:"kind" yaml:"kind"`
	Key   string            `json:"key" yaml:"key"`
	Deps  []string          `json:"deps" yaml:"deps"`
	RDeps []string          `json:"rdeps" yaml:"rdeps"`
	Paths []string          `json:"paths,omitempty" yaml:"paths,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// IsDangling reports whether the node is a removal candidate: a non-root
// node that nothing depends on.
func (n Node) IsDangling() bool {
	return !n.Kind.IsRoot() && len(n.RDeps) == 0
}

// Graph is the arena of nodes built from one scan of the storage root.
type Graph struct {
	fs    afero.Fs
	nodes []*record
	index map[string]int
	live  int
}

func newGraph(fsys afero.Fs) *Graph {
	return &Graph{
		fs:    fsys,
		index: make(map[string]int),
	}
}

// Fs returns the filesystem the graph's paths are relative to.
func (g *Graph) Fs() afero.Fs {
	return g.fs
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return g.live
}

// Has reports whether a node with the given identifier exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns a snapshot of the node with the given identifier.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.snapshot(i), true
}

// RefCount returns the number of nodes that depend on id, or -1 if id is
// not in the graph.
func (g *Graph) RefCount(id string) int {
	i, ok := g.index[id]
	if !ok {
		return -1
	}
	return len(g.nodes[i].rdeps)
}

// IDs returns every live identifier, sorted.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, g.live)
	for id := range g.index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Nodes returns snapshots of every live node, sorted by identifier.
func (g *Graph) Nodes() []Node {
	ids := g.IDs()
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.snapshot(g.index[id]))
	}
	return out
}

func (g *Graph) snapshot(i int) Node {
	r := g.nodes[i]
	n := Node{
		ID:    r.id,
		Kind:  r.kind,
		Key:   r.key,
		Deps:  g.idsOf(r.deps),
		RDeps: g.idsOf(r.rdeps),
		Paths: slices.Clone(r.paths),
	}
	if len(r.attrs) > 0 {
		n.Attrs = make(map[string]string, len(r.attrs))
		for k, v := range r.attrs {
			n.Attrs[k] = v
		}
	}
	return n
}

func (g *Graph) idsOf(idx []int) []string {
	ids := make([]string, 0, len(idx))
	for _, i := range idx {
		ids = append(ids, g.nodes[i].id)
	}
	return ids
}

// CheckSymmetry verifies that every forward edge has its reverse edge and
// vice versa, and that no edge points at a vacant slot.
func (g *Graph) CheckSymmetry() error {
	var errs []error
	for i, r := range g.nodes {
		if r == nil {
			continue
		}
		for _, d := range r.deps {
			dr := g.nodes[d]
			if dr == nil {
				errs = append(errs, fmt.Errorf("%s depends on a removed node", r.id))
				continue
			}
			if !slices.Contains(dr.rdeps, i) {
				errs = append(errs, fmt.Errorf("%s -> %s has no reverse edge", r.id, dr.id))
			}
		}
		for _, rd := range r.rdeps {
			rr := g.nodes[rd]
			if rr == nil {
				errs = append(errs, fmt.Errorf("%s is referenced by a removed node", r.id))
				continue
			}
			if !slices.Contains(rr.deps, i) {
				errs = append(errs, fmt.Errorf("%s <- %s has no forward edge", r.id, rr.id))
			}
		}
	}
	return errors.Join(errs...)
}

// DiskUsage sums the size of every file under the node's paths. Paths that
// no longer exist count as zero.
func (g *Graph) DiskUsage(id string) (bytesize.ByteSize, error) {
	i, ok := g.index[id]
	if !ok {
		return 0, NewNotFoundError(id)
	}
	var total bytesize.ByteSize
	for _, p := range g.nodes[i].paths {
		err := afero.Walk(g.fs, p, func(_ string, info os.FileInfo, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if info.Mode().IsRegular() {
				total += bytesize.ByteSize(info.Size())
			}
			return nil
		})
		if err != nil {
			return total, fmt.Errorf("disk usage of %s: %w", id, err)
		}
	}
	return total, nil
}
