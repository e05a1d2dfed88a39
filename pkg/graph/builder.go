package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/afero"
)

// Builder is the only way to create nodes. Scanners share one Builder so
// that later scanners can link to nodes created by earlier ones.
//
// Identifiers referenced before (or without) being discovered resolve to a
// shared placeholder. When the real node is added later, the placeholder is
// merged into it: every referrer is repointed to the real node, in place, so
// reference counts stay exact.
type Builder struct {
	g        *Graph
	finished bool
}

// NewBuilder creates a builder for a graph whose node paths are relative to fsys.
func NewBuilder(fsys afero.Fs) *Builder {
	return &Builder{g: newGraph(fsys)}
}

// Add creates the node kind:key and returns its identifier. Adding an
// identifier that already exists returns it unchanged.
func (b *Builder) Add(kind Kind, key string, paths []string, attrs map[string]string) string {
	b.mustBeOpen()

	id := ID(kind, key)
	if _, ok := b.g.index[id]; ok {
		return id
	}

	i := b.g.insert(&record{
		id:    id,
		kind:  kind,
		key:   key,
		paths: slices.Clone(paths),
		attrs: maps.Clone(attrs),
	})

	if pi, ok := b.g.index[ID(KindPlaceholder, id)]; ok {
		b.g.mergeInto(pi, i)
	}
	return id
}

// Resolve returns id if the node exists, otherwise the identifier of the
// placeholder standing in for it. The placeholder is created on first use
// and shared by every later reference.
func (b *Builder) Resolve(id string) string {
	b.mustBeOpen()

	if _, ok := b.g.index[id]; ok {
		return id
	}
	pid := ID(KindPlaceholder, id)
	if _, ok := b.g.index[pid]; ok {
		return pid
	}
	b.g.insert(&record{id: pid, kind: KindPlaceholder, key: id})
	return pid
}

// Link records that from depends on to. Duplicate edges are ignored.
// Both nodes must exist.
func (b *Builder) Link(from, to string) {
	b.mustBeOpen()

	fi, ok := b.g.index[from]
	if !ok {
		panic(fmt.Sprintf("graph: link from unknown node %q", from))
	}
	ti, ok := b.g.index[to]
	if !ok {
		panic(fmt.Sprintf("graph: link to unknown node %q", to))
	}
	if fi == ti || slices.Contains(b.g.nodes[fi].deps, ti) {
		return
	}
	b.g.nodes[fi].deps = append(b.g.nodes[fi].deps, ti)
	b.g.nodes[ti].rdeps = append(b.g.nodes[ti].rdeps, fi)
}

// Has reports whether a real or placeholder node exists for id.
func (b *Builder) Has(id string) bool {
	_, ok := b.g.index[id]
	return ok
}

// Lookup returns a snapshot of a node already added to the builder.
func (b *Builder) Lookup(id string) (Node, bool) {
	return b.g.Node(id)
}

// Graph exposes the graph under construction for read-only inspection.
func (b *Builder) Graph() *Graph {
	return b.g
}

// Finish seals the builder and returns the graph. Any later call on the
// builder panics.
func (b *Builder) Finish() *Graph {
	b.mustBeOpen()
	b.finished = true
	return b.g
}

func (b *Builder) mustBeOpen() {
	if b.finished {
		panic("graph: builder already finished")
	}
}

func (g *Graph) insert(r *record) int {
	i := len(g.nodes)
	g.nodes = append(g.nodes, r)
	g.index[r.id] = i
	g.live++
	return i
}

// mergeInto transfers every referrer of the placeholder at pi onto the real
// node at ri and vacates the placeholder slot.
func (g *Graph) mergeInto(pi, ri int) {
	ph := g.nodes[pi]
	target := g.nodes[ri]

	for _, r := range ph.rdeps {
		ref := g.nodes[r]
		if slices.Contains(ref.deps, ri) {
			ref.deps = slices.DeleteFunc(ref.deps, func(d int) bool { return d == pi })
		} else {
			for k, d := range ref.deps {
				if d == pi {
					ref.deps[k] = ri
				}
			}
		}
		if !slices.Contains(target.rdeps, r) {
			target.rdeps = append(target.rdeps, r)
		}
	}
	for _, d := range ph.deps {
		dep := g.nodes[d]
		dep.rdeps = slices.DeleteFunc(dep.rdeps, func(x int) bool { return x == pi })
	}
	g.vacate(pi)
}

func (g *Graph) vacate(i int) {
	delete(g.index, g.nodes[i].id)
	g.nodes[i] = nil
	g.live--
}
