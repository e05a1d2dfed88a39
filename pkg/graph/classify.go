package graph

import "sort"

// Category is a navigation group of node kinds.
type Category struct {
	Name     string `json:"name" yaml:"name"`
	Kinds    []Kind `json:"kinds" yaml:"kinds"`
	Dangling bool   `json:"dangling" yaml:"dangling"`
}

// Categories are the groups offered for browsing: the roots, the removal
// candidates per kind, and the identifiers that were referenced but never found.
var Categories = []Category{
	{Name: "Top level", Kinds: []Kind{KindImageRepo, KindContainer}},
	{Name: "Dangling", Kinds: []Kind{KindDiffMetadata, KindImageContent, KindImageLayer, KindOverlay2, KindMount}, Dangling: true},
	{Name: "Missing", Kinds: []Kind{KindPlaceholder}},
}

// Classify partitions every node by the kind prefix of its identifier.
// Each group is sorted by identifier.
func (g *Graph) Classify() map[Kind][]Node {
	out := make(map[Kind][]Node)
	for _, n := range g.Nodes() {
		k := KindOf(n.ID)
		out[k] = append(out[k], n)
	}
	return out
}

// ByKind returns the nodes of one kind, sorted by identifier.
func (g *Graph) ByKind(kind Kind) []Node {
	var out []Node
	for _, n := range g.Nodes() {
		if KindOf(n.ID) == kind {
			out = append(out, n)
		}
	}
	return out
}

// Dangling returns the removal candidates of a kind: non-root nodes with no
// reverse references. An empty kind selects every kind.
func (g *Graph) Dangling(kind Kind) []Node {
	var out []Node
	for _, n := range g.Nodes() {
		if kind != "" && n.Kind != kind {
			continue
		}
		if n.IsDangling() {
			out = append(out, n)
		}
	}
	return out
}

// Roots returns every node of a root kind.
func (g *Graph) Roots() []Node {
	var out []Node
	for _, n := range g.Nodes() {
		if n.Kind.IsRoot() {
			out = append(out, n)
		}
	}
	return out
}

// Unreachable returns every node that cannot be reached from a root by
// following forward edges, sorted by identifier. Unlike Dangling, this also
// catches chains of orphans that still reference each other.
func (g *Graph) Unreachable() []Node {
	var grays []int
	for i, r := range g.nodes {
		if r != nil && r.kind.IsRoot() {
			grays = append(grays, i)
		}
	}

	reachable := make(map[int]struct{}, len(g.nodes))
	for len(grays) > 0 {
		i := grays[len(grays)-1]
		grays = grays[:len(grays)-1]
		if _, ok := reachable[i]; ok {
			continue
		}
		reachable[i] = struct{}{}
		for _, d := range g.nodes[i].deps {
			if _, ok := reachable[d]; !ok {
				grays = append(grays, d)
			}
		}
	}

	var out []Node
	for i, r := range g.nodes {
		if r == nil {
			continue
		}
		if _, ok := reachable[i]; !ok {
			out = append(out, g.snapshot(i))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Summary counts nodes per kind.
type Summary struct {
	Kind        Kind `json:"kind" yaml:"kind"`
	Total       int  `json:"total" yaml:"total"`
	Dangling    int  `json:"dangling" yaml:"dangling"`
	Unreachable int  `json:"unreachable" yaml:"unreachable"`
}

// Summarize returns per-kind totals in display order, omitting empty kinds.
func (g *Graph) Summarize() []Summary {
	byKind := make(map[Kind]*Summary)
	get := func(k Kind) *Summary {
		s, ok := byKind[k]
		if !ok {
			s = &Summary{Kind: k}
			byKind[k] = s
		}
		return s
	}
	for _, n := range g.Nodes() {
		s := get(n.Kind)
		s.Total++
		if n.IsDangling() {
			s.Dangling++
		}
	}
	for _, n := range g.Unreachable() {
		get(n.Kind).Unreachable++
	}

	out := make([]Summary, 0, len(byKind))
	for _, k := range Kinds {
		if s, ok := byKind[k]; ok {
			out = append(out, *s)
		}
	}
	return out
}
