package graph

import (
	"slices"
)

// Removal lists the nodes deleted by one removal request, in deletion order.
type Removal struct {
	Target    string `json:"target" yaml:"target"`
	Recursive bool   `json:"recursive" yaml:"recursive"`
	Removed   []Node `json:"removed" yaml:"removed"`
}

// IDs returns the identifiers of the removed nodes.
func (r *Removal) IDs() []string {
	return nodeIDs(r.Removed)
}

// Plan is the set of nodes a removal would delete, computed without
// touching the graph or the filesystem.
type Plan struct {
	Targets   []string `json:"targets" yaml:"targets"`
	Recursive bool     `json:"recursive" yaml:"recursive"`
	Nodes     []Node   `json:"nodes" yaml:"nodes"`
}

// IDs returns the identifiers of the planned nodes, in deletion order.
func (p *Plan) IDs() []string {
	return nodeIDs(p.Nodes)
}

func nodeIDs(nodes []Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// Remove deletes a single node. Its storage is removed first; if that fails
// the graph is left unchanged. On success the node is unlinked from every
// former dependency and every former dependent and dropped from the graph.
// Dependencies that become unreferenced are left in place.
func (g *Graph) Remove(id string) (*Removal, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, NewNotFoundError(id)
	}

	r := g.nodes[i]
	if err := g.deleteStorage(r); err != nil {
		return nil, err
	}

	snap := g.snapshot(i)
	g.unlink(i)
	return &Removal{Target: id, Removed: []Node{snap}}, nil
}

// RemoveRecursive deletes id and then every dependency that is left without
// referrers as a result, transitively.
//
// The walk always starts with id, even when other nodes still depend on it.
// A dependency shared with a surviving node is never deleted. The walk uses
// an explicit stack and a visited set, so layers shared by several paths are
// handled once. On the first storage failure the walk stops and a
// *CascadeError names the failing node; nodes removed before it stay removed
// and are returned in the Removal as well.
func (g *Graph) RemoveRecursive(id string) (*Removal, error) {
	start, ok := g.index[id]
	if !ok {
		return nil, NewNotFoundError(id)
	}

	removal := &Removal{Target: id, Recursive: true}
	visited := make(map[int]struct{})
	stack := []int{start}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[i]; seen {
			continue
		}
		visited[i] = struct{}{}

		r := g.nodes[i]
		if r == nil {
			continue
		}
		if err := g.deleteStorage(r); err != nil {
			return removal, &CascadeError{
				Failed:  r.id,
				Removed: slices.Clone(removal.Removed),
				Err:     err,
			}
		}

		snap := g.snapshot(i)
		deps := slices.Clone(r.deps)
		g.unlink(i)
		removal.Removed = append(removal.Removed, snap)

		// Push in reverse so the first dependency is visited first.
		for k := len(deps) - 1; k >= 0; k-- {
			d := deps[k]
			if dr := g.nodes[d]; dr != nil && len(dr.rdeps) == 0 {
				stack = append(stack, d)
			}
		}
	}
	return removal, nil
}

// Preview computes what Remove (recursive=false) or RemoveRecursive
// (recursive=true) would delete, without mutating anything.
func (g *Graph) Preview(id string, recursive bool) (*Plan, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, NewNotFoundError(id)
	}
	if !recursive {
		return &Plan{Targets: []string{id}, Nodes: []Node{g.snapshot(i)}}, nil
	}
	return g.PreviewMany([]string{id})
}

// PreviewMany computes the joint effect of calling RemoveRecursive on each
// identifier in order, skipping identifiers already deleted by an earlier
// cascade.
func (g *Graph) PreviewMany(ids []string) (*Plan, error) {
	starts := make([]int, 0, len(ids))
	for _, id := range ids {
		i, ok := g.index[id]
		if !ok {
			return nil, NewNotFoundError(id)
		}
		starts = append(starts, i)
	}

	plan := &Plan{Targets: slices.Clone(ids), Recursive: true}
	refs := make(map[int]int)
	removed := make(map[int]bool)

	for _, s := range starts {
		stack := []int{s}
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if removed[i] {
				continue
			}
			removed[i] = true
			plan.Nodes = append(plan.Nodes, g.snapshot(i))

			deps := g.nodes[i].deps
			for k := len(deps) - 1; k >= 0; k-- {
				d := deps[k]
				if removed[d] {
					continue
				}
				left, ok := refs[d]
				if !ok {
					left = len(g.nodes[d].rdeps)
				}
				left--
				refs[d] = left
				if left == 0 {
					stack = append(stack, d)
				}
			}
		}
	}
	return plan, nil
}

// unlink removes every edge touching the node at i and vacates its slot.
func (g *Graph) unlink(i int) {
	r := g.nodes[i]
	for _, d := range r.deps {
		if dr := g.nodes[d]; dr != nil {
			dr.rdeps = slices.DeleteFunc(dr.rdeps, func(x int) bool { return x == i })
		}
	}
	for _, rd := range r.rdeps {
		if rr := g.nodes[rd]; rr != nil {
			rr.deps = slices.DeleteFunc(rr.deps, func(x int) bool { return x == i })
		}
	}
	r.deps = nil
	r.rdeps = nil
	g.vacate(i)
}
