// Package session is the single entry point presentation layers use to
// inspect and modify a storage graph. A presentation layer sends Command
// values to Execute and renders the View it gets back; it never touches the
// graph directly and the session never holds presentation state.
//
// A Session is owned by one goroutine, like the graph it wraps.
package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/marmos91/layerscope/internal/bytesize"
	"github.com/marmos91/layerscope/internal/logger"
	"github.com/marmos91/layerscope/pkg/graph"
	"github.com/marmos91/layerscope/pkg/journal"
	"github.com/marmos91/layerscope/pkg/metrics"
)

// Journal records executed removals. *journal.Store satisfies it.
type Journal interface {
	Append(ctx context.Context, e *journal.Entry) error
}

// Options configures a Session. Every field is optional.
type Options struct {
	// RunID correlates log lines and journal entries of one invocation.
	RunID string

	// BaseDir is recorded in journal entries.
	BaseDir string

	// Journal receives one entry per executed Delete or Prune.
	Journal Journal

	// Metrics observes removals.
	Metrics metrics.DeleteMetrics
}

// Session executes commands against one graph.
type Session struct {
	g    *graph.Graph
	opts Options
}

// New creates a session over g.
func New(g *graph.Graph, opts Options) *Session {
	return &Session{g: g, opts: opts}
}

// Graph returns the graph the session operates on, for read-only use.
func (s *Session) Graph() *graph.Graph {
	return s.g
}

// Execute runs one command and returns its view.
func (s *Session) Execute(ctx context.Context, cmd Command) (View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch c := cmd.(type) {
	case ListCategories:
		return s.listCategories(), nil
	case SelectCategory:
		return s.selectCategory(c)
	case Summarize:
		return &SummaryView{Nodes: s.g.Len(), Roots: len(s.g.Roots()), Kinds: s.g.Summarize()}, nil
	case ViewNode:
		return s.viewNode(c.ID)
	case PreviewDelete:
		return s.previewDelete(ctx, c)
	case Delete:
		return s.delete(ctx, c)
	case PreviewPrune:
		return s.previewPrune(ctx, c)
	case Prune:
		return s.prune(ctx, c)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

func (s *Session) listCategories() *CategoriesView {
	groups := s.g.Classify()

	view := &CategoriesView{}
	for _, cat := range graph.Categories {
		cv := CategoryView{Name: cat.Name, Dangling: cat.Dangling}
		for _, k := range cat.Kinds {
			n := len(groups[k])
			if cat.Dangling {
				n = len(s.g.Dangling(k))
			}
			cv.Kinds = append(cv.Kinds, KindCount{Kind: k, Count: n})
		}
		view.Categories = append(view.Categories, cv)
	}
	return view
}

func (s *Session) selectCategory(c SelectCategory) (View, error) {
	if c.Kind != "" && !c.Kind.Valid() {
		return nil, fmt.Errorf("unknown kind %q", c.Kind)
	}

	var nodes []graph.Node
	switch {
	case c.Dangling:
		nodes = s.g.Dangling(c.Kind)
	case c.Unreachable:
		for _, n := range s.g.Unreachable() {
			if c.Kind == "" || n.Kind == c.Kind {
				nodes = append(nodes, n)
			}
		}
	case c.Kind == "":
		nodes = s.g.Nodes()
	default:
		nodes = s.g.ByKind(c.Kind)
	}

	view := &ListView{Kind: c.Kind, Dangling: c.Dangling, Unreachable: c.Unreachable, Items: []Item{}}
	for _, n := range nodes {
		view.Items = append(view.Items, itemOf(n))
	}
	return view, nil
}

func (s *Session) viewNode(id string) (View, error) {
	n, ok := s.g.Node(id)
	if !ok {
		return nil, graph.NewNotFoundError(id)
	}
	size, err := s.g.DiskUsage(id)
	if err != nil {
		return nil, err
	}

	view := &NodeView{
		Node:      n,
		Size:      size,
		Reachable: !slices.ContainsFunc(s.g.Unreachable(), func(u graph.Node) bool { return u.ID == id }),
		Deps:      s.items(n.Deps),
		RDeps:     s.items(n.RDeps),
	}
	return view, nil
}

func (s *Session) items(ids []string) []Item {
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.g.Node(id); ok {
			out = append(out, itemOf(n))
		}
	}
	return out
}

// sizes measures every node of a plan. Sizes are taken before removal,
// since the paths are gone afterwards.
func (s *Session) sizes(ctx context.Context, nodes []graph.Node) (map[string]bytesize.ByteSize, bytesize.ByteSize) {
	out := make(map[string]bytesize.ByteSize, len(nodes))
	var total bytesize.ByteSize
	for _, n := range nodes {
		size, err := s.g.DiskUsage(n.ID)
		if err != nil {
			logger.DebugCtx(ctx, "cannot measure node", logger.NodeID(n.ID), logger.Err(err))
		}
		out[n.ID] = size
		total += size
	}
	return out, total
}

// withRun attaches the session's run fields to ctx unless the caller
// already did.
func (s *Session) withRun(ctx context.Context, command, nodeID string) context.Context {
	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext(s.opts.RunID, command).WithBaseDir(s.opts.BaseDir)
	} else {
		lc = lc.Clone()
		if lc.Command == "" {
			lc.Command = command
		}
	}
	if nodeID != "" {
		lc = lc.WithNode(nodeID)
	}
	return logger.WithContext(ctx, lc)
}
