package session

import "github.com/marmos91/layerscope/pkg/graph"

// Command is a request from a presentation layer. Commands are plain values;
// the session never calls back into the presentation layer.
type Command interface {
	// Name identifies the command in logs, metrics and the journal.
	Name() string
}

// ListCategories asks for the navigation groups with their node counts.
type ListCategories struct{}

// SelectCategory lists the nodes of one kind. Dangling keeps only removal
// candidates; Unreachable keeps only nodes no root can reach.
type SelectCategory struct {
	Kind        graph.Kind
	Dangling    bool
	Unreachable bool
}

// Summarize asks for per-kind totals of the whole graph.
type Summarize struct{}

// ViewNode asks for the details of one node.
type ViewNode struct {
	ID string
}

// PreviewDelete computes what Delete would remove without removing it.
type PreviewDelete struct {
	ID        string
	Recursive bool
}

// Delete removes a node, or a node and the dependencies it leaves
// unreferenced. Confirmed must be set after the caller showed the preview.
type Delete struct {
	ID        string
	Recursive bool
	Confirmed bool
}

// PreviewPrune computes what Prune would remove. An empty Kinds selects every
// kind of the dangling category.
type PreviewPrune struct {
	Kinds []graph.Kind
}

// Prune recursively removes every dangling node of the selected kinds.
type Prune struct {
	Kinds     []graph.Kind
	Confirmed bool
}

func (ListCategories) Name() string { return "list-categories" }
func (SelectCategory) Name() string { return "select-category" }
func (Summarize) Name() string      { return "summarize" }
func (ViewNode) Name() string       { return "view-node" }
func (PreviewDelete) Name() string  { return "preview-delete" }
func (Delete) Name() string         { return "delete" }
func (PreviewPrune) Name() string   { return "preview-prune" }
func (Prune) Name() string          { return "prune" }
