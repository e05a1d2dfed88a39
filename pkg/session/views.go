package session

import (
	"github.com/marmos91/layerscope/internal/bytesize"
	"github.com/marmos91/layerscope/pkg/graph"
)

// View is the result of a command: plain data for rendering.
type View interface {
	isView()
}

// KindCount is the number of nodes of one kind within a category.
type KindCount struct {
	Kind  graph.Kind `json:"kind" yaml:"kind"`
	Count int        `json:"count" yaml:"count"`
}

// CategoryView is one navigation group.
type CategoryView struct {
	Name     string      `json:"name" yaml:"name"`
	Dangling bool        `json:"dangling" yaml:"dangling"`
	Kinds    []KindCount `json:"kinds" yaml:"kinds"`
}

// CategoriesView answers ListCategories.
type CategoriesView struct {
	Categories []CategoryView `json:"categories" yaml:"categories"`
}

// Item is one row of a node listing.
type Item struct {
	ID       string     `json:"id" yaml:"id"`
	Kind     graph.Kind `json:"kind" yaml:"kind"`
	Key      string     `json:"key" yaml:"key"`
	Label    string     `json:"label,omitempty" yaml:"label,omitempty"`
	RefCount int        `json:"refcount" yaml:"refcount"`
	Deps     int        `json:"deps" yaml:"deps"`
	Dangling bool       `json:"dangling" yaml:"dangling"`
}

// ListView answers SelectCategory.
type ListView struct {
	Kind        graph.Kind `json:"kind" yaml:"kind"`
	Dangling    bool       `json:"dangling" yaml:"dangling"`
	Unreachable bool       `json:"unreachable" yaml:"unreachable"`
	Items       []Item     `json:"items" yaml:"items"`
}

// SummaryView answers Summarize.
type SummaryView struct {
	Nodes int             `json:"nodes" yaml:"nodes"`
	Roots int             `json:"roots" yaml:"roots"`
	Kinds []graph.Summary `json:"kinds" yaml:"kinds"`
}

// NodeView answers ViewNode.
type NodeView struct {
	Node      graph.Node        `json:"node" yaml:"node"`
	Size      bytesize.ByteSize `json:"size" yaml:"size"`
	Reachable bool              `json:"reachable" yaml:"reachable"`
	Deps      []Item            `json:"deps" yaml:"deps"`
	RDeps     []Item            `json:"rdeps" yaml:"rdeps"`
}

// PlanView answers PreviewDelete and PreviewPrune.
type PlanView struct {
	Command   string            `json:"command" yaml:"command"`
	Targets   []string          `json:"targets" yaml:"targets"`
	Recursive bool              `json:"recursive" yaml:"recursive"`
	Items     []Item            `json:"items" yaml:"items"`
	Size      bytesize.ByteSize `json:"size" yaml:"size"`
}

// RemovalView answers Delete and Prune. When the removal stopped part way,
// Failed names the node that could not be removed and Error describes why.
type RemovalView struct {
	Command   string            `json:"command" yaml:"command"`
	Targets   []string          `json:"targets" yaml:"targets"`
	Recursive bool              `json:"recursive" yaml:"recursive"`
	Removed   []Item            `json:"removed" yaml:"removed"`
	Size      bytesize.ByteSize `json:"size" yaml:"size"`
	Failed    string            `json:"failed,omitempty" yaml:"failed,omitempty"`
	Error     string            `json:"error,omitempty" yaml:"error,omitempty"`
}

func (*CategoriesView) isView() {}
func (*ListView) isView()       {}
func (*SummaryView) isView()    {}
func (*NodeView) isView()       {}
func (*PlanView) isView()       {}
func (*RemovalView) isView()    {}

// itemOf summarizes a node snapshot.
func itemOf(n graph.Node) Item {
	return Item{
		ID:       n.ID,
		Kind:     n.Kind,
		Key:      n.Key,
		Label:    labelOf(n),
		RefCount: len(n.RDeps),
		Deps:     len(n.Deps),
		Dangling: n.IsDangling(),
	}
}

// labelOf picks the most human friendly attribute of a node.
func labelOf(n graph.Node) string {
	for _, key := range []string{graph.AttrName, graph.AttrShortLink, graph.AttrSourceRepository, graph.AttrDigest} {
		if v := n.Attrs[key]; v != "" {
			return v
		}
	}
	return ""
}
