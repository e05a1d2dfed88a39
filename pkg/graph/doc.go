// Package graph models the dependency graph implicit in a container engine's
// on-disk storage (overlay2 layers, image metadata, containers, mounts) and
// implements reference-aware removal of its nodes.
//
// # Storage Model
//
// Every node lives in a single arena owned by the Graph. Edges are arena
// indices, never pointers, so a layer shared by two images is one record with
// two reverse edges. Removing a node vacates its slot; indices of surviving
// nodes never move.
//
// # Identifiers
//
// A node identifier has the form "<Kind>:<natural-key>", for example
// "Overlay2:3f1c..." or "ImageRepo:nginx:latest". The kind of a node is a pure
// function of its identifier (see KindOf).
//
// # Mutation Discipline
//
// Nodes are created only through a Builder during the scan phase. Once the
// builder is finished, the only operations that mutate the graph are the
// removal operations (Remove, RemoveRecursive). Read access returns value
// snapshots (Node) that cannot be used to alter the graph.
//
// The package is not safe for concurrent use; a Graph is owned by one session.
package graph
