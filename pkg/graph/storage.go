package graph

import (
	"errors"
	"fmt"
	"io/fs"
)

// deleteStorage removes the filesystem objects behind a node. It is the
// single dispatch point for per-kind removal behaviour. A path that no
// longer exists counts as removed.
func (g *Graph) deleteStorage(r *record) error {
	switch r.kind {
	case KindPlaceholder, KindImageRepo:
		// Nothing on disk: placeholders were never found and repository tags
		// live inside repositories.json, which is not rewritten.
		return nil
	case KindOverlay2, KindImageLayer, KindImageContent, KindContainer, KindMount, KindDiffMetadata:
		for _, p := range r.paths {
			if err := g.fs.RemoveAll(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return &StorageError{ID: r.id, Path: p, Err: err}
			}
		}
		return nil
	default:
		return &StorageError{ID: r.id, Err: fmt.Errorf("unknown node kind %q", r.kind)}
	}
}
