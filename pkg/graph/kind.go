package graph

import (
	"fmt"
	"strings"
)

// Kind is the closed set of node variants.
type Kind string

const (
	// KindOverlay2 is an overlay2 snapshot directory (overlay2/<id>).
	KindOverlay2 Kind = "Overlay2"

	// KindImageLayer is a per-layer metadata record (layerdb/sha256/<chain-id>).
	KindImageLayer Kind = "ImageLayer"

	// KindImageContent is an image config holding the ordered diff id list.
	KindImageContent Kind = "ImageContent"

	// KindImageRepo is a repository:tag pointer from repositories.json.
	KindImageRepo Kind = "ImageRepo"

	// KindContainer is a container directory (containers/<id>).
	KindContainer Kind = "Container"

	// KindMount is a container mount record (layerdb/mounts/<id>).
	KindMount Kind = "Mount"

	// KindDiffMetadata is the distribution provenance of a diff id.
	KindDiffMetadata Kind = "DiffMetadata"

	// KindPlaceholder stands in for an identifier that was referenced but
	// never discovered on disk.
	KindPlaceholder Kind = "Placeholder"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{
	KindImageRepo,
	KindContainer,
	KindImageContent,
	KindImageLayer,
	KindDiffMetadata,
	KindOverlay2,
	KindMount,
	KindPlaceholder,
}

// idSeparator separates the kind tag from the natural key.
const idSeparator = ":"

// String returns the kind tag.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsRoot reports whether nodes of this kind anchor reachability. Roots are
// never removal candidates on their own.
func (k Kind) IsRoot() bool {
	return k == KindImageRepo || k == KindContainer
}

// ParseKind parses a kind tag case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown node kind %q", s)
}

// ID formats the identifier of a node of the given kind and natural key.
func ID(kind Kind, key string) string {
	return string(kind) + idSeparator + key
}

// KindOf returns the kind tag of an identifier: everything before the first
// separator. An identifier without a separator has no kind.
func KindOf(id string) Kind {
	kind, _, ok := strings.Cut(id, idSeparator)
	if !ok {
		return ""
	}
	return Kind(kind)
}
