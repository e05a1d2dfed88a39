package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys. Use them in every log statement so that JSON output
// can be filtered consistently.
const (
	// Run correlation
	KeyRunID   = "run_id"
	KeyCommand = "command"
	KeyBaseDir = "base_dir"

	// Graph nodes
	KeyNodeID   = "node_id"
	KeyKind     = "kind"
	KeyDepID    = "dep_id"
	KeyRefCount = "refcount"
	KeyNodes    = "nodes"
	KeyEdges    = "edges"
	KeyRemoved  = "removed"
	KeyDangling = "dangling"
	KeyMissing  = "missing"

	// Scanners
	KeyScanner = "scanner"
	KeyPath    = "path"
	KeyAlias   = "alias"
	KeyDigest  = "digest"
	KeySize    = "size"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyRecursive  = "recursive"
	KeyDryRun     = "dry_run"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyOperation  = "operation"
	KeyCount      = "count"
)

// RunID creates a run id attribute.
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// Command creates a command attribute.
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// BaseDir creates a storage root attribute.
func BaseDir(dir string) slog.Attr {
	return slog.String(KeyBaseDir, dir)
}

// NodeID creates a node identifier attribute.
func NodeID(id string) slog.Attr {
	return slog.String(KeyNodeID, id)
}

// Kind creates a node kind attribute.
func Kind(k fmt.Stringer) slog.Attr {
	return slog.String(KeyKind, k.String())
}

// DepID creates a dependency identifier attribute.
func DepID(id string) slog.Attr {
	return slog.String(KeyDepID, id)
}

// RefCount creates a reference count attribute.
func RefCount(n int) slog.Attr {
	return slog.Int(KeyRefCount, n)
}

// Nodes creates a node count attribute.
func Nodes(n int) slog.Attr {
	return slog.Int(KeyNodes, n)
}

// Removed creates a removed-node count attribute.
func Removed(n int) slog.Attr {
	return slog.Int(KeyRemoved, n)
}

// Scanner creates a scanner name attribute.
func Scanner(name string) slog.Attr {
	return slog.String(KeyScanner, name)
}

// Path creates a filesystem path attribute.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Alias creates an overlay short-link attribute.
func Alias(a string) slog.Attr {
	return slog.String(KeyAlias, a)
}

// Digest creates a content digest attribute.
func Digest(d string) slog.Attr {
	return slog.String(KeyDigest, d)
}

// Size creates a size attribute in bytes.
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// DurationMs creates a duration attribute in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Recursive creates a recursion flag attribute.
func Recursive(r bool) slog.Attr {
	return slog.Bool(KeyRecursive, r)
}

// DryRun creates a dry-run flag attribute.
func DryRun(d bool) slog.Attr {
	return slog.Bool(KeyDryRun, d)
}

// Err creates an error attribute. A nil error yields an empty attribute,
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode creates an error code attribute.
func ErrorCode(code fmt.Stringer) slog.Attr {
	return slog.String(KeyErrorCode, code.String())
}

// Operation creates an operation name attribute.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Count creates a generic count attribute.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}
