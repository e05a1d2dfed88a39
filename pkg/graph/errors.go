package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies graph errors.
type ErrorCode int

const (
	// ErrCodeNotFound indicates the requested identifier is not in the graph.
	ErrCodeNotFound ErrorCode = iota + 1

	// ErrCodeStorage indicates the backing filesystem object could not be removed.
	ErrCodeStorage

	// ErrCodeCascade indicates a recursive removal stopped part way.
	ErrCodeCascade
)

// String returns the name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNotFound:
		return "NotFound"
	case ErrCodeStorage:
		return "Storage"
	case ErrCodeCascade:
		return "Cascade"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// ErrNotFound matches any error reporting an unknown identifier.
var ErrNotFound = errors.New("node not found")

// GraphError is a caller error against the graph, such as an unknown identifier.
type GraphError struct {
	Code    ErrorCode
	ID      string
	Message string
}

func (e *GraphError) Error() string {
	if e.ID == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match not-found graph errors.
func (e *GraphError) Is(target error) bool {
	return target == ErrNotFound && e.Code == ErrCodeNotFound
}

// NewNotFoundError reports an identifier that is not in the graph.
func NewNotFoundError(id string) *GraphError {
	return &GraphError{
		Code:    ErrCodeNotFound,
		ID:      id,
		Message: "node not found",
	}
}

// IsNotFoundError reports whether err is (or wraps) a not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StorageError reports a failure to remove the filesystem object behind a node.
type StorageError struct {
	ID   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("remove %s (%s): %v", e.ID, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Code returns ErrCodeStorage.
func (e *StorageError) Code() ErrorCode {
	return ErrCodeStorage
}

// CascadeError reports the node at which a recursive removal stopped.
// Nodes listed in Removed were deleted before the failure and stay deleted.
type CascadeError struct {
	Failed  string
	Removed []Node
	Err     error
}

func (e *CascadeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cascade stopped at %s", e.Failed)
	if n := len(e.Removed); n > 0 {
		fmt.Fprintf(&b, " after removing %d node(s)", n)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

// Code returns ErrCodeCascade.
func (e *CascadeError) Code() ErrorCode {
	return ErrCodeCascade
}
