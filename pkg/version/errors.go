// Package version owns the append-only collection of commits for all documents
package version

import "errors"

var (
	// ErrVersionNotFound indicates an unknown version or commit reference
	ErrVersionNotFound = errors.New("version: version not found")

	// ErrTagExists indicates a duplicate tag name for a document
	ErrTagExists = errors.New("version: tag already exists")

	// ErrInvalidParent indicates a stated parent version that cannot be resolved
	ErrInvalidParent = errors.New("version: parent version cannot be resolved")
)
