// Package branch manages named branch pointers over a document's version history
package branch

import "errors"

var (
	// ErrBranchNotFound indicates an unknown branch reference
	ErrBranchNotFound = errors.New("branch: branch not found")

	// ErrBranchExists indicates a duplicate branch name for a document
	ErrBranchExists = errors.New("branch: branch already exists")

	// ErrPermissionDenied indicates a branch-policy violation
	ErrPermissionDenied = errors.New("branch: permission denied")
)
