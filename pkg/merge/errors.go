// Package merge combines two branches' histories into new commits on the target branch
package merge

import "errors"

var (
	// ErrUnknownStrategy indicates a strategy outside the closed enumeration
	ErrUnknownStrategy = errors.New("merge: unknown strategy")

	// ErrNoSourceCommits indicates a source branch without any commits
	ErrNoSourceCommits = errors.New("merge: source branch has no commits")
)
