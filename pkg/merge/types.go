// ABOUTME: Merge strategy and conflict data model
// ABOUTME: Defines the closed strategy enumeration and merge results

package merge

import (
	"fmt"

	"github.com/buildvault/docvault/pkg/diff"
)

// Strategy is the closed set of merge strategies. It is dispatched
// exhaustively at the one decision point in the merge engine.
type Strategy string

const (
	StrategyFastForward Strategy = "fast-forward"
	StrategyRecursive   Strategy = "recursive"
	StrategyOurs        Strategy = "ours"
	StrategyTheirs      Strategy = "theirs"
	StrategyManual      Strategy = "manual"
)

// ParseStrategy validates a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyFastForward, StrategyRecursive, StrategyOurs, StrategyTheirs, StrategyManual:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// ConflictTypeContent marks two branches changing the same line position
const ConflictTypeContent = "content"

// Conflict is one pair of changes the source and target branch heads made
// at the same path and line position.
type Conflict struct {
	Type         string
	Path         string
	LineNumber   int
	SourceChange diff.ChangeSet
	TargetChange diff.ChangeSet
}

// Result is the outcome of a merge operation. A non-success result carries
// the full conflict list and guarantees nothing was mutated.
type Result struct {
	Success       bool
	Conflicts     []Conflict
	MergeCommitID string
	Message       string
}
