// ABOUTME: Merge engine with conflict detection and strategy dispatch
// ABOUTME: Materializes merge commits and repoints the target branch

package merge

import (
	"fmt"
	"time"

	"github.com/buildvault/docvault/internal/logger"
	"github.com/buildvault/docvault/internal/metrics"
	"github.com/buildvault/docvault/pkg/branch"
	"github.com/buildvault/docvault/pkg/version"
)

// longLivedBranches are integration branches never auto-marked merged
var longLivedBranches = map[string]bool{
	"main":    true,
	"master":  true,
	"develop": true,
}

// Engine detects conflicting changes between two branch heads and either
// resolves them per strategy or reports them for manual resolution.
//
// A merge either fully completes (merge commit created, target branch
// repointed, source optionally marked merged) or fully aborts with nothing
// mutated.
type Engine struct {
	store    *version.Store
	branches *branch.Manager
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewEngine creates a merge engine over the given store and branch manager
func NewEngine(store *version.Store, branches *branch.Manager, log *logger.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		store:    store,
		branches: branches,
		log:      log,
		metrics:  m,
	}
}

// MergeBranches merges fromBranch into toBranch.
//
// Conflicts are change-set pairs at the same path and line position in both
// heads. Under the manual strategy any conflict aborts the merge with a
// structured non-success result. The ours and theirs strategies resolve
// conflicts toward the target and source branch respectively. Fast-forward
// and recursive degrade to ours when conflicts exist; that diverges from
// conventional version-control semantics (a true fast-forward cannot have
// conflicts) and is kept for compatibility with the workflow this engine
// replaced.
func (e *Engine) MergeBranches(documentID, fromBranch, toBranch, mergedBy string, strategy Strategy) (*Result, error) {
	start := time.Now()
	mlog := e.log.MergeLogger(documentID, fromBranch, toBranch)

	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	source, err := e.branches.Get(documentID, fromBranch)
	if err != nil {
		return nil, fmt.Errorf("resolve source branch: %w", err)
	}
	target, err := e.branches.Get(documentID, toBranch)
	if err != nil {
		return nil, fmt.Errorf("resolve target branch: %w", err)
	}

	if err := e.branches.ValidateMerge(target, mergedBy); err != nil {
		e.recordMerge(strategy, "denied", start)
		return nil, err
	}

	if source.LastCommitID == "" {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoSourceCommits, documentID, fromBranch)
	}
	sourceHead, err := e.store.GetVersion(source.LastCommitID)
	if err != nil {
		return nil, fmt.Errorf("load source head: %w", err)
	}

	var targetHead *version.DocumentVersion
	if target.LastCommitID != "" {
		targetHead, err = e.store.GetVersion(target.LastCommitID)
		if err != nil {
			return nil, fmt.Errorf("load target head: %w", err)
		}
	}

	conflicts := detectConflicts(sourceHead, targetHead)
	if e.metrics != nil && len(conflicts) > 0 {
		e.metrics.ConflictsDetectedTotal.Add(float64(len(conflicts)))
	}

	if len(conflicts) > 0 && strategy == StrategyManual {
		mlog.Warn("Merge requires manual resolution").
			Int("conflicts", len(conflicts)).
			Send()
		e.recordMerge(strategy, "conflicts", start)
		return &Result{
			Success:   false,
			Conflicts: conflicts,
			Message:   fmt.Sprintf("merge of %s into %s requires manual resolution of %d conflicts", fromBranch, toBranch, len(conflicts)),
		}, nil
	}

	resolutions := e.resolveConflicts(conflicts, strategy, mergedBy)
	mergedContent := mergeContent(sourceHead, targetHead, strategy, len(conflicts) > 0)

	mergeCommit, err := e.store.CreateVersion(version.CreateParams{
		DocumentID:      documentID,
		Content:         mergedContent,
		Message:         fmt.Sprintf("Merge branch '%s' into '%s'", fromBranch, toBranch),
		AuthorID:        mergedBy,
		AuthorName:      mergedBy,
		BranchName:      toBranch,
		ParentVersionID: target.LastCommitID,
	})
	if err != nil {
		e.recordMerge(strategy, "error", start)
		return nil, fmt.Errorf("create merge commit: %w", err)
	}

	info := version.MergeInfo{
		SourceBranch:      fromBranch,
		TargetBranch:      toBranch,
		Strategy:          string(strategy),
		ConflictsDetected: len(conflicts) > 0,
		MergedAt:          time.Now(),
		MergedBy:          mergedBy,
	}
	if err := e.store.AttachMergeInfo(mergeCommit.ID, info, resolutions); err != nil {
		return nil, fmt.Errorf("attach merge info: %w", err)
	}

	if !source.IsDefault && !longLivedBranches[source.Name] {
		if err := e.branches.SetStatus(documentID, fromBranch, branch.StatusMerged); err != nil {
			return nil, fmt.Errorf("mark source branch merged: %w", err)
		}
	}

	message := fmt.Sprintf("merged %s into %s", fromBranch, toBranch)
	if len(conflicts) > 0 {
		message = fmt.Sprintf("%s (%d conflicts auto-resolved)", message, len(conflicts))
	}

	e.log.LogMergeCompleted(documentID, fromBranch, toBranch, string(strategy), len(conflicts), time.Since(start), nil)
	e.recordMerge(strategy, "success", start)

	return &Result{
		Success:       true,
		Conflicts:     conflicts,
		MergeCommitID: mergeCommit.ID,
		Message:       message,
	}, nil
}

// detectConflicts pairs up source and target head changes at the same path
// and line position. A target branch with no head cannot conflict.
func detectConflicts(sourceHead, targetHead *version.DocumentVersion) []Conflict {
	if targetHead == nil {
		return nil
	}

	var conflicts []Conflict
	for _, sc := range sourceHead.ChangeSets {
		for _, tc := range targetHead.ChangeSets {
			if sc.Path == tc.Path && sc.LineNumber == tc.LineNumber {
				conflicts = append(conflicts, Conflict{
					Type:         ConflictTypeContent,
					Path:         sc.Path,
					LineNumber:   sc.LineNumber,
					SourceChange: sc,
					TargetChange: tc,
				})
			}
		}
	}
	return conflicts
}

// resolveConflicts produces the resolution records for auto-resolved
// conflicts. Theirs accepts the source (incoming) branch's value; every
// other strategy that reaches this point accepts the target (current)
// branch's value.
func (e *Engine) resolveConflicts(conflicts []Conflict, strategy Strategy, resolvedBy string) []version.ConflictResolution {
	if len(conflicts) == 0 {
		return nil
	}

	resolution := version.ResolutionAcceptCurrent
	if strategy == StrategyTheirs {
		resolution = version.ResolutionAcceptIncoming
	}

	resolutions := make([]version.ConflictResolution, 0, len(conflicts))
	for _, c := range conflicts {
		resolutions = append(resolutions, version.ConflictResolution{
			ConflictType: c.Type,
			Path:         c.Path,
			Resolution:   resolution,
			ResolvedBy:   resolvedBy,
			ResolvedAt:   time.Now(),
			Explanation:  fmt.Sprintf("auto-resolved using %s strategy", strategy),
		})
		if e.metrics != nil {
			e.metrics.ConflictsResolvedTotal.WithLabelValues(resolution).Inc()
		}
	}
	return resolutions
}

// mergeContent materializes the merged payload. This is a simplified
// placeholder that picks which branch's content wins rather than performing
// a structural three-way merge; the winning branch is identified by the
// merge commit's MergeInfo and result message.
func mergeContent(sourceHead, targetHead *version.DocumentVersion, strategy Strategy, hadConflicts bool) string {
	if targetHead == nil {
		return sourceHead.Content
	}
	if sourceHead.Metadata.ContentHash == targetHead.Metadata.ContentHash {
		return targetHead.Content
	}
	if hadConflicts && strategy != StrategyTheirs {
		return targetHead.Content
	}
	return sourceHead.Content
}

func (e *Engine) recordMerge(strategy Strategy, status string, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordMerge(string(strategy), status, time.Since(start))
	}
}
