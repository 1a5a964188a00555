// ABOUTME: Tests for the merge engine
// ABOUTME: Verifies conflict detection, strategy resolution and atomicity

package merge

import (
	"errors"
	"testing"

	"github.com/buildvault/docvault/pkg/branch"
	"github.com/buildvault/docvault/pkg/version"
)

func setupTestEngine() (*Engine, *version.Store, *branch.Manager) {
	branches := branch.NewManager(nil)
	store := version.NewStore(branches, version.StoreOptions{})
	return NewEngine(store, branches, nil, nil), store, branches
}

// forkWithCommit creates a feature branch off main's head and commits new
// content onto it, parented on the fork point.
func forkWithCommit(t *testing.T, store *version.Store, branches *branch.Manager, doc, name, content string) *version.DocumentVersion {
	t.Helper()

	main, err := branches.Get(doc, "main")
	if err != nil {
		t.Fatalf("Main branch missing: %v", err)
	}
	if _, err := branches.Create(doc, name, "main", "u2"); err != nil {
		t.Fatalf("Failed to fork %s: %v", name, err)
	}

	v, err := store.CreateVersion(version.CreateParams{
		DocumentID:      doc,
		Content:         content,
		Message:         "work on " + name,
		AuthorID:        "u2",
		BranchName:      name,
		ParentVersionID: main.LastCommitID,
	})
	if err != nil {
		t.Fatalf("Failed to commit on %s: %v", name, err)
	}
	return v
}

func TestCleanMergeIdenticalContent(t *testing.T) {
	e, store, branches := setupTestEngine()

	c0, _ := store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "line1\nline2", Message: "init", AuthorID: "u1",
	})
	forkWithCommit(t, store, branches, "doc1", "feature", "line1\nline2")

	result, err := e.MergeBranches("doc1", "feature", "main", "u1", StrategyRecursive)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if !result.Success {
		t.Fatal("Expected merge to succeed")
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Expected no conflicts, got %d", len(result.Conflicts))
	}

	mergeCommit, err := store.GetVersion(result.MergeCommitID)
	if err != nil {
		t.Fatalf("Merge commit not found: %v", err)
	}
	if mergeCommit.ParentVersionID != c0.ID {
		t.Errorf("Expected merge commit parent %s, got %s", c0.ID, mergeCommit.ParentVersionID)
	}

	main, _ := branches.Get("doc1", "main")
	if main.LastCommitID != mergeCommit.ID {
		t.Errorf("Expected main head repointed to %s, got %s", mergeCommit.ID, main.LastCommitID)
	}

	feature, _ := branches.Get("doc1", "feature")
	if feature.Status != branch.StatusMerged {
		t.Errorf("Expected feature marked merged, got %s", feature.Status)
	}
}

func TestManualConflictReturnsFailure(t *testing.T) {
	e, store, branches := setupTestEngine()

	c0, _ := store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "line1\nline2\nline3", Message: "init", AuthorID: "u1",
	})
	forkWithCommit(t, store, branches, "doc1", "feature", "line1\nline2\nfeature edit")

	// Advance main so both heads carry a change at line 3
	c1, _ := store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "line1\nline2\nmain edit", Message: "main change",
		AuthorID: "u1", ParentVersionID: c0.ID,
	})

	result, err := e.MergeBranches("doc1", "feature", "main", "u1", StrategyManual)
	if err != nil {
		t.Fatalf("Expected a structured result, got error: %v", err)
	}

	if result.Success {
		t.Fatal("Expected merge to fail under manual strategy")
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(result.Conflicts))
	}

	c := result.Conflicts[0]
	if c.Type != ConflictTypeContent {
		t.Errorf("Expected content conflict, got %s", c.Type)
	}
	if c.LineNumber != 3 || c.Path != "line:3" {
		t.Errorf("Expected conflict at line 3, got %s (%d)", c.Path, c.LineNumber)
	}

	// Nothing mutated: both heads unchanged, source still active
	main, _ := branches.Get("doc1", "main")
	if main.LastCommitID != c1.ID {
		t.Errorf("Expected main head unchanged at %s, got %s", c1.ID, main.LastCommitID)
	}
	feature, _ := branches.Get("doc1", "feature")
	if feature.Status != branch.StatusActive {
		t.Errorf("Expected feature still active, got %s", feature.Status)
	}
	if store.VersionCount() != 3 {
		t.Errorf("Expected no new commits, got %d versions", store.VersionCount())
	}
}

func TestOursResolvesTowardTarget(t *testing.T) {
	e, store, branches := setupTestEngine()

	c0, _ := store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "line1\nline2\nline3", AuthorID: "u1",
	})
	forkWithCommit(t, store, branches, "doc1", "feature", "line1\nline2\nfeature edit")
	store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "line1\nline2\nmain edit", AuthorID: "u1", ParentVersionID: c0.ID,
	})

	result, err := e.MergeBranches("doc1", "feature", "main", "u1", StrategyOurs)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !result.Success {
		t.Fatal("Expected merge to succeed")
	}

	mergeCommit, _ := store.GetVersion(result.MergeCommitID)
	if mergeCommit.Content != "line1\nline2\nmain edit" {
		t.Errorf("Expected target content to win, got %q", mergeCommit.Content)
	}

	if len(mergeCommit.ConflictResolutions) != 1 {
		t.Fatalf("Expected 1 resolution, got %d", len(mergeCommit.ConflictResolutions))
	}
	if mergeCommit.ConflictResolutions[0].Resolution != version.ResolutionAcceptCurrent {
		t.Errorf("Expected accept_current, got %s", mergeCommit.ConflictResolutions[0].Resolution)
	}
}

func TestTheirsResolvesTowardSource(t *testing.T) {
	e, store, branches := setupTestEngine()

	c0, _ := store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "line1\nline2\nline3", AuthorID: "u1",
	})
	forkWithCommit(t, store, branches, "doc1", "feature", "line1\nline2\nfeature edit")
	store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "line1\nline2\nmain edit", AuthorID: "u1", ParentVersionID: c0.ID,
	})

	result, err := e.MergeBranches("doc1", "feature", "main", "u1", StrategyTheirs)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	mergeCommit, _ := store.GetVersion(result.MergeCommitID)
	if mergeCommit.Content != "line1\nline2\nfeature edit" {
		t.Errorf("Expected source content to win, got %q", mergeCommit.Content)
	}
	if mergeCommit.ConflictResolutions[0].Resolution != version.ResolutionAcceptIncoming {
		t.Errorf("Expected accept_incoming, got %s", mergeCommit.ConflictResolutions[0].Resolution)
	}
}

func TestRecursiveDegradesToOursOnConflict(t *testing.T) {
	e, store, branches := setupTestEngine()

	c0, _ := store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "base line", AuthorID: "u1",
	})
	forkWithCommit(t, store, branches, "doc1", "feature", "feature line")
	store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "main line", AuthorID: "u1", ParentVersionID: c0.ID,
	})

	result, err := e.MergeBranches("doc1", "feature", "main", "u1", StrategyRecursive)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !result.Success {
		t.Fatal("Expected conflicted recursive merge to auto-resolve")
	}

	mergeCommit, _ := store.GetVersion(result.MergeCommitID)
	if mergeCommit.Content != "main line" {
		t.Errorf("Expected target content under degraded-ours, got %q", mergeCommit.Content)
	}
	if !mergeCommit.MergeInfo.ConflictsDetected {
		t.Error("Expected conflicts recorded on merge info")
	}
}

func TestCleanMergeSucceedsUnderAnyStrategy(t *testing.T) {
	strategies := []Strategy{StrategyFastForward, StrategyRecursive, StrategyOurs, StrategyTheirs, StrategyManual}

	for _, strategy := range strategies {
		e, store, branches := setupTestEngine()

		c0, _ := store.CreateVersion(version.CreateParams{
			DocumentID: "doc1", Content: "line1\nline2", AuthorID: "u1",
		})
		// Feature appends a third line; main edits line 1. No
		// positional overlap, so no conflicts.
		forkWithCommit(t, store, branches, "doc1", "feature", "line1\nline2\nline3")
		store.CreateVersion(version.CreateParams{
			DocumentID: "doc1", Content: "LINE1\nline2", AuthorID: "u1", ParentVersionID: c0.ID,
		})

		result, err := e.MergeBranches("doc1", "feature", "main", "u1", strategy)
		if err != nil {
			t.Fatalf("%s: merge failed: %v", strategy, err)
		}
		if !result.Success {
			t.Errorf("%s: expected conflict-free merge to succeed", strategy)
		}
		if len(result.Conflicts) != 0 {
			t.Errorf("%s: expected no conflicts, got %d", strategy, len(result.Conflicts))
		}
	}
}

func TestMergeInfoAttached(t *testing.T) {
	e, store, branches := setupTestEngine()

	store.CreateVersion(version.CreateParams{DocumentID: "doc1", Content: "a", AuthorID: "u1"})
	forkWithCommit(t, store, branches, "doc1", "feature", "a")

	result, err := e.MergeBranches("doc1", "feature", "main", "lead1", StrategyRecursive)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	mergeCommit, _ := store.GetVersion(result.MergeCommitID)
	info := mergeCommit.MergeInfo
	if info == nil {
		t.Fatal("Expected merge info on merge commit")
	}
	if info.SourceBranch != "feature" || info.TargetBranch != "main" {
		t.Errorf("Unexpected branches: %s -> %s", info.SourceBranch, info.TargetBranch)
	}
	if info.Strategy != string(StrategyRecursive) {
		t.Errorf("Expected recursive strategy, got %s", info.Strategy)
	}
	if info.ConflictsDetected {
		t.Error("Expected no conflicts detected")
	}
	if info.MergedBy != "lead1" {
		t.Errorf("Expected mergedBy lead1, got %s", info.MergedBy)
	}
	if info.MergeCommitID != mergeCommit.ID {
		t.Errorf("Expected self-referential merge commit id, got %s", info.MergeCommitID)
	}
	if !mergeCommit.IsMergeCommit() {
		t.Error("Expected IsMergeCommit to report true")
	}
}

func TestMergeMissingBranch(t *testing.T) {
	e, store, _ := setupTestEngine()
	store.CreateVersion(version.CreateParams{DocumentID: "doc1", Content: "a", AuthorID: "u1"})

	_, err := e.MergeBranches("doc1", "nonexistent", "main", "u1", StrategyRecursive)
	if !errors.Is(err, branch.ErrBranchNotFound) {
		t.Errorf("Expected ErrBranchNotFound, got %v", err)
	}

	_, err = e.MergeBranches("doc1", "main", "nonexistent", "u1", StrategyRecursive)
	if !errors.Is(err, branch.ErrBranchNotFound) {
		t.Errorf("Expected ErrBranchNotFound, got %v", err)
	}
}

func TestMergeRuleDenied(t *testing.T) {
	e, store, branches := setupTestEngine()

	store.CreateVersion(version.CreateParams{DocumentID: "doc1", Content: "a", AuthorID: "u1"})
	forkWithCommit(t, store, branches, "doc1", "feature", "b")

	main, _ := branches.Get("doc1", "main")
	main.MergeRules = []branch.MergeRule{{Type: branch.RuleMinApprovals, Value: 3}}

	_, err := e.MergeBranches("doc1", "feature", "main", "u1", StrategyRecursive)
	if !errors.Is(err, branch.ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied, got %v", err)
	}

	// Nothing mutated
	if store.VersionCount() != 2 {
		t.Errorf("Expected no merge commit, got %d versions", store.VersionCount())
	}
}

func TestMergeUnknownStrategy(t *testing.T) {
	e, store, branches := setupTestEngine()
	store.CreateVersion(version.CreateParams{DocumentID: "doc1", Content: "a", AuthorID: "u1"})
	forkWithCommit(t, store, branches, "doc1", "feature", "b")

	_, err := e.MergeBranches("doc1", "feature", "main", "u1", Strategy("octopus"))
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}
}

func TestMergeEmptySourceBranch(t *testing.T) {
	e, store, branches := setupTestEngine()
	store.CreateVersion(version.CreateParams{DocumentID: "doc1", Content: "a", AuthorID: "u1"})

	// GetOrCreate without a fork leaves the new branch with no head
	branches.GetOrCreate("doc1", "orphan", "u1")

	_, err := e.MergeBranches("doc1", "orphan", "main", "u1", StrategyRecursive)
	if !errors.Is(err, ErrNoSourceCommits) {
		t.Errorf("Expected ErrNoSourceCommits, got %v", err)
	}
}

func TestMergeIntoEmptyTarget(t *testing.T) {
	e, store, branches := setupTestEngine()

	branches.GetOrCreate("doc1", "main", "u1")
	store.CreateVersion(version.CreateParams{
		DocumentID: "doc1", Content: "drafted elsewhere", AuthorID: "u1", BranchName: "feature",
	})

	result, err := e.MergeBranches("doc1", "feature", "main", "u1", StrategyRecursive)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !result.Success {
		t.Fatal("Expected merge into empty target to succeed")
	}

	mergeCommit, _ := store.GetVersion(result.MergeCommitID)
	if mergeCommit.Content != "drafted elsewhere" {
		t.Errorf("Expected source content, got %q", mergeCommit.Content)
	}
	if mergeCommit.ParentVersionID != "" {
		t.Errorf("Expected no parent for first commit on main, got %s", mergeCommit.ParentVersionID)
	}

	main, _ := branches.Get("doc1", "main")
	if main.LastCommitID != mergeCommit.ID {
		t.Error("Expected main head repointed")
	}
}

func TestParseStrategy(t *testing.T) {
	for _, valid := range []string{"fast-forward", "recursive", "ours", "theirs", "manual"} {
		if _, err := ParseStrategy(valid); err != nil {
			t.Errorf("Expected %s to parse, got %v", valid, err)
		}
	}

	if _, err := ParseStrategy("rebase"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Expected ErrUnknownStrategy, got %v", err)
	}
}
