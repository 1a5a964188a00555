// ABOUTME: Tests for the branch manager
// ABOUTME: Verifies implicit main creation, forking and merge policy

package branch

import (
	"errors"
	"testing"
)

func TestGetOrCreateMain(t *testing.T) {
	m := NewManager(nil)

	b := m.GetOrCreate("doc1", "main", "user1")

	if b.ID != "doc1_main" {
		t.Errorf("Expected id doc1_main, got %s", b.ID)
	}
	if !b.IsDefault {
		t.Error("Expected main to be the default branch")
	}
	if !b.IsProtected {
		t.Error("Expected main to be protected")
	}
	if len(b.MergeRules) != 1 || b.MergeRules[0].Type != RuleMinApprovals || b.MergeRules[0].Value != 1 {
		t.Errorf("Expected one min_approvals=1 rule, got %+v", b.MergeRules)
	}
	if len(b.Access.Delete) != 0 {
		t.Error("Expected deletion to be withheld from main")
	}
	if b.Status != StatusActive {
		t.Errorf("Expected active status, got %s", b.Status)
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	m := NewManager(nil)

	first := m.GetOrCreate("doc1", "main", "user1")
	second := m.GetOrCreate("doc1", "main", "user2")

	if first != second {
		t.Error("Expected the same branch record on repeated calls")
	}
	if second.CreatedBy != "user1" {
		t.Errorf("Expected original creator, got %s", second.CreatedBy)
	}
}

func TestGetOrCreateNonMain(t *testing.T) {
	m := NewManager(nil)
	m.GetOrCreate("doc1", "main", "user1")

	b := m.GetOrCreate("doc1", "feature", "user2")

	if b.IsDefault || b.IsProtected {
		t.Error("Expected non-main branch to be unprotected and non-default")
	}
	if len(b.MergeRules) != 0 {
		t.Errorf("Expected no merge rules, got %+v", b.MergeRules)
	}
	if !Allows(b.Access.Delete, "user2") {
		t.Error("Expected branch creator to hold delete permission")
	}
}

func TestCreateBranch(t *testing.T) {
	m := NewManager(nil)
	main := m.GetOrCreate("doc1", "main", "user1")
	main.LastCommitID = "commit-42"

	b, err := m.Create("doc1", "feature", "main", "user2")
	if err != nil {
		t.Fatalf("Failed to create branch: %v", err)
	}

	if b.LastCommitID != "commit-42" {
		t.Errorf("Expected head commit-42, got %s", b.LastCommitID)
	}
}

func TestCreateDuplicateBranch(t *testing.T) {
	m := NewManager(nil)
	m.GetOrCreate("doc1", "main", "user1")
	if _, err := m.Create("doc1", "feature", "main", "user1"); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	_, err := m.Create("doc1", "feature", "main", "user1")
	if !errors.Is(err, ErrBranchExists) {
		t.Errorf("Expected ErrBranchExists, got %v", err)
	}
}

func TestCreateFromMissingBranch(t *testing.T) {
	m := NewManager(nil)
	m.GetOrCreate("doc1", "main", "user1")

	_, err := m.Create("doc1", "feature", "nonexistent", "user1")
	if !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("Expected ErrBranchNotFound, got %v", err)
	}
}

func TestListBranchesDefaultFirst(t *testing.T) {
	m := NewManager(nil)
	m.GetOrCreate("doc1", "feature", "user1")
	m.GetOrCreate("doc1", "main", "user1")
	m.GetOrCreate("doc1", "hotfix", "user1")
	m.GetOrCreate("doc2", "main", "user1")

	branches := m.List("doc1")

	if len(branches) != 3 {
		t.Fatalf("Expected 3 branches, got %d", len(branches))
	}
	if branches[0].Name != "main" {
		t.Errorf("Expected main first, got %s", branches[0].Name)
	}
}

func TestAdvanceHead(t *testing.T) {
	m := NewManager(nil)
	m.GetOrCreate("doc1", "main", "user1")

	if err := m.AdvanceHead("doc1", "main", "commit-7"); err != nil {
		t.Fatalf("AdvanceHead failed: %v", err)
	}

	b, _ := m.Get("doc1", "main")
	if b.LastCommitID != "commit-7" {
		t.Errorf("Expected head commit-7, got %s", b.LastCommitID)
	}

	if err := m.AdvanceHead("doc1", "missing", "commit-8"); !errors.Is(err, ErrBranchNotFound) {
		t.Errorf("Expected ErrBranchNotFound, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	m := NewManager(nil)
	m.GetOrCreate("doc1", "feature", "user1")

	if err := m.SetStatus("doc1", "feature", StatusMerged); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	b, _ := m.Get("doc1", "feature")
	if b.Status != StatusMerged {
		t.Errorf("Expected merged status, got %s", b.Status)
	}
}

func TestValidateMerge(t *testing.T) {
	m := NewManager(nil)
	main := m.GetOrCreate("doc1", "main", "user1")

	// One required approval is satisfied by the merge request itself
	if err := m.ValidateMerge(main, "user2"); err != nil {
		t.Errorf("Expected merge to validate, got %v", err)
	}

	// Higher thresholds cannot be met without approval records
	main.MergeRules = []MergeRule{{Type: RuleMinApprovals, Value: 2}}
	if err := m.ValidateMerge(main, "user2"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied, got %v", err)
	}
}

func TestValidateMergeAccess(t *testing.T) {
	m := NewManager(nil)
	main := m.GetOrCreate("doc1", "main", "user1")
	main.Access.Merge = []string{"lead1"}

	if err := m.ValidateMerge(main, "lead1"); err != nil {
		t.Errorf("Expected lead1 to merge, got %v", err)
	}

	if err := m.ValidateMerge(main, "user2"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied for user2, got %v", err)
	}
}
