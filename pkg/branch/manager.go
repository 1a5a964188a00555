// ABOUTME: Branch manager owning mutable branch pointers per document
// ABOUTME: Handles implicit main creation, branch forking and merge policy

package branch

import (
	"fmt"
	"time"

	"github.com/buildvault/docvault/internal/logger"
)

// Manager exclusively owns all DocumentBranch records. Branches only ever
// reference commit ids; commit content lives in the version store.
//
// The manager holds no locks; the caller serializes mutating calls per
// document id.
type Manager struct {
	branches   map[string]*DocumentBranch // keyed by BranchID
	byDocument map[string][]string        // branch ids per document, creation order
	log        *logger.Logger
}

// NewManager creates an empty branch manager
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		branches:   make(map[string]*DocumentBranch),
		byDocument: make(map[string][]string),
		log:        log,
	}
}

// Get returns the branch or ErrBranchNotFound
func (m *Manager) Get(documentID, name string) (*DocumentBranch, error) {
	b, ok := m.branches[BranchID(documentID, name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrBranchNotFound, documentID, name)
	}
	return b, nil
}

// GetOrCreate returns the named branch, creating it if missing. Idempotent.
// The main branch is created default and protected with a one-approval merge
// rule; any other branch starts unprotected and inherits its permissions
// from the document's default branch.
func (m *Manager) GetOrCreate(documentID, name, createdBy string) *DocumentBranch {
	if b, ok := m.branches[BranchID(documentID, name)]; ok {
		return b
	}
	return m.create(documentID, name, createdBy, "")
}

// Create forks a new branch from an existing one. The new branch's head is
// initialized to the source branch's current head; no commit is created.
func (m *Manager) Create(documentID, name, fromBranch, createdBy string) (*DocumentBranch, error) {
	if _, ok := m.branches[BranchID(documentID, name)]; ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrBranchExists, documentID, name)
	}

	source, err := m.Get(documentID, fromBranch)
	if err != nil {
		return nil, fmt.Errorf("source branch %s: %w", fromBranch, err)
	}

	b := m.create(documentID, name, createdBy, source.LastCommitID)

	m.log.BranchLogger("create").Info("Branch created").
		Str("document_id", documentID).
		Str("branch", name).
		Str("from_branch", fromBranch).
		Str("head", b.LastCommitID).
		Send()

	return b, nil
}

func (m *Manager) create(documentID, name, createdBy, headCommitID string) *DocumentBranch {
	b := &DocumentBranch{
		ID:           BranchID(documentID, name),
		DocumentID:   documentID,
		Name:         name,
		LastCommitID: headCommitID,
		CreatedAt:    time.Now(),
		CreatedBy:    createdBy,
		Status:       StatusActive,
	}

	if name == DefaultBranchName {
		b.IsDefault = true
		b.IsProtected = true
		b.MergeRules = []MergeRule{{Type: RuleMinApprovals, Value: 1}}
		// Deletion is withheld from main
		b.Access = Access{
			Read:  []string{AccessWildcard},
			Write: []string{AccessWildcard},
			Merge: []string{AccessWildcard},
		}
	} else {
		b.Access = m.inheritedAccess(documentID, createdBy)
	}

	m.branches[b.ID] = b
	m.byDocument[documentID] = append(m.byDocument[documentID], b.ID)
	return b
}

// inheritedAccess copies read/write/merge permissions from the document's
// default branch; deletion is granted to the branch creator.
func (m *Manager) inheritedAccess(documentID, createdBy string) Access {
	access := Access{
		Read:   []string{AccessWildcard},
		Write:  []string{AccessWildcard},
		Merge:  []string{AccessWildcard},
		Delete: []string{createdBy},
	}

	if parent, ok := m.branches[BranchID(documentID, DefaultBranchName)]; ok {
		access.Read = append([]string(nil), parent.Access.Read...)
		access.Write = append([]string(nil), parent.Access.Write...)
		access.Merge = append([]string(nil), parent.Access.Merge...)
	}

	return access
}

// List returns all branches for a document in creation order, default first
func (m *Manager) List(documentID string) []*DocumentBranch {
	ids := m.byDocument[documentID]
	branches := make([]*DocumentBranch, 0, len(ids))

	for _, id := range ids {
		if b := m.branches[id]; b != nil && b.IsDefault {
			branches = append(branches, b)
		}
	}
	for _, id := range ids {
		if b := m.branches[id]; b != nil && !b.IsDefault {
			branches = append(branches, b)
		}
	}

	return branches
}

// AdvanceHead repoints a branch to a new head commit
func (m *Manager) AdvanceHead(documentID, name, commitID string) error {
	b, err := m.Get(documentID, name)
	if err != nil {
		return err
	}

	b.LastCommitID = commitID
	return nil
}

// SetStatus transitions a branch's lifecycle status
func (m *Manager) SetStatus(documentID, name string, status Status) error {
	b, err := m.Get(documentID, name)
	if err != nil {
		return err
	}

	b.Status = status
	return nil
}

// ValidateMerge checks the target branch's access descriptor and merge rules
// against the merging user. The merging user counts as one implicit approval,
// so a min-approvals rule of one is satisfied by the merge request itself;
// rules demanding more fail with ErrPermissionDenied since the engine holds
// no approval records.
func (m *Manager) ValidateMerge(target *DocumentBranch, mergedBy string) error {
	if !Allows(target.Access.Merge, mergedBy) {
		return fmt.Errorf("%w: user %s may not merge into %s", ErrPermissionDenied, mergedBy, target.Name)
	}

	for _, rule := range target.MergeRules {
		if rule.Type == RuleMinApprovals && rule.Value > 1 {
			return fmt.Errorf("%w: branch %s requires %d approvals", ErrPermissionDenied, target.Name, rule.Value)
		}
	}

	return nil
}

// Count returns the total number of branches across all documents
func (m *Manager) Count() int {
	return len(m.branches)
}
