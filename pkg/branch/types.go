// ABOUTME: Branch data model for document version control
// ABOUTME: Defines branch records, merge rules and access descriptors

package branch

import "time"

// DefaultBranchName is the branch created implicitly the first time a
// document is touched.
const DefaultBranchName = "main"

// Status represents the lifecycle state of a branch
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusMerged Status = "merged"
)

// MergeRule types
const (
	RuleMinApprovals = "min_approvals"
)

// MergeRule is one policy a merge into the branch must satisfy
type MergeRule struct {
	Type  string // e.g. min_approvals
	Value int
}

// AccessWildcard grants a permission to every user
const AccessWildcard = "*"

// Access describes who may read, write, merge into, or delete a branch.
// Each list holds user ids, or the wildcard.
type Access struct {
	Read   []string
	Write  []string
	Merge  []string
	Delete []string
}

// DocumentBranch is a named, mutable pointer into a document's history.
// LastCommitID always names a commit that exists in the version store and
// belongs to the same document.
type DocumentBranch struct {
	ID           string // {documentID}_{name}
	DocumentID   string
	Name         string
	LastCommitID string // empty until the first commit lands
	CreatedAt    time.Time
	CreatedBy    string
	IsDefault    bool
	IsProtected  bool
	Status       Status
	MergeRules   []MergeRule
	Access       Access
}

// BranchID builds the composite identifier for a document branch
func BranchID(documentID, name string) string {
	return documentID + "_" + name
}

// Allows reports whether the access list grants the user, either directly
// or via the wildcard.
func Allows(list []string, userID string) bool {
	for _, entry := range list {
		if entry == AccessWildcard || entry == userID {
			return true
		}
	}
	return false
}
