// ABOUTME: Version data model for the document version-control engine
// ABOUTME: Defines commits, semantic versions, tags, merge and conflict records

package version

import (
	"fmt"
	"time"

	"github.com/buildvault/docvault/pkg/content"
	"github.com/buildvault/docvault/pkg/diff"
)

// SemanticVersion is the three-part version number assigned to a commit.
// It strictly increases along any path from ancestor to descendant within
// the same branch lineage.
type SemanticVersion struct {
	Major int
	Minor int
	Patch int
}

// String renders the version as "major.minor.patch"
func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// NextPatch returns the patch-level increment of this version. Major and
// minor bumps are an explicit caller concern and never assigned here.
func (v SemanticVersion) NextPatch() SemanticVersion {
	return SemanticVersion{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// InitialVersion is assigned to a document's first commit
var InitialVersion = SemanticVersion{Major: 1, Minor: 0, Patch: 0}

// StatusDraft is the lifecycle label a new commit starts with. The label is
// opaque to the engine; callers may set any workflow status they use.
const StatusDraft = "draft"

// VersionTag is a named label attached to exactly one commit. Tag names are
// unique per document across all its commits.
type VersionTag struct {
	Name     string
	TaggedBy string
	TaggedAt time.Time
}

// TagEntry is a read-only projection of one tag for document-level listings
type TagEntry struct {
	Name      string
	VersionID string
	TaggedBy  string
	TaggedAt  time.Time
}

// Resolution choices recorded for resolved conflicts
const (
	ResolutionAcceptCurrent  = "accept_current"
	ResolutionAcceptIncoming = "accept_incoming"
)

// MergeInfo is attached to a merge commit. MergeCommitID is self-referential
// and filled in after the commit is created.
type MergeInfo struct {
	SourceBranch      string
	TargetBranch      string
	Strategy          string
	ConflictsDetected bool
	MergedAt          time.Time
	MergedBy          string
	MergeCommitID     string
}

// ConflictResolution records one resolved merge conflict
type ConflictResolution struct {
	ConflictType string
	Path         string
	Resolution   string // accept_current, accept_incoming, or manual text
	ResolvedBy   string
	ResolvedAt   time.Time
	Explanation  string
}

// DocumentVersion is one immutable commit in a document's history. Once
// created it is never mutated except to append tags (and, for merge commits,
// to fill in the self-referential merge info).
type DocumentVersion struct {
	ID              string
	DocumentID      string
	Semantic        SemanticVersion
	VersionNumber   string // rendered Semantic
	ParentVersionID string // empty only for a document's first commit
	BranchName      string
	Message         string
	AuthorID        string
	AuthorName      string
	CreatedAt       time.Time

	// Content holds the raw payload so diffs, merges and reverts can
	// replay it. A durable content-addressed store would hold the bytes
	// behind Metadata.StoragePointer instead.
	Content  string
	Metadata content.Metadata

	ChangeSets []diff.ChangeSet
	Status     string
	Tags       []VersionTag

	MergeInfo           *MergeInfo
	ConflictResolutions []ConflictResolution
}

// IsMergeCommit reports whether this commit was produced by a merge
func (v *DocumentVersion) IsMergeCommit() bool {
	return v.MergeInfo != nil
}

// CommitInfo is a derived, read-optimized view of a commit used for graph
// traversal. Produced alongside every commit and never independently mutated.
type CommitInfo struct {
	CommitID  string
	ParentIDs []string
	Stats     diff.Stats
}

// CommitGraphNode is one node of a document's commit graph, with child ids
// computed from the stored parent links.
type CommitGraphNode struct {
	CommitID   string
	Message    string
	AuthorID   string
	AuthorName string
	Timestamp  time.Time
	Branch     string
	ParentIDs  []string
	ChildIDs   []string
}

// FieldDiff is one metadata field that differs between two versions
type FieldDiff struct {
	Old string
	New string
}

// VersionComparison reports the differences between two versions of the
// same document.
type VersionComparison struct {
	VersionID1     string
	VersionID2     string
	VersionNumber1 string
	VersionNumber2 string
	SameContent    bool
	SizeDelta      int64
	FieldDiffs     map[string]FieldDiff
	Changes        []diff.ChangeSet
	Stats          diff.Stats
}
