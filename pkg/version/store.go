// ABOUTME: In-memory version store with branch-aware semantic numbering
// ABOUTME: Owns all commit records, commit infos, tags and history queries

package version

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildvault/docvault/internal/logger"
	"github.com/buildvault/docvault/internal/metrics"
	"github.com/buildvault/docvault/pkg/branch"
	"github.com/buildvault/docvault/pkg/content"
	"github.com/buildvault/docvault/pkg/diff"
)

// Store exclusively owns all DocumentVersion and CommitInfo records.
// Every cross-reference (parent id, branch head) is a lookup key into the
// owned tables, never a live pointer into another component.
//
// The store holds no locks; the caller serializes mutating calls per
// document id.
type Store struct {
	versions   map[string]*DocumentVersion  // by version id
	byDocument map[string][]string          // version ids per document, creation order
	commitInfo map[string]*CommitInfo       // by version id
	tags       map[string]map[string]string // documentID -> tag name -> version id

	branches    *branch.Manager
	contentOpts content.Options
	log         *logger.Logger
	metrics     *metrics.Metrics
}

// StoreOptions configures a version store
type StoreOptions struct {
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	Content content.Options
}

// NewStore creates an empty version store backed by the given branch manager
func NewStore(branches *branch.Manager, opts StoreOptions) *Store {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Content == (content.Options{}) {
		opts.Content = content.DefaultOptions()
	}

	return &Store{
		versions:    make(map[string]*DocumentVersion),
		byDocument:  make(map[string][]string),
		commitInfo:  make(map[string]*CommitInfo),
		tags:        make(map[string]map[string]string),
		branches:    branches,
		contentOpts: opts.Content,
		log:         opts.Logger,
		metrics:     opts.Metrics,
	}
}

// CreateParams describes one commit to create
type CreateParams struct {
	DocumentID      string
	Content         string
	Message         string
	AuthorID        string
	AuthorName      string
	BranchName      string // defaults to main
	ParentVersionID string // optional explicit parent
	Status          string // defaults to draft
}

// CreateVersion creates a new immutable commit on a branch.
//
// Version numbering: with an explicit parent the new commit is the parent's
// patch-level increment regardless of branch. Without one, the latest commit
// on the same branch (by timestamp) is incremented; a branch's very first
// commit on a fresh document gets 1.0.0.
func (s *Store) CreateVersion(p CreateParams) (*DocumentVersion, error) {
	start := time.Now()

	if p.BranchName == "" {
		p.BranchName = branch.DefaultBranchName
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}

	s.branches.GetOrCreate(p.DocumentID, p.BranchName, p.AuthorID)

	parent, err := s.resolveParent(p)
	if err != nil {
		s.recordCommit("error", start)
		return nil, err
	}

	semantic := InitialVersion
	if parent != nil {
		semantic = parent.Semantic.NextPatch()
	}

	id := uuid.NewString()
	meta := content.BuildMetadata(p.DocumentID, id, []byte(p.Content), s.contentOpts)

	var changes []diff.ChangeSet
	if parent != nil {
		diffStart := time.Now()
		changes = diff.Compute(parent.Content, p.Content)
		if s.metrics != nil {
			s.metrics.RecordDiff(len(changes), time.Since(diffStart))
		}
	} else {
		changes = diff.FullInsert(p.Content)
	}

	v := &DocumentVersion{
		ID:            id,
		DocumentID:    p.DocumentID,
		Semantic:      semantic,
		VersionNumber: semantic.String(),
		BranchName:    p.BranchName,
		Message:       p.Message,
		AuthorID:      p.AuthorID,
		AuthorName:    p.AuthorName,
		CreatedAt:     time.Now(),
		Content:       p.Content,
		Metadata:      meta,
		ChangeSets:    changes,
		Status:        p.Status,
	}

	info := &CommitInfo{
		CommitID: id,
		Stats:    diff.ComputeStats(changes),
	}
	if parent != nil {
		v.ParentVersionID = parent.ID
		info.ParentIDs = []string{parent.ID}
	}

	s.versions[id] = v
	s.byDocument[p.DocumentID] = append(s.byDocument[p.DocumentID], id)
	s.commitInfo[id] = info

	if err := s.branches.AdvanceHead(p.DocumentID, p.BranchName, id); err != nil {
		// The branch was just resolved above; a miss here means the
		// caller violated the single-writer contract. Unwind so no
		// partial state survives.
		delete(s.versions, id)
		delete(s.commitInfo, id)
		ids := s.byDocument[p.DocumentID]
		s.byDocument[p.DocumentID] = ids[:len(ids)-1]
		s.recordCommit("error", start)
		return nil, fmt.Errorf("advance branch head: %w", err)
	}

	s.log.LogCommitCreated(p.DocumentID, id, v.VersionNumber, p.BranchName, len(changes))
	s.recordCommit("success", start)
	s.updateGauges()

	return v, nil
}

// resolveParent returns the commit the new version descends from: the
// explicit parent when one is stated, otherwise the latest commit on the
// same branch. A stated parent that cannot be resolved within the document
// is ErrInvalidParent.
func (s *Store) resolveParent(p CreateParams) (*DocumentVersion, error) {
	if p.ParentVersionID != "" {
		parent, ok := s.versions[p.ParentVersionID]
		if !ok || parent.DocumentID != p.DocumentID {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParent, p.ParentVersionID)
		}
		return parent, nil
	}
	return s.latestOnBranch(p.DocumentID, p.BranchName), nil
}

// latestOnBranch returns the most recent commit on a branch by timestamp,
// or nil when the branch has none.
func (s *Store) latestOnBranch(documentID, branchName string) *DocumentVersion {
	var latest *DocumentVersion
	for _, id := range s.byDocument[documentID] {
		v := s.versions[id]
		if v.BranchName != branchName {
			continue
		}
		if latest == nil || !v.CreatedAt.Before(latest.CreatedAt) {
			latest = v
		}
	}
	return latest
}

// GetVersion retrieves a commit by id
func (s *Store) GetVersion(id string) (*DocumentVersion, error) {
	v, ok := s.versions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
	}
	return v, nil
}

// GetVersionHistory returns a document's commits newest-first, optionally
// filtered to one branch and capped at limit (0 = no limit).
func (s *Store) GetVersionHistory(documentID, branchName string, limit int) []*DocumentVersion {
	ids := s.byDocument[documentID]
	history := make([]*DocumentVersion, 0, len(ids))

	for i := len(ids) - 1; i >= 0; i-- {
		v := s.versions[ids[i]]
		if branchName != "" && v.BranchName != branchName {
			continue
		}
		history = append(history, v)
		if limit > 0 && len(history) >= limit {
			break
		}
	}

	return history
}

// GetCommitGraph returns every commit of a document with parent and child
// links, in creation order.
func (s *Store) GetCommitGraph(documentID string) []*CommitGraphNode {
	ids := s.byDocument[documentID]

	children := make(map[string][]string)
	for _, id := range ids {
		for _, parentID := range s.commitInfo[id].ParentIDs {
			children[parentID] = append(children[parentID], id)
		}
	}

	nodes := make([]*CommitGraphNode, 0, len(ids))
	for _, id := range ids {
		v := s.versions[id]
		nodes = append(nodes, &CommitGraphNode{
			CommitID:   id,
			Message:    v.Message,
			AuthorID:   v.AuthorID,
			AuthorName: v.AuthorName,
			Timestamp:  v.CreatedAt,
			Branch:     v.BranchName,
			ParentIDs:  append([]string(nil), s.commitInfo[id].ParentIDs...),
			ChildIDs:   append([]string(nil), children[id]...),
		})
	}

	return nodes
}

// GetCommitInfo returns the derived graph view of one commit
func (s *Store) GetCommitInfo(id string) (*CommitInfo, error) {
	info, ok := s.commitInfo[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
	}
	return info, nil
}

// CompareVersions reports metadata differences and per-field change
// statistics between two versions of the same document.
func (s *Store) CompareVersions(id1, id2 string) (*VersionComparison, error) {
	v1, err := s.GetVersion(id1)
	if err != nil {
		return nil, err
	}
	v2, err := s.GetVersion(id2)
	if err != nil {
		return nil, err
	}
	if v1.DocumentID != v2.DocumentID {
		return nil, fmt.Errorf("version: cannot compare versions of different documents (%s, %s)", v1.DocumentID, v2.DocumentID)
	}

	cmp := &VersionComparison{
		VersionID1:     v1.ID,
		VersionID2:     v2.ID,
		VersionNumber1: v1.VersionNumber,
		VersionNumber2: v2.VersionNumber,
		SameContent:    v1.Metadata.ContentHash == v2.Metadata.ContentHash,
		SizeDelta:      v2.Metadata.Size - v1.Metadata.Size,
		FieldDiffs:     make(map[string]FieldDiff),
	}

	addFieldDiff(cmp.FieldDiffs, "content_hash", v1.Metadata.ContentHash, v2.Metadata.ContentHash)
	addFieldDiff(cmp.FieldDiffs, "size", fmt.Sprintf("%d", v1.Metadata.Size), fmt.Sprintf("%d", v2.Metadata.Size))
	addFieldDiff(cmp.FieldDiffs, "mime_type", v1.Metadata.MimeType, v2.Metadata.MimeType)
	addFieldDiff(cmp.FieldDiffs, "branch", v1.BranchName, v2.BranchName)
	addFieldDiff(cmp.FieldDiffs, "status", v1.Status, v2.Status)

	cmp.Changes = diff.Compute(v1.Content, v2.Content)
	cmp.Stats = diff.ComputeStats(cmp.Changes)

	return cmp, nil
}

func addFieldDiff(diffs map[string]FieldDiff, field, oldVal, newVal string) {
	if oldVal != newVal {
		diffs[field] = FieldDiff{Old: oldVal, New: newVal}
	}
}

// TagVersion attaches a named tag to a commit. Tag names are unique per
// document; attaching a duplicate name is an error, not an overwrite.
func (s *Store) TagVersion(versionID, tagName, taggedBy string) error {
	v, err := s.GetVersion(versionID)
	if err != nil {
		s.recordTag("error")
		return err
	}

	docTags := s.tags[v.DocumentID]
	if docTags == nil {
		docTags = make(map[string]string)
		s.tags[v.DocumentID] = docTags
	}
	if _, taken := docTags[tagName]; taken {
		s.recordTag("duplicate")
		return fmt.Errorf("%w: %s on document %s", ErrTagExists, tagName, v.DocumentID)
	}

	tag := VersionTag{Name: tagName, TaggedBy: taggedBy, TaggedAt: time.Now()}
	v.Tags = append(v.Tags, tag)
	docTags[tagName] = versionID

	s.log.StoreLogger("tag").Info("Version tagged").
		Str("document_id", v.DocumentID).
		Str("version_id", versionID).
		Str("tag", tagName).
		Send()
	s.recordTag("success")

	return nil
}

// ListTags returns every tag of a document in commit creation order
func (s *Store) ListTags(documentID string) []TagEntry {
	var entries []TagEntry
	for _, id := range s.byDocument[documentID] {
		for _, tag := range s.versions[id].Tags {
			entries = append(entries, TagEntry{
				Name:      tag.Name,
				VersionID: id,
				TaggedBy:  tag.TaggedBy,
				TaggedAt:  tag.TaggedAt,
			})
		}
	}
	return entries
}

// AttachMergeInfo fills in a merge commit's merge annotation, including the
// self-referential merge commit id, and its conflict resolutions.
func (s *Store) AttachMergeInfo(versionID string, info MergeInfo, resolutions []ConflictResolution) error {
	v, err := s.GetVersion(versionID)
	if err != nil {
		return err
	}

	info.MergeCommitID = versionID
	v.MergeInfo = &info
	v.ConflictResolutions = resolutions
	return nil
}

// VersionCount returns the number of versions across all documents
func (s *Store) VersionCount() int {
	return len(s.versions)
}

// DocumentCount returns the number of documents with at least one version
func (s *Store) DocumentCount() int {
	return len(s.byDocument)
}

func (s *Store) recordCommit(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordCommit(status, time.Since(start))
	}
}

func (s *Store) recordTag(status string) {
	if s.metrics != nil {
		s.metrics.TagOperationsTotal.WithLabelValues(status).Inc()
	}
}

func (s *Store) updateGauges() {
	if s.metrics != nil {
		s.metrics.UpdateStoreStats(len(s.versions), s.branches.Count(), len(s.byDocument))
	}
}
