// ABOUTME: Engine facade wiring the version store, branch manager and merge engine
// ABOUTME: Explicitly constructed by its owner; holds no ambient global state

package engine

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/buildvault/docvault/internal/logger"
	"github.com/buildvault/docvault/internal/metrics"
	"github.com/buildvault/docvault/pkg/branch"
	"github.com/buildvault/docvault/pkg/content"
	"github.com/buildvault/docvault/pkg/merge"
	"github.com/buildvault/docvault/pkg/version"
)

// Config configures an engine instance. The zero value is usable: logs are
// discarded, metrics are off, and content metadata uses the plain-text
// defaults.
type Config struct {
	Logger  *logger.Logger  // nil discards logs
	Metrics bool            // collect Prometheus metrics
	Content content.Options // zero value uses content defaults
}

// Engine is the version-control engine for document content: branches,
// commits, diffs, merges, tags and history queries over in-memory state.
//
// The engine holds no internal locks and assumes the caller serializes
// mutating calls per document id. All operations are synchronous; there is
// no blocking I/O inside the engine.
type Engine struct {
	store    *version.Store
	branches *branch.Manager
	merges   *merge.Engine
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// New constructs an engine. Owners construct one engine value and pass it
// by reference to callers; there is no package-level instance.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	var m *metrics.Metrics
	if cfg.Metrics {
		m = metrics.NewMetrics()
	}

	branches := branch.NewManager(log)
	store := version.NewStore(branches, version.StoreOptions{
		Logger:  log,
		Metrics: m,
		Content: cfg.Content,
	})

	return &Engine{
		store:    store,
		branches: branches,
		merges:   merge.NewEngine(store, branches, log, m),
		log:      log,
		metrics:  m,
	}
}

// CreateCommit creates a new commit on a branch, creating the branch (and
// the document's main branch) implicitly when needed.
func (e *Engine) CreateCommit(p version.CreateParams) (*version.DocumentVersion, error) {
	return e.store.CreateVersion(p)
}

// CreateBranch forks a new branch from an existing one
func (e *Engine) CreateBranch(documentID, name, fromBranch, createdBy string) (*branch.DocumentBranch, error) {
	b, err := e.branches.Create(documentID, name, fromBranch, createdBy)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.BranchesCreatedTotal.Inc()
	}
	return b, nil
}

// Merge merges fromBranch into toBranch under the given strategy
func (e *Engine) Merge(documentID, fromBranch, toBranch, mergedBy string, strategy merge.Strategy) (*merge.Result, error) {
	return e.merges.MergeBranches(documentID, fromBranch, toBranch, mergedBy, strategy)
}

// RevertToVersion creates a new commit carrying the target version's
// content, chained onto the branch's current head.
func (e *Engine) RevertToVersion(documentID, versionID, branchName, revertedBy string) (*version.DocumentVersion, error) {
	target, err := e.store.GetVersion(versionID)
	if err != nil {
		return nil, err
	}
	if target.DocumentID != documentID {
		return nil, fmt.Errorf("%w: %s does not belong to document %s", version.ErrVersionNotFound, versionID, documentID)
	}

	if branchName == "" {
		branchName = branch.DefaultBranchName
	}

	var parentID string
	if b, err := e.branches.Get(documentID, branchName); err == nil {
		parentID = b.LastCommitID
	}

	return e.store.CreateVersion(version.CreateParams{
		DocumentID:      documentID,
		Content:         target.Content,
		Message:         fmt.Sprintf("Revert to version %s", target.VersionNumber),
		AuthorID:        revertedBy,
		AuthorName:      revertedBy,
		BranchName:      branchName,
		ParentVersionID: parentID,
	})
}

// GetCommit retrieves a commit by id
func (e *Engine) GetCommit(id string) (*version.DocumentVersion, error) {
	return e.store.GetVersion(id)
}

// GetCommitInfo retrieves the derived graph view of a commit
func (e *Engine) GetCommitInfo(id string) (*version.CommitInfo, error) {
	return e.store.GetCommitInfo(id)
}

// GetVersionHistory returns a document's commits newest-first
func (e *Engine) GetVersionHistory(documentID, branchName string, limit int) []*version.DocumentVersion {
	return e.store.GetVersionHistory(documentID, branchName, limit)
}

// GetCommitGraph returns a document's commit graph with parent and child links
func (e *Engine) GetCommitGraph(documentID string) []*version.CommitGraphNode {
	return e.store.GetCommitGraph(documentID)
}

// GetBranches returns all branches of a document, default branch first
func (e *Engine) GetBranches(documentID string) []*branch.DocumentBranch {
	return e.branches.List(documentID)
}

// CompareVersions reports the differences between two versions
func (e *Engine) CompareVersions(id1, id2 string) (*version.VersionComparison, error) {
	return e.store.CompareVersions(id1, id2)
}

// TagVersion attaches a unique named tag to a commit
func (e *Engine) TagVersion(versionID, tag, taggedBy string) error {
	return e.store.TagVersion(versionID, tag, taggedBy)
}

// ListTags returns every tag of a document
func (e *Engine) ListTags(documentID string) []version.TagEntry {
	return e.store.ListTags(documentID)
}

// DocumentStats summarizes one document's footprint in the engine
type DocumentStats struct {
	Commits  int
	Branches int
	Tags     int
}

// Stats returns per-document commit, branch and tag counts
func (e *Engine) Stats(documentID string) DocumentStats {
	return DocumentStats{
		Commits:  len(e.store.GetVersionHistory(documentID, "", 0)),
		Branches: len(e.branches.List(documentID)),
		Tags:     len(e.store.ListTags(documentID)),
	}
}

// MetricsRegistry returns the Prometheus registry holding this engine's
// metrics, or nil when metrics are disabled.
func (e *Engine) MetricsRegistry() *prometheus.Registry {
	if e.metrics == nil {
		return nil
	}
	return e.metrics.Registry()
}
