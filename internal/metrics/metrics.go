// Package metrics provides Prometheus metrics for the docvault engine
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the version-control engine.
// Each Metrics instance carries its own registry so multiple engines can
// coexist in one process without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	// Commit metrics
	CommitsTotal   *prometheus.CounterVec
	CommitDuration prometheus.Histogram

	// Diff metrics
	DiffDuration    prometheus.Histogram
	ChangeSetsTotal prometheus.Counter

	// Merge metrics
	MergesTotal            *prometheus.CounterVec
	MergeDuration          *prometheus.HistogramVec
	ConflictsDetectedTotal prometheus.Counter
	ConflictsResolvedTotal *prometheus.CounterVec

	// Branch and tag metrics
	BranchesCreatedTotal prometheus.Counter
	TagOperationsTotal   *prometheus.CounterVec

	// Store gauges
	VersionsTotal  prometheus.Gauge
	BranchesTotal  prometheus.Gauge
	DocumentsTotal prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{registry: registry}

	m.CommitsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_commits_total",
			Help: "Total number of commit creation attempts",
		},
		[]string{"status"},
	)

	m.CommitDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docvault_commit_duration_seconds",
			Help:    "Duration of commit creation in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.DiffDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docvault_diff_duration_seconds",
			Help:    "Duration of change-set computation in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)

	m.ChangeSetsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_change_sets_total",
			Help: "Total number of change-set entries produced by the diff engine",
		},
	)

	m.MergesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_merges_total",
			Help: "Total number of merge operations",
		},
		[]string{"strategy", "status"},
	)

	m.MergeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docvault_merge_duration_seconds",
			Help:    "Duration of merge operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	m.ConflictsDetectedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_conflicts_detected_total",
			Help: "Total number of merge conflicts detected",
		},
	)

	m.ConflictsResolvedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_conflicts_resolved_total",
			Help: "Total number of merge conflicts auto-resolved",
		},
		[]string{"resolution"},
	)

	m.BranchesCreatedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docvault_branches_created_total",
			Help: "Total number of branches created",
		},
	)

	m.TagOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_tag_operations_total",
			Help: "Total number of tag operations",
		},
		[]string{"status"},
	)

	m.VersionsTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "docvault_versions_total",
			Help: "Total number of versions held by the store",
		},
	)

	m.BranchesTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "docvault_branches_total",
			Help: "Total number of branches held by the branch manager",
		},
	)

	m.DocumentsTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "docvault_documents_total",
			Help: "Total number of documents with at least one version",
		},
	)

	return m
}

// Registry returns the registry holding this engine's metrics, for scraping
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordCommit records a commit attempt with its status
func (m *Metrics) RecordCommit(status string, duration time.Duration) {
	m.CommitsTotal.WithLabelValues(status).Inc()
	m.CommitDuration.Observe(duration.Seconds())
}

// RecordDiff records one change-set computation
func (m *Metrics) RecordDiff(changeCount int, duration time.Duration) {
	m.DiffDuration.Observe(duration.Seconds())
	m.ChangeSetsTotal.Add(float64(changeCount))
}

// RecordMerge records a merge operation
func (m *Metrics) RecordMerge(strategy string, status string, duration time.Duration) {
	m.MergesTotal.WithLabelValues(strategy, status).Inc()
	m.MergeDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// UpdateStoreStats updates store size gauges
func (m *Metrics) UpdateStoreStats(versionCount, branchCount, documentCount int) {
	m.VersionsTotal.Set(float64(versionCount))
	m.BranchesTotal.Set(float64(branchCount))
	m.DocumentsTotal.Set(float64(documentCount))
}
