// Package ops is the operations façade: the single place that wires
// scanner, graphbuild, description, impact, automaton, and store together
// into the handful of whole-workspace operations a CLI (or any other
// frontend) drives. Each operation is a pure function of (request,
// on-disk workspace state), returning a response struct a caller renders
// however it likes — the façade itself never prints.
package ops

import (
	"time"

	"github.com/chronograph-dev/chronograph/internal/description"
	"github.com/chronograph-dev/chronograph/internal/domain"
	"github.com/chronograph-dev/chronograph/internal/impact"
	"github.com/chronograph-dev/chronograph/internal/store"
)

// SyncRequest drives Sync.
type SyncRequest struct {
	WorkspacePath string
}

// SyncResponse reports what Sync found.
type SyncResponse struct {
	CorrelationID string         `json:"correlation_id"`
	Manifest      store.Manifest `json:"manifest"`
	RepoCount     int            `json:"repo_count"`
	FileCount     int            `json:"file_count"`
}

// GraphBuildRequest drives GraphBuild.
type GraphBuildRequest struct {
	WorkspacePath string
}

// GraphBuildResponse reports the graph and description GraphBuild produced.
type GraphBuildResponse struct {
	CorrelationID string                           `json:"correlation_id"`
	NodeCount     int                              `json:"node_count"`
	EdgeCount     int                              `json:"edge_count"`
	Description   description.AutomatonDescription `json:"description"`
}

// StatusRequest drives Status.
type StatusRequest struct {
	WorkspacePath string
}

// StatusResponse reports a workspace's current on-disk footprint.
type StatusResponse struct {
	Manifest   store.Manifest `json:"manifest"`
	StoreStats store.Stats    `json:"store_stats"`
	HasGraph   bool           `json:"has_graph"`
}

// LoadRequest drives Load.
type LoadRequest struct {
	WorkspacePath string
}

// LoadResponse carries the graph and description read back from disk.
type LoadResponse struct {
	Graph       domain.SourceCodeGraph           `json:"graph"`
	Description description.AutomatonDescription `json:"description"`
}

// CleanRequest drives Clean.
type CleanRequest struct {
	WorkspacePath string
}

// CleanResponse confirms a Clean.
type CleanResponse struct {
	Removed bool `json:"removed"`
}

// GitChangesRequest drives GitChanges.
type GitChangesRequest struct {
	WorkspacePath string
	// Ref, if non-empty, diffs against it instead of the working tree's
	// last commit (e.g. "HEAD~1", "main").
	Ref string
}

// GitChangesResponse is the changed-path list GitChanges found.
type GitChangesResponse struct {
	ChangedPaths []string `json:"changed_paths"`
}

// ImpactRequest drives Impact.
type ImpactRequest struct {
	WorkspacePath string
	// ChangedPaths is used directly if non-empty; otherwise Impact shells
	// out to GitChanges first.
	ChangedPaths []string
	// MaxTicks, if positive, overrides the workspace config's tick cap for
	// this run only.
	MaxTicks int
	Now      time.Time
}

// ImpactResponse wraps the impact analysis report.
type ImpactResponse struct {
	CorrelationID string        `json:"correlation_id"`
	Report        impact.Report `json:"report"`
}

// WatchRequest drives Watch.
type WatchRequest struct {
	WorkspacePath string
}

// WatchEvent is one filesystem change Watch reports.
type WatchEvent struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}
