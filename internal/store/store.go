// Package store persists the artifacts a chronograph workspace owns: the
// manifest, project descriptor, graph, automaton state/config/description,
// and snapshots, all under a hidden per-workspace directory. Writes go
// through a temp-file-then-rename path so a crashed save never leaves a
// half-written artifact behind.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// DirName is the hidden per-workspace subdirectory holding all artifacts.
const DirName = ".chronograph"

const (
	manifestFile    = "manifest.json"
	projectFile     = "project.json"
	graphFile       = "graph.json"
	automatonDir    = "automaton"
	stateFile       = "state.json"
	configFile      = "config.json"
	tickHistoryFile = "tick_history.json"
	descriptionFile = "description.json"
	snapshotsDir    = "snapshots"
)

// Store owns the on-disk artifacts for a single workspace.
type Store struct {
	workspaceRoot string
	dir           string
}

// New creates a Store rooted at workspaceRoot's hidden directory.
func New(workspaceRoot string) *Store {
	return &Store{
		workspaceRoot: workspaceRoot,
		dir:           filepath.Join(workspaceRoot, DirName),
	}
}

// Dir returns the hidden directory path backing this store.
func (s *Store) Dir() string { return s.dir }

// Init creates the directory tree. Idempotent: an existing tree is left
// untouched.
func (s *Store) Init() error {
	for _, d := range []string{s.dir, filepath.Join(s.dir, automatonDir), filepath.Join(s.dir, snapshotsDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", domain.ErrIoFailed, d, err)
		}
	}
	return nil
}

// Manifest is the top-level record of a synced workspace.
type Manifest struct {
	Version      int       `json:"version"`
	WorkspaceName string   `json:"workspace_name"`
	RootPath     string    `json:"root_path"`
	Kind         string    `json:"kind"`
	LastSync     time.Time `json:"last_sync"`
	RepoCount    int       `json:"repo_count"`
	FileCount    int       `json:"file_count"`
	RemoteURL    string    `json:"remote_url,omitempty"`
}

// SaveManifest atomically writes the manifest.
func (s *Store) SaveManifest(m Manifest) error {
	return s.writeJSON(filepath.Join(s.dir, manifestFile), m)
}

// LoadManifest reads the manifest, returning ErrStoreCorrupted on bad JSON
// and ErrWorkspaceNotFound when the manifest has never been written.
func (s *Store) LoadManifest() (Manifest, error) {
	var m Manifest
	err := s.readJSON(filepath.Join(s.dir, manifestFile), &m)
	return m, err
}

// SaveProject atomically writes a content-stripped project descriptor.
// Callers are responsible for stripping content before calling this (the
// scanner's ProjectDescriptor.StripContent does this).
func (s *Store) SaveProject(project any) error {
	return s.writeJSON(filepath.Join(s.dir, projectFile), project)
}

// LoadProject reads the project descriptor into dest.
func (s *Store) LoadProject(dest any) error {
	return s.readJSON(filepath.Join(s.dir, projectFile), dest)
}

// SaveGraph atomically writes the SourceCodeGraph.
func (s *Store) SaveGraph(g domain.SourceCodeGraph) error {
	return s.writeJSON(filepath.Join(s.dir, graphFile), g)
}

// LoadGraph reads the SourceCodeGraph, validating its invariants.
func (s *Store) LoadGraph() (domain.SourceCodeGraph, error) {
	var g domain.SourceCodeGraph
	if err := s.readJSON(filepath.Join(s.dir, graphFile), &g); err != nil {
		return g, err
	}
	if err := g.Validate(); err != nil {
		return domain.SourceCodeGraph{}, err
	}
	return g, nil
}

// SaveDescription atomically writes the automaton description document.
func (s *Store) SaveDescription(description any) error {
	return s.writeJSON(filepath.Join(s.dir, automatonDir, descriptionFile), description)
}

// LoadDescription reads the automaton description document into dest.
func (s *Store) LoadDescription(dest any) error {
	return s.readJSON(filepath.Join(s.dir, automatonDir, descriptionFile), dest)
}

// LoadDescriptionBytes reads the raw automaton description document, for
// callers that validate before unmarshaling.
func (s *Store) LoadDescriptionBytes() ([]byte, error) {
	path := filepath.Join(s.dir, automatonDir, descriptionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrWorkspaceNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrIoFailed, path, err)
	}
	return data, nil
}

// SaveState atomically writes the current automaton state.
func (s *Store) SaveState(state any) error {
	return s.writeJSON(filepath.Join(s.dir, automatonDir, stateFile), state)
}

// LoadState reads the current automaton state into dest.
func (s *Store) LoadState(dest any) error {
	return s.readJSON(filepath.Join(s.dir, automatonDir, stateFile), dest)
}

// SaveConfig atomically writes the last automaton configuration.
func (s *Store) SaveConfig(cfg any) error {
	return s.writeJSON(filepath.Join(s.dir, automatonDir, configFile), cfg)
}

// LoadConfig reads the last automaton configuration into dest.
func (s *Store) LoadConfig(dest any) error {
	return s.readJSON(filepath.Join(s.dir, automatonDir, configFile), dest)
}

// SaveTickHistory atomically writes the last run's tick results.
func (s *Store) SaveTickHistory(history any) error {
	return s.writeJSON(filepath.Join(s.dir, automatonDir, tickHistoryFile), history)
}

// LoadTickHistory reads the last run's tick results into dest.
func (s *Store) LoadTickHistory(dest any) error {
	return s.readJSON(filepath.Join(s.dir, automatonDir, tickHistoryFile), dest)
}

// Stats summarizes the on-disk footprint of a workspace's store.
type Stats struct {
	TotalSizeBytes int64 `json:"total_size_bytes"`
	FileCount      int   `json:"file_count"`
	SnapshotCount  int   `json:"snapshot_count"`
}

// ComputeStats walks the store directory and reports its size/file/snapshot
// counts.
func (s *Store) ComputeStats() (Stats, error) {
	var st Stats
	err := filepath.WalkDir(s.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		st.FileCount++
		st.TotalSizeBytes += info.Size()
		if filepath.Dir(p) == filepath.Join(s.dir, snapshotsDir) {
			st.SnapshotCount++
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("%w: computing stats: %v", domain.ErrIoFailed, err)
	}
	return st, nil
}

// Clean recursively removes the entire store directory.
func (s *Store) Clean() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("%w: cleaning %s: %v", domain.ErrIoFailed, s.dir, err)
	}
	return nil
}

// writeJSON marshals v and writes it to path via a temp-file-then-rename,
// atomic on platforms that support atomic rename. Elsewhere the write is
// best-effort: a crash between write and rename leaves the old file
// intact, never a truncated one.
func (s *Store) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", domain.ErrIoFailed, filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshaling %s: %v", domain.ErrIoFailed, path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file for %s: %v", domain.ErrIoFailed, path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", domain.ErrIoFailed, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", domain.ErrIoFailed, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: renaming into place %s: %v", domain.ErrIoFailed, path, err)
	}
	return nil
}

func (s *Store) readJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrWorkspaceNotFound, path)
		}
		return fmt.Errorf("%w: reading %s: %v", domain.ErrIoFailed, path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", domain.ErrStoreCorrupted, path, err)
	}
	return nil
}

// sortNewestFirst sorts file names assumed to embed a sortable prefix
// (ulid or unix-millis) such that lexicographic order matches chronological
// order, then reverses it.
func sortNewestFirst(names []string) {
	sort.Strings(names)
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
}
