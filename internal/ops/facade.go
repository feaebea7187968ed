package ops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chronograph-dev/chronograph/internal/automaton"
	"github.com/chronograph-dev/chronograph/internal/config"
	"github.com/chronograph-dev/chronograph/internal/description"
	"github.com/chronograph-dev/chronograph/internal/graphbuild"
	"github.com/chronograph-dev/chronograph/internal/impact"
	"github.com/chronograph-dev/chronograph/internal/logging"
	"github.com/chronograph-dev/chronograph/internal/scanner"
	"github.com/chronograph-dev/chronograph/internal/store"
)

// ErrAutomatonFailed wraps any failure from the impact analyzer's
// automaton run, distinct from failures loading prerequisite state, so
// callers (the CLI) can map it to its own exit code.
var ErrAutomatonFailed = errors.New("automaton run failed")

// Facade owns one workspace's Store and Config and exposes every
// whole-workspace operation.
type Facade struct {
	root   string
	cfg    config.Config
	store  *store.Store
	logger *logging.Logger
}

// New builds a Facade rooted at workspacePath.
func New(workspacePath string, cfg config.Config, logger *logging.Logger) *Facade {
	if logger == nil {
		logger = logging.Default()
	}
	return &Facade{
		root:   workspacePath,
		cfg:    cfg,
		store:  store.New(workspacePath),
		logger: logger,
	}
}

// withLock acquires the workspace's exclusive write lock for the duration
// of fn, so concurrent saves against the same workspace serialize into
// last-writer-wins.
func (f *Facade) withLock(fn func() error) error {
	if err := f.store.Init(); err != nil {
		return err
	}
	lock := f.store.NewLock()
	if err := lock.Acquire(f.store); err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

// automatonConfig builds the tick-scheduling configuration from the
// workspace config, with an optional per-request tick-cap override.
func (f *Facade) automatonConfig(maxTicksOverride int) automaton.Config {
	cfg := automaton.Config{
		MaxTicks:                f.cfg.MaxTicks,
		HistoryWindow:           f.cfg.HistoryWindow,
		Parallel:                f.cfg.Parallel,
		StabilityThreshold:      f.cfg.StabilityThreshold,
		MinTicksBeforeStability: f.cfg.MinTicksBeforeStability,
	}
	if maxTicksOverride > 0 {
		cfg.MaxTicks = maxTicksOverride
	}
	return cfg
}

// Sync scans the workspace and persists its manifest, a content-stripped
// project descriptor, and a timestamped snapshot of the descriptor.
func (f *Facade) Sync(ctx context.Context, req SyncRequest) (SyncResponse, error) {
	correlationID := uuid.New().String()
	start := time.Now()
	f.logger.Info("sync starting", "correlation_id", correlationID, "workspace", req.WorkspacePath)

	sc := scanner.New(
		scanner.WithExcludeNames(f.cfg.ExcludeNames),
		scanner.WithExcludeGlobs(f.cfg.ExcludeGlobs),
		scanner.WithMaxContentSizeKB(f.cfg.MaxContentSizeKB),
	)
	desc, err := sc.Scan(req.WorkspacePath)
	if err != nil {
		return SyncResponse{}, fmt.Errorf("scanning workspace: %w", err)
	}

	fileCount := 0
	for _, repo := range desc.Repositories {
		fileCount += len(repo.Sources)
	}

	manifest := store.Manifest{
		Version:       1,
		WorkspaceName: desc.Name,
		RootPath:      req.WorkspacePath,
		Kind:          string(desc.Source),
		LastSync:      time.Now(),
		RepoCount:     len(desc.Repositories),
		FileCount:     fileCount,
		RemoteURL:     bestEffortRemoteURL(req.WorkspacePath),
	}

	err = f.withLock(func() error {
		stripped := desc.StripContent()
		if err := f.store.SaveProject(stripped); err != nil {
			return fmt.Errorf("saving project descriptor: %w", err)
		}
		if err := f.store.SaveManifest(manifest); err != nil {
			return fmt.Errorf("saving manifest: %w", err)
		}
		if _, err := f.store.SaveSnapshot(stripped); err != nil {
			return fmt.Errorf("snapshotting project descriptor: %w", err)
		}
		return f.store.PruneSnapshots(f.cfg.SnapshotKeep)
	})
	if err != nil {
		return SyncResponse{}, err
	}

	f.logger.Info("sync finished", "correlation_id", correlationID, "workspace", req.WorkspacePath,
		"files", fileCount, "duration_ms", time.Since(start).Milliseconds())

	return SyncResponse{
		CorrelationID: correlationID,
		Manifest:      manifest,
		RepoCount:     manifest.RepoCount,
		FileCount:     manifest.FileCount,
	}, nil
}

// GraphBuild reads the last-synced project descriptor, builds the static
// graph, generates its description, and persists both.
func (f *Facade) GraphBuild(ctx context.Context, req GraphBuildRequest) (GraphBuildResponse, error) {
	correlationID := uuid.New().String()
	start := time.Now()

	var desc scanner.ProjectDescriptor
	if err := f.store.LoadProject(&desc); err != nil {
		return GraphBuildResponse{}, fmt.Errorf("loading project descriptor (run sync first): %w", err)
	}

	// The persisted descriptor is content-stripped; re-expand from disk so
	// reference extraction has something to scan.
	rescanned, err := scanner.New(
		scanner.WithExcludeNames(f.cfg.ExcludeNames),
		scanner.WithExcludeGlobs(f.cfg.ExcludeGlobs),
		scanner.WithMaxContentSizeKB(f.cfg.MaxContentSizeKB),
	).Scan(req.WorkspacePath)
	if err == nil {
		desc = rescanned
	}

	builder := graphbuild.New(graphbuild.WithMaxContentSizeKB(f.cfg.MaxContentSizeKB))
	graph, err := builder.Build(desc)
	if err != nil {
		return GraphBuildResponse{}, fmt.Errorf("building graph: %w", err)
	}

	gen := description.New(description.StabilityConfig{
		EntryPoint: f.cfg.EntryPointStability,
		Directory:  f.cfg.DirectoryStability,
		Leaf:       f.cfg.LeafStability,
		Isolated:   f.cfg.IsolatedStability,
	}, description.WithLLMRules(f.cfg.LLM.Enabled))
	automatonDesc := gen.Generate(graph, desc.Name, time.Now())

	err = f.withLock(func() error {
		if err := f.store.SaveGraph(graph); err != nil {
			return fmt.Errorf("saving graph: %w", err)
		}
		if err := f.store.SaveDescription(automatonDesc); err != nil {
			return fmt.Errorf("saving description: %w", err)
		}
		return nil
	})
	if err != nil {
		return GraphBuildResponse{}, err
	}

	f.logger.Info("graph built", "correlation_id", correlationID, "workspace", req.WorkspacePath,
		"nodes", len(graph.Nodes), "edges", len(graph.Edges), "duration_ms", time.Since(start).Milliseconds())

	return GraphBuildResponse{
		CorrelationID: correlationID,
		NodeCount:     len(graph.Nodes),
		EdgeCount:     len(graph.Edges),
		Description:   automatonDesc,
	}, nil
}

// Status reports a workspace's current manifest and on-disk footprint.
func (f *Facade) Status(ctx context.Context, req StatusRequest) (StatusResponse, error) {
	manifest, err := f.store.LoadManifest()
	if err != nil {
		return StatusResponse{}, fmt.Errorf("loading manifest (run sync first): %w", err)
	}
	stats, err := f.store.ComputeStats()
	if err != nil {
		return StatusResponse{}, err
	}

	_, graphErr := f.store.LoadGraph()

	return StatusResponse{
		Manifest:   manifest,
		StoreStats: stats,
		HasGraph:   graphErr == nil,
	}, nil
}

// Load reads back the persisted graph and description without rebuilding
// them. The description is schema-validated and cross-checked against the
// graph's node set before it is returned.
func (f *Facade) Load(ctx context.Context, req LoadRequest) (LoadResponse, error) {
	graph, err := f.store.LoadGraph()
	if err != nil {
		return LoadResponse{}, fmt.Errorf("loading graph (run graph-build first): %w", err)
	}
	raw, err := f.store.LoadDescriptionBytes()
	if err != nil {
		return LoadResponse{}, fmt.Errorf("loading description (run graph-build first): %w", err)
	}
	desc, err := description.Parse(raw)
	if err != nil {
		return LoadResponse{}, err
	}
	if err := description.Validate(desc, graph); err != nil {
		return LoadResponse{}, err
	}
	return LoadResponse{Graph: graph, Description: desc}, nil
}

// Clean removes every persisted artifact for this workspace.
func (f *Facade) Clean(ctx context.Context, req CleanRequest) (CleanResponse, error) {
	if err := f.store.Clean(); err != nil {
		return CleanResponse{}, err
	}
	return CleanResponse{Removed: true}, nil
}

// Impact runs impact analysis over the persisted graph/description for
// req.ChangedPaths, falling back to GitChanges when none are given. The
// run's configuration, tick history, and final automaton state are
// persisted alongside the report.
func (f *Facade) Impact(ctx context.Context, req ImpactRequest) (ImpactResponse, error) {
	correlationID := uuid.New().String()

	loaded, err := f.Load(ctx, LoadRequest{WorkspacePath: req.WorkspacePath})
	if err != nil {
		return ImpactResponse{}, err
	}

	changed := req.ChangedPaths
	if len(changed) == 0 {
		gitResp, err := f.GitChanges(ctx, GitChangesRequest{WorkspacePath: req.WorkspacePath})
		if err != nil {
			return ImpactResponse{}, fmt.Errorf("no changed paths given and git-changes failed: %w", err)
		}
		changed = gitResp.ChangedPaths
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	analyzer := impact.New(impact.WithAutomatonConfig(f.automatonConfig(req.MaxTicks)))
	report, artifacts, err := analyzer.Analyze(ctx, loaded.Graph, loaded.Description, changed, loaded.Description.Meta.Name, now)
	if err != nil {
		return ImpactResponse{}, fmt.Errorf("%w: %v", ErrAutomatonFailed, err)
	}

	err = f.withLock(func() error {
		if err := f.store.SaveConfig(artifacts.Config); err != nil {
			return fmt.Errorf("saving automaton config: %w", err)
		}
		if err := f.store.SaveTickHistory(artifacts.TickHistory); err != nil {
			return fmt.Errorf("saving tick history: %w", err)
		}
		if err := f.store.SaveState(artifacts.State); err != nil {
			return fmt.Errorf("saving automaton state: %w", err)
		}
		return nil
	})
	if err != nil {
		return ImpactResponse{}, err
	}

	f.logger.Info("impact analyzed", "correlation_id", correlationID, "workspace", req.WorkspacePath,
		"ticks", report.TicksExecuted, "stabilized", report.Stabilized, "high_impact", report.Stats.HighImpact)

	return ImpactResponse{CorrelationID: correlationID, Report: report}, nil
}
