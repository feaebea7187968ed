package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

func TestStore_InitIsIdempotent(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())
	require.NoError(t, s.Init())
}

func TestStore_ManifestRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	m := Manifest{
		Version:       1,
		WorkspaceName: "proj",
		RootPath:      "/ws/proj",
		Kind:          "single_repo",
		LastSync:      time.Now().Truncate(time.Second),
		RepoCount:     1,
		FileCount:     42,
	}
	require.NoError(t, s.SaveManifest(m))

	got, err := s.LoadManifest()
	require.NoError(t, err)
	assert.Equal(t, m.WorkspaceName, got.WorkspaceName)
	assert.Equal(t, m.FileCount, got.FileCount)
}

func TestStore_LoadManifest_MissingIsWorkspaceNotFound(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	_, err := s.LoadManifest()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}

func TestStore_GraphRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	g := domain.SourceCodeGraph{
		Nodes: []domain.GraphNode{
			{ID: 0, Name: "root", Kind: domain.NodeKindDirectory},
			{ID: 1, Name: "main.go", Kind: domain.NodeKindFile},
		},
		Edges: []domain.GraphEdge{
			{ID: 0, From: 0, To: 1, Relationship: domain.RelationContains},
		},
	}
	require.NoError(t, s.SaveGraph(g))

	got, err := s.LoadGraph()
	require.NoError(t, err)
	assert.Equal(t, g.Nodes, got.Nodes)
	assert.Equal(t, g.Edges, got.Edges)
}

func TestStore_GraphRoundTrip_Large(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	const nodeCount = 500
	const edgeCount = 2000
	g := domain.SourceCodeGraph{Metadata: map[string]string{"workspace": "big"}}
	for i := 0; i < nodeCount; i++ {
		g.Nodes = append(g.Nodes, domain.GraphNode{
			ID:   domain.NodeId(i),
			Name: "n",
			Kind: domain.NodeKindFile,
			Metadata: map[string]string{
				"relative_path": "pkg/file.go",
				"extension":     "go",
			},
		})
	}
	for i := 0; i < edgeCount; i++ {
		g.Edges = append(g.Edges, domain.GraphEdge{
			ID:           domain.EdgeId(i),
			From:         domain.NodeId(i % nodeCount),
			To:           domain.NodeId((i*7 + 1) % nodeCount),
			Relationship: domain.RelationImports,
		})
	}
	require.NoError(t, g.Validate())
	require.NoError(t, s.SaveGraph(g))

	got, err := s.LoadGraph()
	require.NoError(t, err)
	assert.Equal(t, g.Nodes, got.Nodes)
	assert.Equal(t, g.Edges, got.Edges)
	assert.Equal(t, g.Metadata, got.Metadata)
}

func TestStore_AutomatonArtifactsRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	cfg := map[string]any{"max_ticks": 50.0, "parallel": false}
	require.NoError(t, s.SaveConfig(cfg))
	var gotCfg map[string]any
	require.NoError(t, s.LoadConfig(&gotCfg))
	assert.Equal(t, cfg, gotCfg)

	history := []map[string]any{{"tick": 1.0, "transitions": 3.0}}
	require.NoError(t, s.SaveTickHistory(history))
	var gotHistory []map[string]any
	require.NoError(t, s.LoadTickHistory(&gotHistory))
	assert.Equal(t, history, gotHistory)

	state := map[string]any{"generated_at": "1970-01-01T00:00:00Z"}
	require.NoError(t, s.SaveState(state))
	var gotState map[string]any
	require.NoError(t, s.LoadState(&gotState))
	assert.Equal(t, state, gotState)
}

func TestStore_LoadGraph_CorruptedJSON(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())
	require.NoError(t, s.writeJSON(s.Dir()+"/graph.json", "not a graph"))

	_, err := s.LoadGraph()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreCorrupted)
}

func TestStore_SnapshotsNewestFirst(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	var ids []string
	for i := 0; i < 3; i++ {
		info, err := s.SaveSnapshot(map[string]int{"n": i})
		require.NoError(t, err)
		ids = append(ids, info.ID)
		time.Sleep(2 * time.Millisecond)
	}

	listed, err := s.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, ids[2], listed[0], "newest snapshot must be first")
	assert.Equal(t, ids[0], listed[2], "oldest snapshot must be last")
}

func TestStore_PruneSnapshotsKeepsNewest(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	for i := 0; i < 5; i++ {
		_, err := s.SaveSnapshot(map[string]int{"n": i})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	require.NoError(t, s.PruneSnapshots(2))
	listed, err := s.ListSnapshots()
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestStore_CleanRemovesDirectory(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())
	require.NoError(t, s.Clean())

	_, err := s.LoadManifest()
	require.Error(t, err)
}

func TestLock_AcquireRelease(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	l := s.NewLock()
	require.NoError(t, l.Acquire(s))
	require.NoError(t, l.Release())
	// Re-acquiring after release must not deadlock.
	require.NoError(t, l.Acquire(s))
	require.NoError(t, l.Release())
}
