package impact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronograph-dev/chronograph/internal/description"
	"github.com/chronograph-dev/chronograph/internal/domain"
)

func mkFile(id domain.NodeId, relPath string) domain.GraphNode {
	return domain.GraphNode{ID: id, Name: relPath, Kind: domain.NodeKindFile, Metadata: map[string]string{"relative_path": relPath}}
}

func describe(t *testing.T, graph domain.SourceCodeGraph) description.AutomatonDescription {
	t.Helper()
	gen := description.New(description.StabilityConfig{EntryPoint: 1.0, Directory: 0.8, Leaf: 0.3, Isolated: 0.1})
	return gen.Generate(graph, "scenario", time.Unix(0, 0))
}

// TestAnalyze_LinearChain: A -> B -> C (A imports B imports C), seeded at
// A. Activation must reach both B and C, decaying with distance.
func TestAnalyze_LinearChain(t *testing.T) {
	graph := domain.SourceCodeGraph{
		Nodes: []domain.GraphNode{mkFile(0, "a.go"), mkFile(1, "b.go"), mkFile(2, "c.go")},
		Edges: []domain.GraphEdge{
			{ID: 0, From: 0, To: 1, Relationship: domain.RelationImports},
			{ID: 1, From: 1, To: 2, Relationship: domain.RelationImports},
		},
	}
	desc := describe(t, graph)

	a := New()
	report, _, err := a.Analyze(context.Background(), graph, desc, []string{"a.go"}, "demo", time.Unix(0, 0))
	require.NoError(t, err)
	assert.LessOrEqual(t, report.TicksExecuted, 10)

	byID := map[domain.NodeId]RankedNode{}
	for _, r := range report.Ranking {
		byID[r.NodeID] = r
	}

	assert.True(t, byID[0].IsChanged)
	assert.Equal(t, LevelHigh, byID[0].Level)
	assert.Greater(t, byID[0].Activation, byID[1].Activation)
	assert.GreaterOrEqual(t, byID[1].Activation, byID[2].Activation)
	assert.True(t, byID[2].Activation > 0, "c.go is transitively reached and must show nonzero activation")
	assert.NotEqual(t, LevelNone, byID[2].Level, "every node in the chain shows some impact")
}

// TestAnalyze_Hub: 10 importers of a shared hub file, seeded at the hub.
// Every importer must pick up activation from the file it depends on, and
// the hub itself must hold its seeded activation.
func TestAnalyze_Hub(t *testing.T) {
	nodes := []domain.GraphNode{mkFile(0, "hub.go")}
	var edges []domain.GraphEdge
	const importers = 10
	for i := 1; i <= importers; i++ {
		nodes = append(nodes, mkFile(domain.NodeId(i), "importer.go"))
		edges = append(edges, domain.GraphEdge{ID: domain.EdgeId(i), From: domain.NodeId(i), To: 0, Relationship: domain.RelationImports})
	}
	graph := domain.SourceCodeGraph{Nodes: nodes, Edges: edges}
	desc := describe(t, graph)

	a := New()
	report, _, err := a.Analyze(context.Background(), graph, desc, []string{"hub.go"}, "demo", time.Unix(0, 0))
	require.NoError(t, err)
	assert.LessOrEqual(t, report.TicksExecuted, 8, "hub propagation is one hop and must settle quickly")

	byID := map[domain.NodeId]RankedNode{}
	for _, r := range report.Ranking {
		byID[r.NodeID] = r
	}

	assert.Equal(t, LevelHigh, byID[0].Level)
	assert.InDelta(t, 1.0, byID[0].Activation, 0.05, "the seeded hub holds its activation")
	for i := 1; i <= importers; i++ {
		assert.GreaterOrEqual(t, byID[domain.NodeId(i)].Activation, float32(0.2),
			"importer %d must receive activation from the hub it depends on", i)
	}
}

// TestAnalyze_Cycle: A -> B -> A, seeded at A. A cycle must not prevent
// the automaton from reaching a stable fixed point, and clamping keeps
// every activation within [0, 1].
func TestAnalyze_Cycle(t *testing.T) {
	graph := domain.SourceCodeGraph{
		Nodes: []domain.GraphNode{mkFile(0, "a.go"), mkFile(1, "b.go")},
		Edges: []domain.GraphEdge{
			{ID: 0, From: 0, To: 1, Relationship: domain.RelationImports},
			{ID: 1, From: 1, To: 0, Relationship: domain.RelationImports},
		},
	}
	desc := describe(t, graph)

	a := New()
	report, _, err := a.Analyze(context.Background(), graph, desc, []string{"a.go"}, "demo", time.Unix(0, 0))
	require.NoError(t, err)
	assert.True(t, report.Stabilized, "a cycle must still converge to a stable fixed point")
	assert.Less(t, report.TicksExecuted, 50)
	for _, r := range report.Ranking {
		assert.LessOrEqual(t, r.Activation, float32(1.0))
		assert.GreaterOrEqual(t, r.Activation, float32(0.0))
	}
}
