package impact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		activation float32
		want       Level
	}{
		{1.0, LevelHigh},
		{0.5, LevelHigh},
		{0.49, LevelMedium},
		{0.1, LevelMedium},
		{0.09, LevelLow},
		{0.01, LevelLow},
		{0.009, LevelNone},
		{0.0, LevelNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelFor(tc.activation), "activation=%v", tc.activation)
	}
}

// TestAnalyze_Idempotent: running twice with identical inputs must produce
// an identical ranking.
func TestAnalyze_Idempotent(t *testing.T) {
	graph := domain.SourceCodeGraph{
		Nodes: []domain.GraphNode{mkFile(0, "a.go"), mkFile(1, "b.go"), mkFile(2, "c.go")},
		Edges: []domain.GraphEdge{
			{ID: 0, From: 0, To: 1, Relationship: domain.RelationImports},
			{ID: 1, From: 1, To: 2, Relationship: domain.RelationImports},
		},
	}
	desc := describe(t, graph)
	a := New()

	r1, _, err := a.Analyze(context.Background(), graph, desc, []string{"a.go"}, "demo", time.Unix(0, 0))
	require.NoError(t, err)
	r2, _, err := a.Analyze(context.Background(), graph, desc, []string{"a.go"}, "demo", time.Unix(0, 0))
	require.NoError(t, err)

	assert.Equal(t, r1.TicksExecuted, r2.TicksExecuted)
	require.Equal(t, len(r1.Ranking), len(r2.Ranking))
	for i := range r1.Ranking {
		assert.Equal(t, r1.Ranking[i].NodeID, r2.Ranking[i].NodeID)
		assert.Equal(t, r1.Ranking[i].Activation, r2.Ranking[i].Activation)
	}
}

// TestAnalyze_EmptyChangedPaths: no changed paths leaves every node at
// zero activation, ranked LevelNone.
func TestAnalyze_EmptyChangedPaths(t *testing.T) {
	graph := domain.SourceCodeGraph{Nodes: []domain.GraphNode{mkFile(0, "a.go"), mkFile(1, "b.go")}}
	desc := describe(t, graph)

	a := New()
	report, _, err := a.Analyze(context.Background(), graph, desc, nil, "demo", time.Unix(0, 0))
	require.NoError(t, err)
	for _, r := range report.Ranking {
		assert.Equal(t, float32(0), r.Activation)
		assert.Equal(t, LevelNone, r.Level)
	}
	assert.Zero(t, report.Stats.HighImpact)
	assert.Zero(t, report.Stats.MediumImpact)
	assert.Zero(t, report.Stats.LowImpact)
	assert.Equal(t, 2, report.Stats.NoImpact)
}

// TestAnalyze_UnresolvedChangedPath: a changed path matching no node is
// recorded, not fatal.
func TestAnalyze_UnresolvedChangedPath(t *testing.T) {
	graph := domain.SourceCodeGraph{Nodes: []domain.GraphNode{mkFile(0, "a.go")}}
	desc := describe(t, graph)

	a := New()
	report, _, err := a.Analyze(context.Background(), graph, desc, []string{"nonexistent/path.go"}, "demo", time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"nonexistent/path.go"}, report.UnresolvedPaths)
	require.Len(t, report.Ranking, 1)
	assert.Equal(t, float32(0), report.Ranking[0].Activation)
	assert.False(t, report.Ranking[0].IsChanged)
}

// TestAnalyze_StatsAndArtifacts: the stats buckets partition the node set
// and the run artifacts carry the configuration and per-tick history.
func TestAnalyze_StatsAndArtifacts(t *testing.T) {
	graph := domain.SourceCodeGraph{
		Nodes: []domain.GraphNode{mkFile(0, "a.go"), mkFile(1, "b.go")},
		Edges: []domain.GraphEdge{
			{ID: 0, From: 0, To: 1, Relationship: domain.RelationImports},
		},
	}
	desc := describe(t, graph)

	a := New(WithMaxTicks(7))
	report, artifacts, err := a.Analyze(context.Background(), graph, desc, []string{"a.go"}, "demo", time.Unix(0, 0))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.TotalNodes)
	total := report.Stats.HighImpact + report.Stats.MediumImpact + report.Stats.LowImpact + report.Stats.NoImpact
	assert.Equal(t, report.Stats.TotalNodes, total)

	assert.Equal(t, 7, artifacts.Config.MaxTicks)
	assert.Len(t, artifacts.TickHistory, report.TicksExecuted)
	assert.Len(t, artifacts.State.Nodes, 2)
	for i, ns := range artifacts.State.Nodes {
		assert.EqualValues(t, i, ns.NodeID, "state nodes are ordered by id")
	}
}

// TestAnalyze_MaxTicksOverrideCapsRun: a tick cap below the convergence
// horizon stops the run unconverged rather than overrunning.
func TestAnalyze_MaxTicksOverrideCapsRun(t *testing.T) {
	graph := domain.SourceCodeGraph{
		Nodes: []domain.GraphNode{mkFile(0, "a.go"), mkFile(1, "b.go")},
		Edges: []domain.GraphEdge{
			{ID: 0, From: 0, To: 1, Relationship: domain.RelationImports},
		},
	}
	desc := describe(t, graph)

	a := New(WithMaxTicks(1))
	report, _, err := a.Analyze(context.Background(), graph, desc, []string{"a.go"}, "demo", time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, report.TicksExecuted)
	assert.False(t, report.Stabilized)
}
