package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

func threeNodeChain() domain.SourceCodeGraph {
	return domain.SourceCodeGraph{
		Nodes: []domain.GraphNode{
			{ID: 0, Name: "a.go", Kind: domain.NodeKindFile},
			{ID: 1, Name: "b.go", Kind: domain.NodeKindFile},
			{ID: 2, Name: "c.go", Kind: domain.NodeKindFile},
		},
		Edges: []domain.GraphEdge{
			{ID: 0, From: 0, To: 1, Relationship: domain.RelationImports},
			{ID: 1, From: 1, To: 2, Relationship: domain.RelationImports},
		},
	}
}

func TestNew_BuildsAdjacencyBothDirections(t *testing.T) {
	tg := New(threeNodeChain(), 10, time.Now())

	nb, ok := tg.Neighborhood(1)
	require.True(t, ok)
	require.Len(t, nb.Incoming, 1)
	require.Len(t, nb.Outgoing, 1)
	assert.Equal(t, domain.NodeId(0), nb.Incoming[0].Node.ID)
	assert.Equal(t, domain.NodeId(2), nb.Outgoing[0].Node.ID)
}

func TestNeighborhood_AllNeighborsDeduplicates(t *testing.T) {
	g := domain.SourceCodeGraph{
		Nodes: []domain.GraphNode{
			{ID: 0, Name: "a"}, {ID: 1, Name: "b"},
		},
		Edges: []domain.GraphEdge{
			{ID: 0, From: 0, To: 1, Relationship: domain.RelationUses},
			{ID: 1, From: 1, To: 0, Relationship: domain.RelationUses},
		},
	}
	tg := New(g, 10, time.Now())
	nb, ok := tg.Neighborhood(0)
	require.True(t, ok)
	all := nb.AllNeighbors()
	require.Len(t, all, 1)
	assert.Equal(t, domain.NodeId(1), all[0].ID)
}

func TestApplyTransition_SequenceInvariant(t *testing.T) {
	tg := New(threeNodeChain(), 4, time.Now())

	const n = 10
	for i := 0; i < n; i++ {
		_, err := tg.ApplyTransition(0, "rule-x", domain.StateData{Activation: 0.5}, time.Now())
		require.NoError(t, err)
	}

	node, ok := tg.GetNode(0)
	require.True(t, ok)

	assert.EqualValues(t, n+1, node.Evolution.NextSequence)
	assert.Equal(t, 4, len(node.Evolution.History), "history must be bounded to history_window")
	assert.EqualValues(t, n, node.Evolution.Current.Sequence)

	// History sequences must be strictly monotonic and end at current.Sequence-1.
	for i := 1; i < len(node.Evolution.History); i++ {
		assert.Less(t, node.Evolution.History[i-1].Sequence, node.Evolution.History[i].Sequence)
	}
	last := node.Evolution.History[len(node.Evolution.History)-1]
	assert.Equal(t, node.Evolution.Current.Sequence-1, last.Sequence)
}

func TestApplyTransition_UnknownNode(t *testing.T) {
	tg := New(threeNodeChain(), 4, time.Now())
	_, err := tg.ApplyTransition(99, "rule-x", domain.StateData{}, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestHistoryWindowOne(t *testing.T) {
	tg := New(threeNodeChain(), 1, time.Now())
	_, err := tg.ApplyTransition(0, "rule-x", domain.StateData{Activation: 0.2}, time.Now())
	require.NoError(t, err)

	node, _ := tg.GetNode(0)
	require.Len(t, node.Evolution.History, 1, "history_window=1 retains exactly one prior transition")
	assert.Equal(t, domain.RuleInitial, node.Evolution.History[0].RuleID)
}

func TestSetInitialState_ClearsHistory(t *testing.T) {
	tg := New(threeNodeChain(), 4, time.Now())
	for i := 0; i < 3; i++ {
		_, err := tg.ApplyTransition(0, "rule-x", domain.StateData{Activation: 0.1}, time.Now())
		require.NoError(t, err)
	}

	require.NoError(t, tg.SetInitialState(0, domain.StateData{Activation: 0.9}, time.Now()))

	node, _ := tg.GetNode(0)
	assert.Empty(t, node.Evolution.History)
	assert.EqualValues(t, 1, node.Evolution.NextSequence)
	assert.Equal(t, float32(0.9), node.Evolution.Current.State.Activation)
}

func TestApplyExternal_IncrementsSequenceLikeRule(t *testing.T) {
	tg := New(threeNodeChain(), 4, time.Now())
	tr, err := tg.ApplyExternal(0, domain.StateData{Activation: 0.3}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.RuleExternal, tr.RuleID)
	assert.EqualValues(t, 1, tr.Sequence)

	node, _ := tg.GetNode(0)
	assert.EqualValues(t, 2, node.Evolution.NextSequence)
}

func TestStats(t *testing.T) {
	tg := New(threeNodeChain(), 4, time.Now())
	_, err := tg.ApplyTransition(0, "rule-x", domain.StateData{Activation: 1.0}, time.Now())
	require.NoError(t, err)

	st := tg.Stats()
	assert.Equal(t, 3, st.NodeCount)
	assert.Equal(t, 2, st.EdgeCount)
	assert.Equal(t, 1, st.EvolvedNodeCount)
	assert.EqualValues(t, 1, st.TotalTransitions)
	assert.InDelta(t, 1.0/3.0, st.AvgActivation, 0.001)
}

func TestClampActivation(t *testing.T) {
	tg := New(threeNodeChain(), 4, time.Now())
	_, err := tg.ApplyTransition(0, "rule-x", domain.StateData{Activation: 5.0}, time.Now())
	require.NoError(t, err)
	node, _ := tg.GetNode(0)
	assert.Equal(t, float32(1.0), node.Evolution.Current.State.Activation)

	_, err = tg.ApplyTransition(0, "rule-x", domain.StateData{Activation: -5.0}, time.Now())
	require.NoError(t, err)
	node, _ = tg.GetNode(0)
	assert.Equal(t, float32(0.0), node.Evolution.Current.State.Activation)
}
