// Package temporal wraps a frozen domain.SourceCodeGraph with per-node
// evolutionary state and precomputed adjacency, the substrate the rule
// engine and automaton orchestrator evolve tick by tick.
//
// Adjacency is built once at construction and never rebuilt; a structural
// change to the static graph requires constructing a new TemporalGraph.
package temporal

import (
	"fmt"
	"sort"
	"time"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// TemporalNode pairs an immutable GraphNode with its mutable evolution log.
type TemporalNode struct {
	Node      domain.GraphNode
	Evolution domain.EvolutionaryState
}

// NeighborEdge pairs a neighboring node with the edge connecting it to the
// neighborhood's center.
type NeighborEdge struct {
	Node domain.GraphNode
	Edge domain.GraphEdge
}

// Neighborhood is a transient view of one node's immediate connections.
type Neighborhood struct {
	Center   domain.NodeId
	Incoming []NeighborEdge
	Outgoing []NeighborEdge
}

// AllNeighbors returns the union of incoming and outgoing neighbor nodes,
// deduplicated by NodeId.
func (n Neighborhood) AllNeighbors() []domain.GraphNode {
	seen := make(map[domain.NodeId]struct{})
	var out []domain.GraphNode
	for _, ne := range n.Incoming {
		if _, ok := seen[ne.Node.ID]; !ok {
			seen[ne.Node.ID] = struct{}{}
			out = append(out, ne.Node)
		}
	}
	for _, ne := range n.Outgoing {
		if _, ok := seen[ne.Node.ID]; !ok {
			seen[ne.Node.ID] = struct{}{}
			out = append(out, ne.Node)
		}
	}
	return out
}

// TemporalGraph owns a fixed set of TemporalNodes plus adjacency built once
// from the static graph. The static graph is never mutated; only the
// per-node EvolutionaryState changes.
type TemporalGraph struct {
	nodes    map[domain.NodeId]*TemporalNode
	order    []domain.NodeId
	outgoing map[domain.NodeId][]NeighborEdge
	incoming map[domain.NodeId][]NeighborEdge
	edgeCnt  int
}

// New builds a TemporalGraph from a static graph. historyWindow bounds
// every node's evolutionary history.
func New(graph domain.SourceCodeGraph, historyWindow int, now time.Time) *TemporalGraph {
	tg := &TemporalGraph{
		nodes:    make(map[domain.NodeId]*TemporalNode, len(graph.Nodes)),
		order:    make([]domain.NodeId, 0, len(graph.Nodes)),
		outgoing: make(map[domain.NodeId][]NeighborEdge),
		incoming: make(map[domain.NodeId][]NeighborEdge),
		edgeCnt:  len(graph.Edges),
	}

	byID := make(map[domain.NodeId]domain.GraphNode, len(graph.Nodes))
	for _, n := range graph.Nodes {
		byID[n.ID] = n
	}

	for _, n := range graph.Nodes {
		tg.nodes[n.ID] = &TemporalNode{
			Node:      n,
			Evolution: domain.NewEvolutionaryState(domain.StateData{}, historyWindow, now),
		}
		tg.order = append(tg.order, n.ID)
	}

	for _, e := range graph.Edges {
		if to, ok := byID[e.To]; ok {
			tg.outgoing[e.From] = append(tg.outgoing[e.From], NeighborEdge{Node: to, Edge: e})
		}
		if from, ok := byID[e.From]; ok {
			tg.incoming[e.To] = append(tg.incoming[e.To], NeighborEdge{Node: from, Edge: e})
		}
	}

	return tg
}

// GetNode returns the TemporalNode for id, or false if absent.
func (tg *TemporalGraph) GetNode(id domain.NodeId) (*TemporalNode, bool) {
	n, ok := tg.nodes[id]
	return n, ok
}

// NodeIDs returns every node id. Ordering is stable within a graph (build
// order) but otherwise unspecified.
func (tg *TemporalGraph) NodeIDs() []domain.NodeId {
	out := make([]domain.NodeId, len(tg.order))
	copy(out, tg.order)
	return out
}

// Neighborhood returns the incoming/outgoing view centered on id.
func (tg *TemporalGraph) Neighborhood(id domain.NodeId) (Neighborhood, bool) {
	if _, ok := tg.nodes[id]; !ok {
		return Neighborhood{}, false
	}
	return Neighborhood{Center: id, Incoming: tg.incoming[id], Outgoing: tg.outgoing[id]}, true
}

// SetInitialState replaces id's current transition's state, clearing
// history and resetting the sequence counter.
func (tg *TemporalGraph) SetInitialState(id domain.NodeId, state domain.StateData, now time.Time) error {
	n, ok := tg.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrNodeNotFound, id)
	}
	n.Evolution.Reset(state, now)
	return nil
}

// ApplyTransition installs a rule-driven transition on id.
func (tg *TemporalGraph) ApplyTransition(id domain.NodeId, ruleID domain.RuleId, state domain.StateData, now time.Time) (domain.Transition, error) {
	n, ok := tg.nodes[id]
	if !ok {
		return domain.Transition{}, fmt.Errorf("%w: %d", domain.ErrNodeNotFound, id)
	}
	return n.Evolution.Apply(ruleID, state, now), nil
}

// ApplyExternal installs a transition under the __external__ sentinel
// rule id, for mutations originating outside the rule engine. It
// increments the sequence counter exactly like a rule-driven transition.
func (tg *TemporalGraph) ApplyExternal(id domain.NodeId, state domain.StateData, now time.Time) (domain.Transition, error) {
	return tg.ApplyTransition(id, domain.RuleExternal, state, now)
}

// Stats summarizes the temporal graph's current evolution.
type Stats struct {
	NodeCount        int
	EdgeCount        int
	EvolvedNodeCount int
	TotalTransitions uint64
	AvgActivation    float64
}

// Stats computes aggregate statistics over all nodes' current state.
func (tg *TemporalGraph) Stats() Stats {
	st := Stats{NodeCount: len(tg.nodes), EdgeCount: tg.edgeCnt}
	var activationSum float64

	// Iterate in a stable order so floating-point summation is
	// reproducible across runs.
	ids := make([]domain.NodeId, 0, len(tg.nodes))
	for id := range tg.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		n := tg.nodes[id]
		transitions := n.Evolution.NextSequence - 1
		st.TotalTransitions += transitions
		if transitions > 0 {
			st.EvolvedNodeCount++
		}
		activationSum += float64(n.Evolution.Current.State.Activation)
	}
	if st.NodeCount > 0 {
		st.AvgActivation = activationSum / float64(st.NodeCount)
	}
	return st
}
