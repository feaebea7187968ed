// Package automaton implements the tick scheduler: a deterministic
// two-phase (read then write) pass over every node, pluggable stability
// heuristics, and run-to-stable orchestration with between-tick
// cancellation.
package automaton

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/chronograph-dev/chronograph/internal/domain"
	"github.com/chronograph-dev/chronograph/internal/rules"
	"github.com/chronograph-dev/chronograph/internal/temporal"
)

// Config tunes one automaton run.
type Config struct {
	MaxTicks                int     `json:"max_ticks"`
	HistoryWindow           int     `json:"history_window"`
	Parallel                bool    `json:"parallel"`
	StabilityThreshold      float64 `json:"stability_threshold"`
	MinTicksBeforeStability int     `json:"min_ticks_before_stability"`
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		MaxTicks:                50,
		HistoryWindow:           16,
		Parallel:                false,
		StabilityThreshold:      0.01,
		MinTicksBeforeStability: 5,
	}
}

// TickResult summarizes one tick: read-phase skips and errors, write-phase
// transitions, and the average activation after the write phase.
type TickResult struct {
	Tick          int           `json:"tick"`
	Transitions   int           `json:"transitions"`
	Skipped       int           `json:"skipped"`
	Errors        int           `json:"errors"`
	Duration      time.Duration `json:"duration"`
	AvgActivation float64       `json:"avg_activation"`
}

// TransitionRate returns transitions / (transitions + skipped), the
// quantity TransitionRateHeuristic thresholds.
func (t TickResult) TransitionRate() float64 {
	total := t.Transitions + t.Skipped
	if total == 0 {
		return 0
	}
	return float64(t.Transitions) / float64(total)
}

// Heuristic decides whether a run has reached a stable fixed point, given
// the tick results accumulated so far (newest last).
type Heuristic interface {
	IsStable(history []TickResult) bool
}

// Automaton owns a temporal graph and a rule registry and schedules ticks
// over them.
type Automaton struct {
	graph     *temporal.TemporalGraph
	registry  *rules.Registry
	cfg       Config
	heuristic Heuristic
	nodeRule  map[domain.NodeId]domain.RuleId // explicit per-node rule, if any
	global    map[string]any
	tick      uint64
}

// New builds an Automaton. nodeRule maps a node to a specific rule id to
// dispatch directly (skipping priority iteration); nodes absent from the
// map use the registry's priority order.
func New(graph *temporal.TemporalGraph, registry *rules.Registry, cfg Config, heuristic Heuristic, nodeRule map[domain.NodeId]domain.RuleId) *Automaton {
	if nodeRule == nil {
		nodeRule = map[domain.NodeId]domain.RuleId{}
	}
	return &Automaton{
		graph:     graph,
		registry:  registry,
		cfg:       cfg,
		heuristic: heuristic,
		nodeRule:  nodeRule,
		global:    map[string]any{},
	}
}

// Graph exposes the underlying temporal graph for inspection after a run.
func (a *Automaton) Graph() *temporal.TemporalGraph { return a.graph }

// pendingUpdate is one read-phase decision awaiting the write phase.
type pendingUpdate struct {
	nodeID domain.NodeId
	ruleID domain.RuleId
	state  domain.StateData
}

// RunToStable loops ticks up to cfg.MaxTicks, stopping early once
// cfg.MinTicksBeforeStability ticks have elapsed and the heuristic reports
// stable. ctx is checked between ticks only, so each tick completes
// atomically even under cancellation.
func (a *Automaton) RunToStable(ctx context.Context) ([]TickResult, bool, error) {
	var history []TickResult

	for i := 0; i < a.cfg.MaxTicks; i++ {
		if err := ctx.Err(); err != nil {
			return history, false, err
		}

		result, err := a.Tick()
		if err != nil {
			return history, false, err
		}
		history = append(history, result)

		if len(history) >= a.cfg.MinTicksBeforeStability && a.heuristic.IsStable(history) {
			return history, true, nil
		}
	}
	return history, false, nil
}

// nodeDecision is one node's read-phase outcome, indexed by its position
// in the tick's id ordering so results assemble identically whether the
// read phase ran serially or in parallel.
type nodeDecision struct {
	update *pendingUpdate
	err    bool
}

// Tick runs one read phase (accumulating pending updates without mutating
// state) followed by one write phase (applying them, in ascending NodeId
// order). No rule observes a partial update from the same tick.
func (a *Automaton) Tick() (TickResult, error) {
	start := time.Now()
	a.tick++

	ids := a.graph.NodeIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	decisions := make([]nodeDecision, len(ids))
	if a.cfg.Parallel {
		a.readPhaseParallel(ids, decisions)
	} else {
		for i, id := range ids {
			decisions[i] = a.decide(id)
		}
	}

	result := TickResult{Tick: int(a.tick)}
	var pending []pendingUpdate
	for _, d := range decisions {
		switch {
		case d.err:
			result.Errors++
		case d.update != nil:
			pending = append(pending, *d.update)
		default:
			result.Skipped++
		}
	}

	now := time.Now()
	for _, p := range pending {
		// The write phase cannot hit an unknown NodeId: every pending id
		// was enumerated from this same graph at the top of the tick.
		if _, err := a.graph.ApplyTransition(p.nodeID, p.ruleID, p.state, now); err != nil {
			result.Errors++
			continue
		}
		result.Transitions++
	}

	st := a.graph.Stats()
	result.AvgActivation = st.AvgActivation
	result.Duration = time.Since(start)
	return result, nil
}

// readPhaseParallel fans the read phase out over a bounded worker pool.
// Workers only read graph state and write disjoint decision slots; all
// mutation still happens in the serial write phase.
func (a *Automaton) readPhaseParallel(ids []domain.NodeId, decisions []nodeDecision) {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(ids) {
		workers = len(ids)
	}
	if workers < 1 {
		workers = 1
	}

	var next int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				i := next
				next++
				mu.Unlock()
				if i >= len(ids) {
					return
				}
				decisions[i] = a.decide(ids[i])
			}
		}()
	}
	wg.Wait()
}

// decide runs the read phase for a single node: assemble its context,
// dispatch rules, and record the outcome without mutating any state.
func (a *Automaton) decide(id domain.NodeId) nodeDecision {
	node, ok := a.graph.GetNode(id)
	if !ok {
		return nodeDecision{err: true}
	}

	nb, _ := a.graph.Neighborhood(id)
	ruleCtx := buildContext(id, node, nb, a.graph, a.global, a.tick)

	var named *domain.RuleId
	if r, ok := a.nodeRule[id]; ok {
		named = &r
	}

	outcome, appliedID, err := a.registry.Dispatch(ruleCtx, named)
	if err != nil {
		return nodeDecision{err: true}
	}
	if outcome.Kind == rules.OutcomeTransition {
		return nodeDecision{update: &pendingUpdate{nodeID: id, ruleID: appliedID, state: outcome.NewState}}
	}
	return nodeDecision{}
}

func buildContext(id domain.NodeId, node *temporal.TemporalNode, nb temporal.Neighborhood, graph *temporal.TemporalGraph, global map[string]any, tick uint64) rules.Context {
	var neighbors []rules.NeighborView
	for _, in := range nb.Incoming {
		if n, ok := graph.GetNode(in.Node.ID); ok {
			neighbors = append(neighbors, rules.NeighborView{
				NodeID: in.Node.ID, State: n.Evolution.Current.State,
				Relationship: in.Edge.Relationship, Direction: rules.DirectionIncoming,
			})
		}
	}
	for _, out := range nb.Outgoing {
		if n, ok := graph.GetNode(out.Node.ID); ok {
			neighbors = append(neighbors, rules.NeighborView{
				NodeID: out.Node.ID, State: n.Evolution.Current.State,
				Relationship: out.Edge.Relationship, Direction: rules.DirectionOutgoing,
			})
		}
	}

	return rules.Context{
		NodeID:    id,
		Current:   node.Evolution.Current.State,
		Neighbors: neighbors,
		Global:    global,
		Tick:      tick,
	}
}
