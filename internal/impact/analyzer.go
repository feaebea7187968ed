package impact

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/chronograph-dev/chronograph/internal/automaton"
	"github.com/chronograph-dev/chronograph/internal/description"
	"github.com/chronograph-dev/chronograph/internal/domain"
	"github.com/chronograph-dev/chronograph/internal/graphbuild"
	"github.com/chronograph-dev/chronograph/internal/rules"
	"github.com/chronograph-dev/chronograph/internal/temporal"
)

// PropagateRuleID names the rule instance Analyzer installs to drive
// activation across the graph. Impact analysis always runs its own
// propagation rule; per-node rule assignments in the description are
// inert for this mode and surface only as role/stability annotations.
const PropagateRuleID domain.RuleId = "impact_propagate"

// DefaultDecay is the per-tick decay term applied to nodes not currently
// receiving a larger contribution from a neighbor.
const DefaultDecay = 0.15

// DefaultStability is used for any node a description document doesn't
// assign a stability to.
const DefaultStability = 0.5

// Options tunes one Analyzer.
type Options struct {
	Decay        float32
	AutomatonCfg automaton.Config
	Heuristic    automaton.Heuristic
}

// Option mutates an Options during construction.
type Option func(*Options)

// WithDecay overrides the per-tick decay term.
func WithDecay(decay float32) Option {
	return func(o *Options) { o.Decay = decay }
}

// WithAutomatonConfig overrides the tick-scheduling configuration.
func WithAutomatonConfig(cfg automaton.Config) Option {
	return func(o *Options) { o.AutomatonCfg = cfg }
}

// WithMaxTicks overrides only the tick cap, leaving the rest of the
// automaton configuration at its current values.
func WithMaxTicks(maxTicks int) Option {
	return func(o *Options) {
		if maxTicks > 0 {
			o.AutomatonCfg.MaxTicks = maxTicks
		}
	}
}

// WithHeuristic overrides the stability heuristic.
func WithHeuristic(h automaton.Heuristic) Option {
	return func(o *Options) { o.Heuristic = h }
}

// DefaultOptions returns the default tuning. Impact analysis uses
// ActivationConvergenceHeuristic rather than TransitionRateHeuristic: the
// propagation rule always installs a transition (continuous activation
// values essentially never land on an exact repeat), so transition rate
// never drops and that heuristic would never report stable; variance of
// avg activation is the signal that actually flattens out here.
func DefaultOptions() Options {
	return Options{
		Decay:        DefaultDecay,
		AutomatonCfg: automaton.DefaultConfig(),
		Heuristic:    automaton.NewActivationConvergenceHeuristic(),
	}
}

// Analyzer runs impact analysis over a static graph and its description.
type Analyzer struct {
	opts Options
}

// New builds an Analyzer, starting from DefaultOptions and applying opts
// in order.
func New(opts ...Option) *Analyzer {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Analyzer{opts: o}
}

// NodeState is one node's final evolution log, for persistence.
type NodeState struct {
	NodeID    domain.NodeId            `json:"node_id"`
	Evolution domain.EvolutionaryState `json:"evolution"`
}

// AutomatonState is the serializable form of a temporal graph after a
// run, stored as the workspace's automaton/state.json artifact.
type AutomatonState struct {
	GeneratedAt string      `json:"generated_at"`
	Nodes       []NodeState `json:"nodes"`
}

// RunArtifacts carries everything about a run worth persisting beyond
// the Report itself: the configuration used, the per-tick results, and
// the final temporal-graph state.
type RunArtifacts struct {
	Config      automaton.Config       `json:"config"`
	TickHistory []automaton.TickResult `json:"tick_history"`
	State       AutomatonState         `json:"state"`
}

// Analyze seeds the changed nodes at full activation, propagates via the
// automaton to a stable (or max-tick) fixed point, then ranks every node
// by its final activation.
//
// now is accepted as a parameter (rather than taken from time.Now
// internally) so a caller can reproduce a report deterministically; the
// returned Report's GeneratedAt is stamped from it.
func (a *Analyzer) Analyze(ctx context.Context, graph domain.SourceCodeGraph, desc description.AutomatonDescription, changedPaths []string, projectName string, now time.Time) (Report, RunArtifacts, error) {
	stabilityByID := make(map[domain.NodeId]float64, len(desc.Nodes))
	roleByID := make(map[domain.NodeId]string, len(desc.Nodes))
	for _, n := range desc.Nodes {
		if n.Stability != nil {
			stabilityByID[n.ID] = *n.Stability
		}
		roleByID[n.ID] = string(description.RoleOf(n))
	}
	stabilityOf := func(id domain.NodeId) float64 {
		if s, ok := stabilityByID[id]; ok {
			return s
		}
		return DefaultStability
	}

	tg := temporal.New(graph, a.opts.AutomatonCfg.HistoryWindow, now)

	seedIDs := make(map[domain.NodeId]bool, len(changedPaths))
	var unresolved []string
	for _, p := range changedPaths {
		id, ok := graphbuild.ResolveBySuffix(graph, p)
		if !ok {
			unresolved = append(unresolved, p)
			continue
		}
		seedIDs[id] = true
	}

	for _, id := range tg.NodeIDs() {
		state := domain.StateData{
			Annotations: map[string]string{
				"role":      roleByID[id],
				"stability": strconv.FormatFloat(stabilityOf(id), 'f', -1, 64),
			},
		}
		if seedIDs[id] {
			state.Activation = 1.0
			state.Annotations["is_changed"] = "true"
			state.Annotations["seed_activation"] = "1"
		}
		if err := tg.SetInitialState(id, state, now); err != nil {
			return Report{}, RunArtifacts{}, err
		}
	}

	registry := rules.NewRegistry()
	registry.Register(rules.NewPropagateRule(PropagateRuleID, 10, a.opts.Decay, func(id domain.NodeId) float32 {
		return float32(stabilityOf(id))
	}))
	registry.Register(rules.NoopRule{})

	auto := automaton.New(tg, registry, a.opts.AutomatonCfg, a.opts.Heuristic, nil)
	history, stable, err := auto.RunToStable(ctx)
	if err != nil {
		return Report{}, RunArtifacts{}, err
	}

	pathByID := make(map[domain.NodeId]string, len(graph.Nodes))
	for _, n := range graph.Nodes {
		pathByID[n.ID] = n.Metadata["relative_path"]
	}

	ranking := make([]RankedNode, 0, len(graph.Nodes))
	var stats Stats
	var activationSum float64
	finalState := AutomatonState{GeneratedAt: now.UTC().Format(time.RFC3339)}
	for _, id := range tg.NodeIDs() {
		node, ok := tg.GetNode(id)
		if !ok {
			continue
		}
		activation := node.Evolution.Current.State.Activation
		level := LevelFor(activation)
		ranking = append(ranking, RankedNode{
			NodeID:     id,
			Path:       pathByID[id],
			Role:       roleByID[id],
			Stability:  stabilityOf(id),
			Activation: activation,
			IsChanged:  seedIDs[id],
			Level:      level,
		})

		activationSum += float64(activation)
		switch level {
		case LevelHigh:
			stats.HighImpact++
		case LevelMedium:
			stats.MediumImpact++
		case LevelLow:
			stats.LowImpact++
		default:
			stats.NoImpact++
		}

		finalState.Nodes = append(finalState.Nodes, NodeState{NodeID: id, Evolution: node.Evolution})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Activation != ranking[j].Activation {
			return ranking[i].Activation > ranking[j].Activation
		}
		return ranking[i].NodeID < ranking[j].NodeID
	})
	sort.Slice(finalState.Nodes, func(i, j int) bool { return finalState.Nodes[i].NodeID < finalState.Nodes[j].NodeID })

	stats.TotalNodes = len(ranking)
	if stats.TotalNodes > 0 {
		stats.AvgActivation = activationSum / float64(stats.TotalNodes)
	}

	report := Report{
		TicksExecuted:   len(history),
		Stabilized:      stable,
		Stats:           stats,
		Ranking:         ranking,
		ChangedFiles:    changedPaths,
		UnresolvedPaths: unresolved,
		ProjectName:     projectName,
		GeneratedAt:     now.UTC().Format(time.RFC3339),
	}
	artifacts := RunArtifacts{
		Config:      a.opts.AutomatonCfg,
		TickHistory: history,
		State:       finalState,
	}
	return report, artifacts, nil
}
