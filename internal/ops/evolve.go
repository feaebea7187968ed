package ops

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/chronograph-dev/chronograph/internal/automaton"
	"github.com/chronograph-dev/chronograph/internal/description"
	"github.com/chronograph-dev/chronograph/internal/domain"
	"github.com/chronograph-dev/chronograph/internal/impact"
	"github.com/chronograph-dev/chronograph/internal/temporal"
)

// EvolveRequest drives Evolve.
type EvolveRequest struct {
	WorkspacePath string
	// MaxTicks, if positive, overrides the workspace config's tick cap for
	// this run only.
	MaxTicks int
}

// EvolveResponse reports one automaton run under the description's own
// rule assignments.
type EvolveResponse struct {
	CorrelationID string                 `json:"correlation_id"`
	TicksExecuted int                    `json:"ticks_executed"`
	Stabilized    bool                   `json:"stabilized"`
	TickHistory   []automaton.TickResult `json:"tick_history"`
	NodeCount     int                    `json:"node_count"`
	EvolvedNodes  int                    `json:"evolved_nodes"`
}

// Evolve runs the automaton over the persisted graph using the
// description's per-node rule assignments — the general evolution mode,
// as opposed to Impact's fixed propagation rule. Each node starts from
// the description's defaults and its configured payload; the run's
// state, configuration, and tick history are persisted.
func (f *Facade) Evolve(ctx context.Context, req EvolveRequest) (EvolveResponse, error) {
	correlationID := uuid.New().String()

	loaded, err := f.Load(ctx, LoadRequest{WorkspacePath: req.WorkspacePath})
	if err != nil {
		return EvolveResponse{}, err
	}
	desc := loaded.Description

	cfg := f.automatonConfig(req.MaxTicks)
	now := time.Now()
	tg := temporal.New(loaded.Graph, cfg.HistoryWindow, now)

	for _, nc := range desc.Nodes {
		state := initialNodeState(desc, nc)
		if err := tg.SetInitialState(nc.ID, state, now); err != nil {
			return EvolveResponse{}, err
		}
	}

	registry := f.buildRegistry(desc)
	auto := automaton.New(tg, registry, cfg, automaton.NewTransitionRateHeuristic(), nodeRuleAssignments(desc))

	history, stable, err := auto.RunToStable(ctx)
	if err != nil {
		return EvolveResponse{}, fmt.Errorf("%w: %v", ErrAutomatonFailed, err)
	}

	state := impact.AutomatonState{GeneratedAt: now.UTC().Format(time.RFC3339)}
	stats := tg.Stats()
	for _, id := range tg.NodeIDs() {
		if n, ok := tg.GetNode(id); ok {
			state.Nodes = append(state.Nodes, impact.NodeState{NodeID: id, Evolution: n.Evolution})
		}
	}

	err = f.withLock(func() error {
		if err := f.store.SaveConfig(cfg); err != nil {
			return fmt.Errorf("saving automaton config: %w", err)
		}
		if err := f.store.SaveTickHistory(history); err != nil {
			return fmt.Errorf("saving tick history: %w", err)
		}
		if err := f.store.SaveState(state); err != nil {
			return fmt.Errorf("saving automaton state: %w", err)
		}
		return nil
	})
	if err != nil {
		return EvolveResponse{}, err
	}

	f.logger.Info("evolution run finished", "correlation_id", correlationID, "workspace", req.WorkspacePath,
		"ticks", len(history), "stabilized", stable)

	return EvolveResponse{
		CorrelationID: correlationID,
		TicksExecuted: len(history),
		Stabilized:    stable,
		TickHistory:   history,
		NodeCount:     stats.NodeCount,
		EvolvedNodes:  stats.EvolvedNodeCount,
	}, nil
}

// initialNodeState builds a node's starting state from the description's
// defaults plus its NodeConfig payload and stability annotation.
func initialNodeState(desc description.AutomatonDescription, nc description.NodeConfig) domain.StateData {
	state := domain.StateData{
		Activation:  desc.Defaults.InitialActivation,
		Annotations: map[string]string{"role": string(description.RoleOf(nc))},
	}
	if nc.Stability != nil {
		state.Annotations["stability"] = strconv.FormatFloat(*nc.Stability, 'f', -1, 64)
	}
	if len(nc.Payload) > 0 {
		state.Payload = map[string]any{}
		for k, v := range nc.Payload {
			state.Payload[k] = v
		}
	}
	return state
}
