package domain

import "time"

// RuleId names a Rule in the registry. Three values are sentinels rather
// than ordinary registered rules.
type RuleId string

const (
	// RuleInitial is the rule id recorded on a TemporalNode's very first
	// transition, before any real rule has run.
	RuleInitial RuleId = "__initial__"

	// RuleExternal marks a transition installed by an external mutation
	// (e.g. ApplyExternal) rather than by a registered Rule.
	RuleExternal RuleId = "__external__"

	// RuleNoop is the canonical no-op rule: always applicable, re-installs
	// the current state unchanged.
	RuleNoop RuleId = "__noop__"
)

// StateData is the free-form per-node payload carried by a Transition.
type StateData struct {
	Payload     map[string]any    `json:"payload,omitempty"`
	Activation  float32           `json:"activation"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// ClampActivation returns s with Activation clamped to [0, 1]. Every
// write into an EvolutionaryState goes through this, so cycles in the
// propagation graph cannot push activation past 1.
func (s StateData) ClampActivation() StateData {
	switch {
	case s.Activation < 0:
		s.Activation = 0
	case s.Activation > 1:
		s.Activation = 1
	}
	return s
}

// Transition is the atomic unit of node evolution.
type Transition struct {
	RuleID    RuleId    `json:"rule_id"`
	State     StateData `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	Sequence  uint64    `json:"sequence"`
}

// EvolutionaryState is a node's bounded-history transition log.
//
// Invariant: len(History) <= HistoryWindow; pushing beyond the window
// drops the oldest entries first. Current is always present.
type EvolutionaryState struct {
	History       []Transition `json:"history"`
	Current       Transition   `json:"current"`
	HistoryWindow int          `json:"history_window"`
	NextSequence  uint64       `json:"next_sequence"`
}

// NewEvolutionaryState builds the initial state for a freshly constructed
// TemporalNode: current holds the sentinel __initial__ transition at
// sequence 0, and the next real transition will be assigned sequence 1.
func NewEvolutionaryState(initial StateData, historyWindow int, now time.Time) EvolutionaryState {
	return EvolutionaryState{
		HistoryWindow: historyWindow,
		NextSequence:  1,
		Current: Transition{
			RuleID:    RuleInitial,
			State:     initial.ClampActivation(),
			Timestamp: now,
		},
	}
}

// Apply installs a new transition, moving the current one into history
// (trimming to HistoryWindow in FIFO order) and assigning the next
// sequence number.
func (es *EvolutionaryState) Apply(ruleID RuleId, state StateData, now time.Time) Transition {
	t := Transition{
		RuleID:    ruleID,
		State:     state.ClampActivation(),
		Timestamp: now,
		Sequence:  es.NextSequence,
	}

	es.History = append(es.History, es.Current)
	if len(es.History) > es.HistoryWindow {
		es.History = es.History[len(es.History)-es.HistoryWindow:]
	}
	es.Current = t
	es.NextSequence++
	return t
}

// Reset replaces the current transition's state, clearing history and
// sequence back to the fresh-construction values (TemporalGraph's
// set_initial_state).
func (es *EvolutionaryState) Reset(state StateData, now time.Time) {
	es.History = nil
	es.NextSequence = 1
	es.Current = Transition{RuleID: RuleInitial, State: state.ClampActivation(), Timestamp: now}
}
