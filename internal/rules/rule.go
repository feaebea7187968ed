// Package rules implements the Rule interface, its registry, and the
// built-in rule kinds: Noop, Identity, Composite, and Propagate. The
// __external__ sentinel is the rule id external mutations install under;
// it is never dispatched through the registry.
package rules

import (
	"github.com/chronograph-dev/chronograph/internal/domain"
)

// Context is the transient, non-owning view a Rule's ShouldApply/Apply
// receives. It must not be retained past one Apply call; the states it
// carries reflect pre-tick values.
type Context struct {
	NodeID  domain.NodeId
	Current domain.StateData
	// Neighbors describes each neighbor's id, its current state, and the
	// relationship connecting it to NodeID.
	Neighbors []NeighborView
	Global    map[string]any
	Tick      uint64
}

// Direction marks which side of a Neighborhood a NeighborView came from.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// NeighborView is one neighbor's state as seen from a RuleContext.
type NeighborView struct {
	NodeID       domain.NodeId
	State        domain.StateData
	Relationship string
	Direction    Direction
}

// OutcomeKind discriminates a RuleOutcome's variant.
type OutcomeKind int

const (
	OutcomeTransition OutcomeKind = iota
	OutcomeSkip
	OutcomeDelegate
)

// Outcome is the result of one Rule.Apply call.
type Outcome struct {
	Kind       OutcomeKind
	NewState   domain.StateData // valid iff Kind == OutcomeTransition
	DelegateTo domain.RuleId    // valid iff Kind == OutcomeDelegate
}

// Transition builds an Outcome that installs newState.
func Transition(newState domain.StateData) Outcome {
	return Outcome{Kind: OutcomeTransition, NewState: newState}
}

// Skip builds an Outcome that leaves the node's state untouched this tick.
func Skip() Outcome {
	return Outcome{Kind: OutcomeSkip}
}

// Delegate builds an Outcome that hands dispatch to another rule, honored
// for one hop only: a Delegate returned by the delegated-to rule reads as
// Skip.
func Delegate(to domain.RuleId) Outcome {
	return Outcome{Kind: OutcomeDelegate, DelegateTo: to}
}

// Rule is the dynamic-dispatch capability set every rule implementation
// provides. Implementations must be safe under shared ownership:
// stateless, or internally synchronized.
type Rule interface {
	ID() domain.RuleId
	Description() string
	Priority() int32
	ShouldApply(ctx Context) bool
	Apply(ctx Context) (Outcome, error)
}
