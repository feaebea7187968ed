package rules

import (
	"strconv"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// NoopRule always applies and re-installs the current state unchanged.
// Like Identity it records a transition every tick; the two differ only
// in the rule id stamped on it.
type NoopRule struct{}

func (NoopRule) ID() domain.RuleId        { return domain.RuleNoop }
func (NoopRule) Description() string      { return "preserves the current state" }
func (NoopRule) Priority() int32          { return 0 }
func (NoopRule) ShouldApply(Context) bool { return true }
func (NoopRule) Apply(ctx Context) (Outcome, error) {
	return Transition(ctx.Current), nil
}

// IdentityRule always applies and returns the current state unchanged.
// Like Noop it installs a new transition every tick; the two differ only
// in the rule id (Identity's is chosen at construction).
type IdentityRule struct {
	id       domain.RuleId
	priority int32
}

// NewIdentityRule builds an IdentityRule registered under id.
func NewIdentityRule(id domain.RuleId, priority int32) *IdentityRule {
	return &IdentityRule{id: id, priority: priority}
}

func (r *IdentityRule) ID() domain.RuleId   { return r.id }
func (r *IdentityRule) Description() string { return "re-installs the current state unchanged" }
func (r *IdentityRule) Priority() int32     { return r.priority }
func (r *IdentityRule) ShouldApply(Context) bool { return true }
func (r *IdentityRule) Apply(ctx Context) (Outcome, error) {
	return Transition(ctx.Current), nil
}

// CompositeRule owns an ordered list of rules and applies them in
// descending priority, stopping at the first non-Skip outcome.
type CompositeRule struct {
	id       domain.RuleId
	priority int32
	members  []Rule
}

// NewCompositeRule builds a CompositeRule over members, sorted internally
// by descending priority (ties keep the given order).
func NewCompositeRule(id domain.RuleId, priority int32, members ...Rule) *CompositeRule {
	sorted := make([]Rule, len(members))
	copy(sorted, members)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Priority() > sorted[j-1].Priority(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return &CompositeRule{id: id, priority: priority, members: sorted}
}

func (c *CompositeRule) ID() domain.RuleId   { return c.id }
func (c *CompositeRule) Description() string { return "applies member rules by priority, first non-skip wins" }
func (c *CompositeRule) Priority() int32     { return c.priority }
func (c *CompositeRule) ShouldApply(ctx Context) bool {
	for _, m := range c.members {
		if m.ShouldApply(ctx) {
			return true
		}
	}
	return false
}
func (c *CompositeRule) Apply(ctx Context) (Outcome, error) {
	for _, m := range c.members {
		if !m.ShouldApply(ctx) {
			continue
		}
		outcome, err := m.Apply(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if outcome.Kind != OutcomeSkip {
			return outcome, nil
		}
	}
	return Skip(), nil
}

// PropagateRule drives impact analysis: each node pulls activation from
// its neighbors, damped by its own stability, while a per-tick decay term
// pulls nodes receiving no contribution back toward zero.
type PropagateRule struct {
	id              domain.RuleId
	priority        int32
	decay           float32
	stabilityLookup func(domain.NodeId) float32
}

// NewPropagateRule builds the impact-analysis propagation rule. stability
// looks up a node's configured stability (damping factor) by id.
func NewPropagateRule(id domain.RuleId, priority int32, decay float32, stability func(domain.NodeId) float32) *PropagateRule {
	return &PropagateRule{id: id, priority: priority, decay: decay, stabilityLookup: stability}
}

func (p *PropagateRule) ID() domain.RuleId   { return p.id }
func (p *PropagateRule) Description() string { return "propagates activation from neighbors, decays otherwise" }
func (p *PropagateRule) Priority() int32     { return p.priority }
func (p *PropagateRule) ShouldApply(Context) bool { return true }

// Apply considers every neighbor, not just one edge direction: a
// regex-level reference extractor records "A imports B" as a single
// directed edge, but a change must reach the other side regardless of
// which side recorded the edge — an importer has to light up when the
// file it imports changes, and a file has to light up when something
// upstream of it in a use chain changes.
func (p *PropagateRule) Apply(ctx Context) (Outcome, error) {
	stability := p.stabilityLookup(ctx.NodeID)
	damping := 1 - stability

	var maxNeighbor float32
	for _, nb := range ctx.Neighbors {
		if contribution := nb.State.Activation * damping; contribution > maxNeighbor {
			maxNeighbor = contribution
		}
	}

	decayed := ctx.Current.Activation * (1 - p.decay)
	next := decayed
	if maxNeighbor > next {
		next = maxNeighbor
	}

	// Seed nodes never decay below their initial activation.
	if ctx.Current.Annotations["is_changed"] == "true" {
		if floor, err := strconv.ParseFloat(ctx.Current.Annotations["seed_activation"], 32); err == nil {
			if f := float32(floor); f > next {
				next = f
			}
		}
	}

	state := ctx.Current
	state.Activation = clamp01(next)
	return Transition(state), nil
}

// StructuralRule is the purely structural evolution rule: like
// PropagateRule it pulls activation from neighbors damped by the node's
// stability (read from the "stability" annotation), but it Skips once the
// node has reached a fixed point, so a run under the transition-rate
// heuristic settles instead of reinstalling identical states forever.
type StructuralRule struct {
	id       domain.RuleId
	priority int32
	decay    float32
}

// settleEpsilon is the activation delta below which a StructuralRule
// treats the node as settled and Skips.
const settleEpsilon = 1e-4

// NewStructuralRule builds a StructuralRule registered under id.
func NewStructuralRule(id domain.RuleId, priority int32, decay float32) *StructuralRule {
	return &StructuralRule{id: id, priority: priority, decay: decay}
}

func (r *StructuralRule) ID() domain.RuleId        { return r.id }
func (r *StructuralRule) Description() string      { return "pulls damped activation from neighbors, skips at a fixed point" }
func (r *StructuralRule) Priority() int32          { return r.priority }
func (r *StructuralRule) ShouldApply(Context) bool { return true }

func (r *StructuralRule) Apply(ctx Context) (Outcome, error) {
	stability := float32(0.5)
	if s, err := strconv.ParseFloat(ctx.Current.Annotations["stability"], 32); err == nil {
		stability = float32(s)
	}
	damping := 1 - stability

	var maxNeighbor float32
	for _, nb := range ctx.Neighbors {
		if contribution := nb.State.Activation * damping; contribution > maxNeighbor {
			maxNeighbor = contribution
		}
	}

	next := ctx.Current.Activation * (1 - r.decay)
	if maxNeighbor > next {
		next = maxNeighbor
	}
	next = clamp01(next)

	delta := next - ctx.Current.Activation
	if delta < 0 {
		delta = -delta
	}
	if delta < settleEpsilon {
		return Skip(), nil
	}

	state := ctx.Current
	state.Activation = next
	return Transition(state), nil
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
