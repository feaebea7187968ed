package rules

import (
	"fmt"
	"sort"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// Registry maps RuleId to a shared Rule instance. Interface values share
// the underlying implementation by reference; rules are treated as
// immutable once registered.
type Registry struct {
	rules map[domain.RuleId]Rule
	order []domain.RuleId // registration order, for stable priority ties
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[domain.RuleId]Rule)}
}

// Register adds a rule, replacing any prior registration under the same id.
func (r *Registry) Register(rule Rule) {
	id := rule.ID()
	if _, exists := r.rules[id]; !exists {
		r.order = append(r.order, id)
	}
	r.rules[id] = rule
}

// Lookup returns the rule registered under id.
func (r *Registry) Lookup(id domain.RuleId) (Rule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRuleNotFound, id)
	}
	return rule, nil
}

// ByPriority returns every registered rule ordered by descending priority,
// with registration order breaking ties.
func (r *Registry) ByPriority() []Rule {
	ids := make([]domain.RuleId, len(r.order))
	copy(ids, r.order)
	sort.SliceStable(ids, func(i, j int) bool {
		return r.rules[ids[i]].Priority() > r.rules[ids[j]].Priority()
	})
	out := make([]Rule, len(ids))
	for i, id := range ids {
		out[i] = r.rules[id]
	}
	return out
}

// Dispatch resolves the Outcome for ctx. If named is non-nil, that rule is
// applied directly (still subject to one-hop Delegate resolution);
// otherwise rules are tried in descending-priority order and the first
// whose ShouldApply holds and whose Apply returns a non-Skip outcome wins.
func (r *Registry) Dispatch(ctx Context, named *domain.RuleId) (Outcome, domain.RuleId, error) {
	if named != nil {
		rule, err := r.Lookup(*named)
		if err != nil {
			return Outcome{}, "", err
		}
		return r.applyWithDelegate(rule, ctx)
	}

	for _, rule := range r.ByPriority() {
		if !rule.ShouldApply(ctx) {
			continue
		}
		outcome, appliedID, err := r.applyWithDelegate(rule, ctx)
		if err != nil {
			return Outcome{}, "", err
		}
		if outcome.Kind == OutcomeSkip {
			continue
		}
		return outcome, appliedID, nil
	}
	return Skip(), "", nil
}

// applyWithDelegate runs rule once, and if it returns Delegate, runs the
// named rule exactly once more; any further Delegate from that second call
// is treated as Skip.
func (r *Registry) applyWithDelegate(rule Rule, ctx Context) (Outcome, domain.RuleId, error) {
	outcome, err := rule.Apply(ctx)
	if err != nil {
		return Outcome{}, rule.ID(), fmt.Errorf("%w: rule %s: %v", domain.ErrRuleExecutionFailed, rule.ID(), err)
	}
	if outcome.Kind != OutcomeDelegate {
		return outcome, rule.ID(), nil
	}

	delegate, err := r.Lookup(outcome.DelegateTo)
	if err != nil {
		return Outcome{}, rule.ID(), err
	}
	second, err := delegate.Apply(ctx)
	if err != nil {
		return Outcome{}, delegate.ID(), fmt.Errorf("%w: rule %s: %v", domain.ErrRuleExecutionFailed, delegate.ID(), err)
	}
	if second.Kind == OutcomeDelegate {
		return Skip(), delegate.ID(), nil
	}
	return second, delegate.ID(), nil
}
