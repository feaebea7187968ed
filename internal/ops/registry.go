package ops

import (
	"github.com/chronograph-dev/chronograph/internal/description"
	"github.com/chronograph-dev/chronograph/internal/domain"
	"github.com/chronograph-dev/chronograph/internal/rules"
	"github.com/chronograph-dev/chronograph/internal/rules/llmrule"
)

// buildRegistry materializes a rule registry from a description's rule
// declarations. Builtin rules become structural settle rules, llm rules
// become network-backed llmrule instances when credentials are
// configured (structural otherwise, so an automaton stays runnable
// offline), and composite rules wrap every previously declared rule.
// The Noop fallback is always registered last.
func (f *Facade) buildRegistry(desc description.AutomatonDescription) *rules.Registry {
	registry := rules.NewRegistry()

	var declared []rules.Rule
	priority := int32(len(desc.Rules))
	for _, rc := range desc.Rules {
		var rule rules.Rule
		switch {
		case rc.Type == description.RuleTypeLLM && f.cfg.LLM.Enabled && f.cfg.LLM.APIKey != "":
			rule = llmrule.New(llmrule.Config{
				ID:           domain.RuleId(rc.Name),
				Priority:     priority,
				SystemPrompt: rc.SystemPrompt,
				Model:        f.cfg.LLM.Model,
				APIKey:       f.cfg.LLM.APIKey,
				BaseURL:      f.cfg.LLM.BaseURL,
			})
		case rc.Type == description.RuleTypeComposite:
			rule = rules.NewCompositeRule(domain.RuleId(rc.Name), priority, declared...)
		default:
			rule = rules.NewStructuralRule(domain.RuleId(rc.Name), priority, desc.Defaults.DampingCoefficient)
		}
		registry.Register(rule)
		declared = append(declared, rule)
		priority--
	}

	registry.Register(rules.NoopRule{})
	return registry
}

// nodeRuleAssignments maps each node to the rule its NodeConfig names,
// for the automaton's direct-dispatch path. Nodes without an explicit
// rule fall back to priority iteration.
func nodeRuleAssignments(desc description.AutomatonDescription) map[domain.NodeId]domain.RuleId {
	assignments := make(map[domain.NodeId]domain.RuleId, len(desc.Nodes))
	for _, n := range desc.Nodes {
		if n.Rule != "" {
			assignments[n.ID] = domain.RuleId(n.Rule)
		}
	}
	return assignments
}
