package description

import (
	"fmt"
	"sort"
	"time"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// canonicalRules is the fixed set of rule names the generator always
// emits, one per Role, so that every rule a node config references is
// resolvable regardless of which roles a given graph actually contains.
var canonicalRules = []Role{
	RoleDirectory, RoleEntryPoint, RoleHub, RoleUtility, RoleSink, RoleRegular,
}

// directoryLocalRules is the canonical CRUD-hook rule-name set every
// directory node is assigned.
var directoryLocalRules = LocalRules{
	OnFileAdd:               "validate_child",
	OnFileDelete:            "check_dependents",
	OnFileUpdate:            "propagate_change",
	OnChildActivationChange: "aggregate_activation",
}

// llmSystemPrompts are the pre-canned system prompts emitted when the
// generator is configured to declare role rules as LLM-backed. Only the
// roles whose evolution is judgment-shaped get a prompt; sink and
// directory rules stay builtin even in LLM mode.
var llmSystemPrompts = map[Role]string{
	RoleEntryPoint: "You are the entry point of the application. When activated:\n- Propagate activation to direct dependencies\n- Summarize key state changes\n- Maintain high stability",
	RoleHub:        "You are a hub module that many other modules depend on.\n- Changes here have wide-reaching effects\n- Propagate activation to all dependents\n- Be conservative with state changes",
	RoleUtility:    "This is a utility module providing helper functions.\n- Activation propagates upward to importers\n- Internal changes should be isolated\n- Focus on interface stability",
}

// Generator builds an AutomatonDescription from a static graph by
// classifying every node and assigning each its canonical rule and
// stability.
type Generator struct {
	stabilityCfg StabilityConfig
	llmRules     bool
}

// GeneratorOption configures a Generator beyond its stability constants.
type GeneratorOption func(*Generator)

// WithLLMRules makes the entry-point, hub, and utility rules type "llm"
// with pre-canned system prompts instead of type "builtin". Everything
// else, including the directory local-rule hooks, stays builtin.
func WithLLMRules(enabled bool) GeneratorOption {
	return func(g *Generator) { g.llmRules = enabled }
}

// New builds a Generator from the description-generator portion of a
// workspace config.
func New(stabilityCfg StabilityConfig, opts ...GeneratorOption) *Generator {
	g := &Generator{stabilityCfg: stabilityCfg}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces an AutomatonDescription for graph. name becomes the
// description's Meta.Name; now is stamped as Meta.GeneratedAt.
func (g *Generator) Generate(graph domain.SourceCodeGraph, name string, now time.Time) AutomatonDescription {
	degrees, maxIn := computeDegrees(graph)

	nodes := make([]NodeConfig, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		d := degrees[n.ID]
		role := classify(n, d, maxIn)
		st := stability(role, d, maxIn, g.stabilityCfg)

		cfg := NodeConfig{
			ID:   n.ID,
			Path: n.Metadata["relative_path"],
			Kind: n.Kind,
			Rule: role.canonicalRule(),
			Payload: map[string]any{
				"role":       string(role),
				"in_degree":  d.in,
				"out_degree": d.out,
			},
		}
		cfg.Stability = &st

		if role == RoleDirectory {
			rules := directoryLocalRules
			cfg.LocalRules = &rules
			cfg.InheritanceMode = InheritanceCompose
		}

		nodes = append(nodes, cfg)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return AutomatonDescription{
		Meta: Meta{
			Name:        name,
			GeneratedAt: now.UTC().Format(time.RFC3339),
			Source:      SourceGeneration,
			Version:     1,
		},
		Defaults: Defaults{
			InitialActivation:  0,
			DefaultRule:        RoleRegular.canonicalRule(),
			DampingCoefficient: 0.5,
			InheritanceMode:    InheritanceCompose,
		},
		Nodes: nodes,
		Rules: g.ruleDeclarations(),
	}
}

// ruleDeclarations emits a RuleConfig for every canonical role rule and
// every directory local-rule slot, so that every name a NodeConfig or
// LocalRules slot can reference is resolvable in Rules.
func (g *Generator) ruleDeclarations() []RuleConfig {
	var decls []RuleConfig
	for _, role := range canonicalRules {
		decl := RuleConfig{Name: role.canonicalRule(), Type: RuleTypeBuiltin}
		if prompt, ok := llmSystemPrompts[role]; ok && g.llmRules {
			decl.Type = RuleTypeLLM
			decl.SystemPrompt = prompt
		}
		decls = append(decls, decl)
	}
	for _, name := range []string{
		directoryLocalRules.OnFileAdd,
		directoryLocalRules.OnFileDelete,
		directoryLocalRules.OnFileUpdate,
		directoryLocalRules.OnChildActivationChange,
	} {
		decls = append(decls, RuleConfig{Name: name, Type: RuleTypeBuiltin})
	}
	return decls
}

// Validate checks that every node the description names exists in graph,
// reporting the first unknown NodeId.
func Validate(desc AutomatonDescription, graph domain.SourceCodeGraph) error {
	known := make(map[domain.NodeId]struct{}, len(graph.Nodes))
	for _, n := range graph.Nodes {
		known[n.ID] = struct{}{}
	}
	for _, n := range desc.Nodes {
		if _, ok := known[n.ID]; !ok {
			return fmt.Errorf("%w: node %d (%s)", domain.ErrDescriptionMismatch, n.ID, n.Path)
		}
	}
	return nil
}

// RoleOf reads the role label back off a NodeConfig's Payload, as written
// by Generate. Returns RoleRegular if absent or malformed, matching the
// generator's own default rule assignment.
func RoleOf(n NodeConfig) Role {
	if n.Payload == nil {
		return RoleRegular
	}
	if v, ok := n.Payload["role"].(string); ok {
		return Role(v)
	}
	return RoleRegular
}
