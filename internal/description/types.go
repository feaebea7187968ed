// Package description classifies a static graph's nodes into structural
// roles (entry point, hub, utility, sink, directory, regular), assigns a
// per-node stability score, and emits an AutomatonDescription — the
// configuration document that seeds an automaton run.
package description

import "github.com/chronograph-dev/chronograph/internal/domain"

// Source discriminates how an AutomatonDescription came to exist.
type Source string

const (
	SourceGeneration Source = "generation"
	SourceInference  Source = "inference"
	SourceManual     Source = "manual"
)

// Meta is the description document's identifying header.
type Meta struct {
	Name        string `json:"name"`
	GeneratedAt string `json:"generated_at"`
	Source      Source `json:"source"`
	Version     int    `json:"version"`
}

// Defaults carries the automaton-wide fallbacks a description declares.
type Defaults struct {
	InitialActivation  float32 `json:"initial_activation"`
	DefaultRule        string  `json:"default_rule"`
	DampingCoefficient float32 `json:"damping_coefficient"`
	InheritanceMode    string  `json:"inheritance_mode"`
}

// InheritanceMode names how a directory's local rules combine with its
// children's.
const (
	InheritanceCompose  = "compose"
	InheritanceOverride = "override"
)

// LocalRules names the four CRUD-hook rule slots a directory node
// carries.
type LocalRules struct {
	OnFileAdd               string `json:"on_file_add,omitempty"`
	OnFileDelete            string `json:"on_file_delete,omitempty"`
	OnFileUpdate            string `json:"on_file_update,omitempty"`
	OnChildActivationChange string `json:"on_child_activation_change,omitempty"`
}

// NodeConfig is one node's entry in a description document.
//
// Payload always carries "role" (the classification label this node was
// assigned), which internal/impact reads back to seed activation
// annotations and to label the impact ranking without recomputing
// classification itself.
type NodeConfig struct {
	ID              domain.NodeId   `json:"id"`
	Path            string          `json:"path"`
	Kind            domain.NodeKind `json:"kind"`
	Stability       *float64        `json:"stability,omitempty"`
	Rule            string          `json:"rule,omitempty"`
	Payload         map[string]any  `json:"payload,omitempty"`
	InheritanceMode string          `json:"inheritance_mode,omitempty"`
	LocalRules      *LocalRules     `json:"local_rules,omitempty"`
}

// RuleType discriminates how a RuleConfig's rule should be constructed.
type RuleType string

const (
	RuleTypeBuiltin   RuleType = "builtin"
	RuleTypeLLM       RuleType = "llm"
	RuleTypeComposite RuleType = "composite"
)

// RuleConfig is one emitted rule declaration.
type RuleConfig struct {
	Name         string         `json:"name"`
	Type         RuleType       `json:"type"`
	SystemPrompt string         `json:"system_prompt,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// AutomatonDescription is the full configuration document the generator
// produces and the impact analyzer (or any automaton run) seeds from.
type AutomatonDescription struct {
	Meta     Meta         `json:"meta"`
	Defaults Defaults     `json:"defaults"`
	Nodes    []NodeConfig `json:"nodes"`
	Rules    []RuleConfig `json:"rules"`
}

// Role is the structural classification the generator assigns to a node.
type Role string

const (
	RoleDirectory  Role = "directory"
	RoleEntryPoint Role = "entry_point"
	RoleHub        Role = "hub"
	RoleUtility    Role = "utility"
	RoleSink       Role = "sink"
	RoleRegular    Role = "regular"
)

// canonicalRule is the default rule name assigned to each role.
func (r Role) canonicalRule() string {
	switch r {
	case RoleDirectory:
		return "directory_container"
	case RoleEntryPoint:
		return "entry_point"
	case RoleHub:
		return "hub"
	case RoleUtility:
		return "utility_propagation"
	case RoleSink:
		return "sink"
	default:
		return "identity"
	}
}
