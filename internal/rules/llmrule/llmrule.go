// Package llmrule provides the concrete "type: llm" Rule implementation
// a description document can declare: a chat-completion model decides the
// node's next state from its current state and neighborhood. Everything
// structural stays in internal/description; this package is the one place
// a network call can enter a tick.
package llmrule

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/chronograph-dev/chronograph/internal/domain"
	"github.com/chronograph-dev/chronograph/internal/rules"
)

// Rule calls a chat-completion model to decide a node's next state. It
// implements rules.Rule; the orchestrator's read phase may therefore
// block on a network call when this rule is registered.
type Rule struct {
	id           domain.RuleId
	priority     int32
	systemPrompt string
	model        string
	client       *openai.Client
}

// Config configures a Rule.
type Config struct {
	ID           domain.RuleId
	Priority     int32
	SystemPrompt string
	Model        string
	APIKey       string
	BaseURL      string
}

// New builds an llmrule.Rule from Config.
func New(cfg Config) *Rule {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Rule{
		id:           cfg.ID,
		priority:     cfg.Priority,
		systemPrompt: cfg.SystemPrompt,
		model:        model,
		client:       openai.NewClientWithConfig(clientCfg),
	}
}

func (r *Rule) ID() domain.RuleId   { return r.id }
func (r *Rule) Description() string { return "delegates the transition decision to a chat-completion model" }
func (r *Rule) Priority() int32     { return r.priority }

// ShouldApply is unconditional; callers gate LLM-rule usage at the
// description-generation layer instead (only nodes explicitly configured
// with an llm rule reach this far).
func (r *Rule) ShouldApply(rules.Context) bool { return true }

type decision struct {
	Activation float32           `json:"activation"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Apply asks the model for the node's next activation and annotations,
// given its current state and neighborhood. On any failure it returns an
// error so the registry can wrap it as RuleExecutionFailed and the
// orchestrator can count it against the tick without aborting.
func (r *Rule) Apply(ctx rules.Context) (rules.Outcome, error) {
	prompt, err := buildPrompt(ctx)
	if err != nil {
		return rules.Outcome{}, fmt.Errorf("building prompt: %w", err)
	}

	resp, err := r.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: r.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return rules.Outcome{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return rules.Outcome{}, fmt.Errorf("chat completion returned no choices")
	}

	var d decision
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &d); err != nil {
		return rules.Outcome{}, fmt.Errorf("parsing model response: %w", err)
	}

	state := ctx.Current
	state.Activation = d.Activation
	if d.Annotations != nil {
		state.Annotations = d.Annotations
	}
	return rules.Transition(state), nil
}

func buildPrompt(ctx rules.Context) (string, error) {
	payload := map[string]any{
		"node_id":   ctx.NodeID,
		"current":   ctx.Current,
		"neighbors": ctx.Neighbors,
		"tick":      ctx.Tick,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
