package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	deepseekEndpoint  = "https://api.deepseek.com/anthropic/v1/messages"
	anthropicVersion  = "2023-06-01"

	defaultClaudeModel   = "claude-sonnet-4-5-20250929"
	defaultDeepSeekModel = "deepseek-chat"
)

// AnthropicOptions configures an Anthropic-wire provider.
type AnthropicOptions struct {
	APIKey       string
	Model        string
	Endpoint     string
	MaxTokens    int // default 4096
	ContextLimit int // default 200000
	Transport    *Transport
}

// AnthropicProvider speaks the Anthropic messages wire format. It serves
// any backend exposing that format, which includes DeepSeek's
// Anthropic-compatible endpoint.
type AnthropicProvider struct {
	name            string
	model           string
	endpoint        string
	apiKey          string
	maxTokens       int
	contextLimit    int
	transport       *Transport
	lastInputTokens int
}

// NewAnthropic creates an Anthropic-wire provider. It fails when no API
// key is supplied; callers catch this during registry switching.
func NewAnthropic(name string, opts AnthropicOptions) (*AnthropicProvider, error) {
	if opts.APIKey == "" {
		return nil, &ConfigError{Message: fmt.Sprintf("%s: API key not set", name)}
	}
	if opts.Endpoint == "" {
		opts.Endpoint = anthropicEndpoint
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	if opts.ContextLimit == 0 {
		opts.ContextLimit = 200000
	}
	if opts.Transport == nil {
		opts.Transport = NewTransport(zerolog.Nop())
	}
	return &AnthropicProvider{
		name:         name,
		model:        opts.Model,
		endpoint:     opts.Endpoint,
		apiKey:       opts.APIKey,
		maxTokens:    opts.MaxTokens,
		contextLimit: opts.ContextLimit,
		transport:    opts.Transport,
	}, nil
}

// NewClaude creates the provider for the Anthropic API with Claude
// defaults.
func NewClaude(opts AnthropicOptions) (*AnthropicProvider, error) {
	if opts.Model == "" {
		opts.Model = defaultClaudeModel
	}
	return NewAnthropic("claude", opts)
}

// NewDeepSeek creates the provider for DeepSeek's Anthropic-compatible
// endpoint.
func NewDeepSeek(opts AnthropicOptions) (*AnthropicProvider, error) {
	if opts.Model == "" {
		opts.Model = defaultDeepSeekModel
	}
	if opts.Endpoint == "" {
		opts.Endpoint = deepseekEndpoint
	}
	if opts.ContextLimit == 0 {
		opts.ContextLimit = 128000
	}
	return NewAnthropic("deepseek", opts)
}

func (p *AnthropicProvider) Name() string         { return p.name }
func (p *AnthropicProvider) ContextLimit() int    { return p.contextLimit }
func (p *AnthropicProvider) LastInputTokens() int { return p.lastInputTokens }

// Think sends the conversation and decodes the response content blocks
// into a Thought.
func (p *AnthropicProvider) Think(ctx context.Context, conversation []Turn, system string, tools []ToolDefinition) (*Thought, error) {
	payload := map[string]any{
		"model":      p.model,
		"max_tokens": p.maxTokens,
		"messages":   encodeAnthropicTurns(conversation),
	}
	if system != "" {
		payload["system"] = system
	}
	if len(tools) > 0 {
		payload["tools"] = tools
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	body, err := p.transport.Send(ctx, p.endpoint, headers, payload)
	if err != nil {
		return nil, err
	}
	return p.decode(body)
}

// anthropicMessage is one wire message. Content is raw so assistant
// payloads replay byte for byte.
type anthropicMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

func encodeAnthropicTurns(conversation []Turn) []anthropicMessage {
	msgs := make([]anthropicMessage, 0, len(conversation))
	for _, turn := range conversation {
		switch turn.Kind {
		case TurnUser:
			if turn.User == nil {
				continue
			}
			content, _ := json.Marshal(turn.User.Content)
			msgs = append(msgs, anthropicMessage{Role: "user", Content: content})
		case TurnAssistant:
			if turn.Assistant == nil {
				continue
			}
			raw := turn.Assistant.Raw
			if len(raw) == 0 || turn.Assistant.Wire != WireAnthropic {
				raw, _ = json.Marshal(turn.Assistant.Content)
			}
			msgs = append(msgs, anthropicMessage{Role: "assistant", Content: raw})
		case TurnToolResults:
			if turn.ToolResults == nil {
				continue
			}
			blocks := make([]map[string]any, 0, len(turn.ToolResults.Results))
			for _, r := range turn.ToolResults.Results {
				blocks = append(blocks, map[string]any{
					"type":        "tool_result",
					"tool_use_id": r.ToolUseID,
					"content":     r.Content,
				})
			}
			content, _ := json.Marshal(blocks)
			msgs = append(msgs, anthropicMessage{Role: "user", Content: content})
		}
	}
	return msgs
}

func (p *AnthropicProvider) decode(body []byte) (*Thought, error) {
	var resp struct {
		Content json.RawMessage `json:"content"`
		Usage   struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	p.lastInputTokens = resp.Usage.InputTokens

	var blocks []struct {
		Type  string         `json:"type"`
		Text  string         `json:"text"`
		ID    string         `json:"id"`
		Name  string         `json:"name"`
		Input map[string]any `json:"input"`
	}
	if err := json.Unmarshal(resp.Content, &blocks); err != nil {
		return nil, fmt.Errorf("%s: decode content blocks: %w", p.name, err)
	}

	var textParts []string
	var calls []ToolCall
	for _, b := range blocks {
		switch b.Type {
		case "text":
			textParts = append(textParts, b.Text)
		case "tool_use":
			id := b.ID
			if id == "" {
				id = "toolu_" + uuid.New().String()[:8]
			}
			calls = append(calls, ToolCall{ID: id, Name: b.Name, Args: b.Input})
		}
	}

	return &Thought{
		Text:      strings.Join(textParts, "\n"),
		ToolCalls: calls,
		Raw:       resp.Content,
		Wire:      WireAnthropic,
	}, nil
}
