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
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "llama3.1"
)

// OllamaOptions configures the local Ollama provider.
type OllamaOptions struct {
	Host         string
	Model        string
	MaxTokens    int // default 4096
	ContextLimit int // default 8192
	Transport    *Transport
}

// OllamaProvider speaks the OpenAI chat-completions wire format against a
// local Ollama host. No credential is required, so construction cannot
// fail on missing configuration.
type OllamaProvider struct {
	model           string
	endpoint        string
	maxTokens       int
	contextLimit    int
	transport       *Transport
	lastInputTokens int
}

// NewOllama creates the local provider.
func NewOllama(opts OllamaOptions) (*OllamaProvider, error) {
	if opts.Host == "" {
		opts.Host = defaultOllamaHost
	}
	if opts.Model == "" {
		opts.Model = defaultOllamaModel
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	if opts.ContextLimit == 0 {
		opts.ContextLimit = 8192
	}
	if opts.Transport == nil {
		opts.Transport = NewTransport(zerolog.Nop())
	}
	return &OllamaProvider{
		model:        opts.Model,
		endpoint:     strings.TrimRight(opts.Host, "/") + "/v1/chat/completions",
		maxTokens:    opts.MaxTokens,
		contextLimit: opts.ContextLimit,
		transport:    opts.Transport,
	}, nil
}

func (p *OllamaProvider) Name() string         { return "ollama" }
func (p *OllamaProvider) ContextLimit() int    { return p.contextLimit }
func (p *OllamaProvider) LastInputTokens() int { return p.lastInputTokens }

// Think sends the conversation in chat-completions form and decodes the
// first choice into a Thought.
func (p *OllamaProvider) Think(ctx context.Context, conversation []Turn, system string, tools []ToolDefinition) (*Thought, error) {
	payload := map[string]any{
		"model":      p.model,
		"max_tokens": p.maxTokens,
		"messages":   encodeChatMessages(conversation, system),
	}
	if len(tools) > 0 {
		wireTools := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			wireTools = append(wireTools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.InputSchema,
				},
			})
		}
		payload["tools"] = wireTools
	}

	body, err := p.transport.Send(ctx, p.endpoint, nil, payload)
	if err != nil {
		return nil, err
	}
	return p.decode(body)
}

func encodeChatMessages(conversation []Turn, system string) []json.RawMessage {
	msgs := make([]json.RawMessage, 0, len(conversation)+1)
	add := func(v any) {
		raw, _ := json.Marshal(v)
		msgs = append(msgs, raw)
	}

	if system != "" {
		add(map[string]any{"role": "system", "content": system})
	}
	for _, turn := range conversation {
		switch turn.Kind {
		case TurnUser:
			if turn.User != nil {
				add(map[string]any{"role": "user", "content": turn.User.Content})
			}
		case TurnAssistant:
			if turn.Assistant == nil {
				continue
			}
			if len(turn.Assistant.Raw) > 0 && turn.Assistant.Wire == WireChat {
				msgs = append(msgs, turn.Assistant.Raw)
			} else {
				add(map[string]any{"role": "assistant", "content": turn.Assistant.Content})
			}
		case TurnToolResults:
			if turn.ToolResults == nil {
				continue
			}
			for _, r := range turn.ToolResults.Results {
				add(map[string]any{
					"role":         "tool",
					"tool_call_id": r.ToolUseID,
					"content":      r.Content,
				})
			}
		}
	}
	return msgs
}

func (p *OllamaProvider) decode(body []byte) (*Thought, error) {
	var resp struct {
		Choices []struct {
			Message json.RawMessage `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens int `json:"prompt_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ollama: response has no choices")
	}
	p.lastInputTokens = resp.Usage.PromptTokens

	raw := resp.Choices[0].Message
	var msg struct {
		Content   string `json:"content"`
		ToolCalls []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("ollama: decode message: %w", err)
	}

	var calls []ToolCall
	for _, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.New().String()[:8]
		}
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("ollama: decode tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		calls = append(calls, ToolCall{ID: id, Name: tc.Function.Name, Args: args})
	}

	return &Thought{Text: msg.Content, ToolCalls: calls, Raw: raw, Wire: WireChat}, nil
}
