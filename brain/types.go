package brain

import "encoding/json"

// TurnKind discriminates between turn types.
type TurnKind string

const (
	TurnUser        TurnKind = "user"
	TurnAssistant   TurnKind = "assistant"
	TurnToolResults TurnKind = "tool_results"
)

// Turn is a single entry in the conversation history.
type Turn struct {
	Kind        TurnKind         `json:"kind"`
	User        *UserTurn        `json:"user,omitempty"`
	Assistant   *AssistantTurn   `json:"assistant,omitempty"`
	ToolResults *ToolResultsTurn `json:"tool_results,omitempty"`
}

// UserTurn holds user input.
type UserTurn struct {
	Content string `json:"content"`
}

// Wire format identifiers for raw assistant payloads. A provider replays a
// raw payload only when it speaks the format that produced it; otherwise it
// falls back to the plain-text content.
const (
	WireAnthropic = "anthropic"
	WireChat      = "chat"
)

// AssistantTurn holds the backend's response. Raw is the wire-format payload
// replayed verbatim on the next call to a provider speaking the same format.
type AssistantTurn struct {
	Content string          `json:"content"`
	Raw     json.RawMessage `json:"raw,omitempty"`
	Wire    string          `json:"wire,omitempty"`
}

// ToolResult pairs a tool execution result with the call it answers.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
}

// ToolResultsTurn holds one result per tool call of the preceding
// assistant turn, in call order.
type ToolResultsTurn struct {
	Results []ToolResult `json:"results"`
}

// NewUserTurn creates a Turn wrapping user input.
func NewUserTurn(content string) Turn {
	return Turn{Kind: TurnUser, User: &UserTurn{Content: content}}
}

// NewAssistantTurn creates a Turn from a decoded Thought.
func NewAssistantTurn(thought *Thought) Turn {
	return Turn{
		Kind:      TurnAssistant,
		Assistant: &AssistantTurn{Content: thought.Text, Raw: thought.Raw, Wire: thought.Wire},
	}
}

// NewToolResultsTurn creates a Turn wrapping tool results.
func NewToolResultsTurn(results []ToolResult) Turn {
	return Turn{Kind: TurnToolResults, ToolResults: &ToolResultsTurn{Results: results}}
}

// ToolCall is a backend-requested action with a correlation id.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Thought is the decoded output of one provider call. Raw holds the
// provider's response payload in the wire format named by Wire.
type Thought struct {
	Text      string          `json:"text,omitempty"`
	ToolCalls []ToolCall      `json:"tool_calls,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	Wire      string          `json:"wire,omitempty"`
}

// ToolDefinition describes a tool for the backend (serializable metadata,
// no executable behavior).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}
