package brain

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewAnthropicRequiresAPIKey(t *testing.T) {
	_, err := NewClaude(AnthropicOptions{})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}

	_, err = NewDeepSeek(AnthropicOptions{})
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}

func TestAnthropicDefaults(t *testing.T) {
	p, err := NewClaude(AnthropicOptions{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "claude" {
		t.Errorf("expected name claude, got %s", p.Name())
	}
	if p.ContextLimit() != 200000 {
		t.Errorf("expected 200000 context limit, got %d", p.ContextLimit())
	}

	d, err := NewDeepSeek(AnthropicOptions{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "deepseek" {
		t.Errorf("expected name deepseek, got %s", d.Name())
	}
	if d.ContextLimit() != 128000 {
		t.Errorf("expected 128000 context limit, got %d", d.ContextLimit())
	}
}

func anthropicTestProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewAnthropic("claude", AnthropicOptions{
		APIKey:    "test-key",
		Model:     "test-model",
		Endpoint:  srv.URL,
		Transport: NewTransport(zerolog.Nop()),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestAnthropicThinkDecodesTextAndToolUse(t *testing.T) {
	response := `{
		"content": [
			{"type": "text", "text": "Let me check."},
			{"type": "tool_use", "id": "toolu_01", "name": "read_file", "input": {"path": "main.go"}}
		],
		"usage": {"input_tokens": 1234}
	}`
	p := anthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic-version header")
		}
		io.WriteString(w, response)
	})

	thought, err := p.Think(context.Background(), []Turn{NewUserTurn("hi")}, "system prompt", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if thought.Text != "Let me check." {
		t.Errorf("unexpected text: %q", thought.Text)
	}
	if len(thought.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(thought.ToolCalls))
	}
	call := thought.ToolCalls[0]
	if call.ID != "toolu_01" || call.Name != "read_file" {
		t.Errorf("unexpected tool call: %+v", call)
	}
	if call.Args["path"] != "main.go" {
		t.Errorf("unexpected args: %v", call.Args)
	}
	if p.LastInputTokens() != 1234 {
		t.Errorf("expected 1234 input tokens, got %d", p.LastInputTokens())
	}
	if len(thought.Raw) == 0 {
		t.Error("expected raw content blocks to be preserved")
	}
}

func TestAnthropicThinkSynthesizesToolCallID(t *testing.T) {
	p := anthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"content":[{"type":"tool_use","name":"list_files","input":{}}]}`)
	})
	thought, err := p.Think(context.Background(), []Turn{NewUserTurn("hi")}, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(thought.ToolCalls) != 1 || thought.ToolCalls[0].ID == "" {
		t.Errorf("expected synthesized tool call id, got %+v", thought.ToolCalls)
	}
}

func TestAnthropicRequestEncoding(t *testing.T) {
	var captured map[string]json.RawMessage
	p := anthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		io.WriteString(w, `{"content":[{"type":"text","text":"ok"}]}`)
	})

	rawAssistant := json.RawMessage(`[{"type":"text","text":"thinking"},{"type":"tool_use","id":"toolu_9","name":"read_file","input":{"path":"a"}}]`)
	conversation := []Turn{
		NewUserTurn("read a"),
		{Kind: TurnAssistant, Assistant: &AssistantTurn{Content: "thinking", Raw: rawAssistant, Wire: WireAnthropic}},
		NewToolResultsTurn([]ToolResult{{ToolUseID: "toolu_9", Content: "contents"}}),
	}
	tools := []ToolDefinition{{Name: "read_file", Description: "Read a file", InputSchema: map[string]any{"type": "object"}}}

	if _, err := p.Think(context.Background(), conversation, "sys", tools); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var system string
	json.Unmarshal(captured["system"], &system)
	if system != "sys" {
		t.Errorf("expected system prompt, got %q", system)
	}

	var msgs []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(captured["messages"], &msgs); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" || msgs[2].Role != "user" {
		t.Errorf("unexpected roles: %v %v %v", msgs[0].Role, msgs[1].Role, msgs[2].Role)
	}
	// Assistant content must replay the raw blocks byte for byte.
	if string(msgs[1].Content) != string(rawAssistant) {
		t.Errorf("assistant content not replayed verbatim:\n%s", msgs[1].Content)
	}

	var blocks []map[string]any
	if err := json.Unmarshal(msgs[2].Content, &blocks); err != nil {
		t.Fatalf("decode tool result blocks: %v", err)
	}
	if len(blocks) != 1 || blocks[0]["type"] != "tool_result" || blocks[0]["tool_use_id"] != "toolu_9" {
		t.Errorf("unexpected tool result encoding: %v", blocks)
	}

	var wireTools []map[string]any
	if err := json.Unmarshal(captured["tools"], &wireTools); err != nil {
		t.Fatalf("decode tools: %v", err)
	}
	if len(wireTools) != 1 || wireTools[0]["name"] != "read_file" {
		t.Errorf("unexpected tools encoding: %v", wireTools)
	}
	if _, ok := wireTools[0]["input_schema"]; !ok {
		t.Errorf("expected input_schema key, got %v", wireTools[0])
	}
}

func TestAnthropicForeignRawFallsBackToText(t *testing.T) {
	var captured map[string]json.RawMessage
	p := anthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		io.WriteString(w, `{"content":[{"type":"text","text":"ok"}]}`)
	})

	// A payload recorded under a different wire format must not be replayed.
	conversation := []Turn{
		NewUserTurn("hi"),
		{Kind: TurnAssistant, Assistant: &AssistantTurn{
			Content: "earlier answer",
			Raw:     json.RawMessage(`{"role":"assistant","content":"earlier answer"}`),
			Wire:    WireChat,
		}},
		NewUserTurn("and now?"),
	}
	if _, err := p.Think(context.Background(), conversation, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var msgs []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(captured["messages"], &msgs); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if string(msgs[1].Content) != `"earlier answer"` {
		t.Errorf("expected plain text fallback, got %s", msgs[1].Content)
	}
}

func TestAnthropicOmitsEmptySystemAndTools(t *testing.T) {
	var captured map[string]json.RawMessage
	p := anthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		io.WriteString(w, `{"content":[]}`)
	})
	if _, err := p.Think(context.Background(), []Turn{NewUserTurn("hi")}, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := captured["system"]; ok {
		t.Error("empty system prompt should be omitted")
	}
	if _, ok := captured["tools"]; ok {
		t.Error("empty tools should be omitted")
	}
}
