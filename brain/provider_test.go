package brain

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Think(ctx context.Context, conversation []Turn, system string, tools []ToolDefinition) (*Thought, error) {
	return &Thought{Text: "ok"}, nil
}
func (s *stubProvider) ContextLimit() int    { return 1000 }
func (s *stubProvider) LastInputTokens() int { return 0 }

func stubCtor(name string) Constructor {
	return func() (Provider, error) { return &stubProvider{name: name}, nil }
}

func TestRegistryOrderAndCycle(t *testing.T) {
	r := NewRegistry()
	r.Register("claude", stubCtor("claude"))
	r.Register("deepseek", stubCtor("deepseek"))
	r.Register("ollama", stubCtor("ollama"))

	names := r.Names()
	want := []string{"claude", "deepseek", "ollama"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("position %d: expected %s, got %s", i, n, names[i])
		}
	}

	if next := r.Next("claude"); next != "deepseek" {
		t.Errorf("expected deepseek after claude, got %s", next)
	}
	if next := r.Next("ollama"); next != "claude" {
		t.Errorf("expected cycle back to claude, got %s", next)
	}
	if next := r.Next("unknown"); next != "claude" {
		t.Errorf("unknown current should yield first, got %s", next)
	}
}

func TestRegistryNextEmpty(t *testing.T) {
	r := NewRegistry()
	if next := r.Next("anything"); next != "" {
		t.Errorf("empty registry should yield empty name, got %q", next)
	}
}

func TestRegistryReRegisterKeepsPosition(t *testing.T) {
	r := NewRegistry()
	r.Register("a", stubCtor("a"))
	r.Register("b", stubCtor("b"))
	r.Register("a", stubCtor("a2"))

	if r.Len() != 2 {
		t.Fatalf("expected 2 providers, got %d", r.Len())
	}
	if r.Names()[0] != "a" {
		t.Errorf("re-registered name should keep position, got %v", r.Names())
	}
	p, err := r.New("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "a2" {
		t.Errorf("expected replaced constructor, got %s", p.Name())
	}
}

func TestRegistryNewFailure(t *testing.T) {
	r := NewRegistry()
	r.Register("broken", func() (Provider, error) {
		return nil, &ConfigError{Message: "broken: API key not set"}
	})

	if _, err := r.New("missing"); err == nil {
		t.Error("expected error for unknown provider")
	}

	_, err := r.New("broken")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}
