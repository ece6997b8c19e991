package brain

import (
	"context"
	"fmt"
)

// Provider turns a conversation into a structured Thought. Implementations
// wrap Transport with a backend-specific endpoint, auth header, and codec.
//
// ContextLimit and LastInputTokens feed the orchestrator's context-pressure
// check; LastInputTokens reflects the most recent Think call.
type Provider interface {
	Name() string
	Think(ctx context.Context, conversation []Turn, system string, tools []ToolDefinition) (*Thought, error)
	ContextLimit() int
	LastInputTokens() int
}

// Constructor builds a fresh Provider instance. Construction may fail, for
// example when a required credential is absent; callers must treat that as
// a recoverable condition.
type Constructor func() (Provider, error)

// Registry is an ordered mapping of provider name to constructor. Order is
// registration order and determines the switching cycle.
type Registry struct {
	names []string
	ctors map[string]Constructor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a named constructor. Re-registering a name replaces the
// constructor but keeps its original position.
func (r *Registry) Register(name string, ctor Constructor) {
	if _, ok := r.ctors[name]; !ok {
		r.names = append(r.names, name)
	}
	r.ctors[name] = ctor
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.names)
}

// Next returns the name following current in the cycle. An unknown current
// name yields the first registered provider.
func (r *Registry) Next(current string) string {
	if len(r.names) == 0 {
		return ""
	}
	for i, name := range r.names {
		if name == current {
			return r.names[(i+1)%len(r.names)]
		}
	}
	return r.names[0]
}

// New constructs a fresh instance of the named provider.
func (r *Registry) New(name string) (Provider, error) {
	ctor, ok := r.ctors[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return ctor()
}
