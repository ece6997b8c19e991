package agent

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/martinemde/pocket/brain"
)

// Mode is the global permission gate.
type Mode string

const (
	// ModePlan allows read-only operation; mutating tools refuse with a
	// BLOCKED result.
	ModePlan Mode = "plan"
	// ModeAct allows mutations.
	ModeAct Mode = "act"
)

// PlanFile is the planning scratchpad basename that stays writable in
// plan mode.
const PlanFile = "PLAN.md"

// ToolContext is handed to every tool invocation. Tools read it and never
// persist it; a fresh one is built per call.
type ToolContext struct {
	Mode   Mode
	Memory *Memory
}

// Tool is the uniform capability interface. Mutating tools are
// individually responsible for checking the context mode; there is no
// central gate.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Execute(tc ToolContext, args map[string]any) (string, error)
}

// ToolRegistry is an ordered tool collection with first-match lookup.
type ToolRegistry struct {
	tools []Tool
}

// NewToolRegistry creates a registry holding the given tools in order.
func NewToolRegistry(tools ...Tool) *ToolRegistry {
	return &ToolRegistry{tools: tools}
}

// Register appends a tool.
func (r *ToolRegistry) Register(t Tool) {
	r.tools = append(r.tools, t)
}

// Get returns the first tool with the given name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	for _, t := range r.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Names returns the registered tool names in order.
func (r *ToolRegistry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Name())
	}
	return names
}

// Definitions projects the registry into the metadata triples the backend
// needs, omitting the executable behavior.
func (r *ToolRegistry) Definitions() []brain.ToolDefinition {
	defs := make([]brain.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, brain.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

// ValidateArgs checks a call's arguments against the tool's declared input
// schema. A non-nil error describes every violation found.
func ValidateArgs(t Tool, args map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(t.InputSchema()),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
