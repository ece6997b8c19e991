package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/martinemde/pocket/brain"
)

// DefaultMaxToolRounds bounds tool rounds per user input. The backend
// normally ends the loop by declining further tool calls; the cap guards
// against one that never does.
const DefaultMaxToolRounds = 50

// compactionThreshold is the context-pressure ratio that triggers
// summarization.
const compactionThreshold = 0.75

const summaryPrompt = "Summarize this conversation so far: key decisions, " +
	"files discussed, and pending work. The summary will replace the full " +
	"history, so include everything needed to continue."

// LoopLimitError reports an agentic loop that exceeded the tool-round cap.
type LoopLimitError struct {
	Rounds int
}

func (e *LoopLimitError) Error() string {
	return fmt.Sprintf("agentic loop exceeded %d tool rounds", e.Rounds)
}

// Config holds optional Agent settings.
type Config struct {
	Mode          Mode // default plan
	MaxToolRounds int  // default DefaultMaxToolRounds
	Logger        zerolog.Logger
}

// Agent owns one conversation and drives the think-act loop. Single
// logical thread: provider calls and tool executions block the caller,
// and concurrent use of one instance is not supported.
type Agent struct {
	id            string
	conversation  []brain.Turn
	mode          Mode
	provider      brain.Provider
	providerName  string
	providers     *brain.Registry
	tools         *ToolRegistry
	memory        *Memory
	maxToolRounds int
	rollbackBase  int
	log           zerolog.Logger
}

// New creates an Agent with the given active provider. The provider's
// Name must match its registration in providers for switching to cycle
// correctly.
func New(provider brain.Provider, providers *brain.Registry, tools *ToolRegistry, memory *Memory, cfg Config) *Agent {
	if cfg.Mode == "" {
		cfg.Mode = ModePlan
	}
	if cfg.MaxToolRounds == 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	id := uuid.New().String()
	return &Agent{
		id:            id,
		mode:          cfg.Mode,
		provider:      provider,
		providerName:  provider.Name(),
		providers:     providers,
		tools:         tools,
		memory:        memory,
		maxToolRounds: cfg.MaxToolRounds,
		log:           cfg.Logger.With().Str("session_id", id).Logger(),
	}
}

// ID returns the session identifier.
func (a *Agent) ID() string { return a.id }

// Mode returns the current permission mode.
func (a *Agent) Mode() Mode { return a.mode }

// ProviderName returns the active provider's registry name.
func (a *Agent) ProviderName() string { return a.providerName }

// Conversation returns a copy of the turn history.
func (a *Agent) Conversation() []brain.Turn {
	conv := make([]brain.Turn, len(a.conversation))
	copy(conv, a.conversation)
	return conv
}

// HandleInput processes one line of user input and returns the reply text
// plus a stop flag. The flag is the explicit quit signal; it is the only
// non-text control flow. Failures never propagate: the pending user turn
// is rolled back and the error is returned as text.
func (a *Agent) HandleInput(ctx context.Context, input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	switch {
	case trimmed == "/q":
		return "", true
	case trimmed == "/switch":
		return a.switchProvider(), false
	case trimmed == "/mode" || strings.HasPrefix(trimmed, "/mode "):
		return a.setMode(trimmed), false
	case trimmed == "":
		return "", false
	}

	a.rollbackBase = len(a.conversation)
	a.conversation = append(a.conversation, brain.NewUserTurn(input))

	output, err := a.run(ctx)
	if err != nil {
		// Full revert of the loop run. Compaction moves the rollback point
		// to the summary turn, so the history always ends at a turn
		// boundary a new user turn can follow.
		if len(a.conversation) > a.rollbackBase {
			a.conversation = a.conversation[:a.rollbackBase]
		}
		a.log.Warn().Err(err).Msg("input failed, user turn rolled back")
		return "Error: " + err.Error(), false
	}
	return output, false
}

// run is the agentic loop: think, execute requested tools, repeat until
// the backend stops asking for tools.
func (a *Agent) run(ctx context.Context) (string, error) {
	var parts []string
	rounds := 0

	for {
		thought, err := a.provider.Think(ctx, a.conversation, a.memory.Content(), a.tools.Definitions())
		if err != nil {
			return "", err
		}

		// Compact the prior history before appending the new response, so a
		// response with pending tool calls keeps its results adjacent.
		if a.underContextPressure() {
			if err := a.compact(ctx); err != nil {
				return "", err
			}
		}

		a.conversation = append(a.conversation, brain.NewAssistantTurn(thought))
		if thought.Text != "" {
			parts = append(parts, thought.Text)
		}

		if len(thought.ToolCalls) == 0 {
			break
		}

		rounds++
		if rounds > a.maxToolRounds {
			return "", &LoopLimitError{Rounds: a.maxToolRounds}
		}

		results := make([]brain.ToolResult, 0, len(thought.ToolCalls))
		for _, call := range thought.ToolCalls {
			results = append(results, brain.ToolResult{
				ToolUseID: call.ID,
				Content:   a.dispatch(call),
			})
		}
		a.conversation = append(a.conversation, brain.NewToolResultsTurn(results))
	}

	return strings.Join(parts, "\n"), nil
}

// dispatch executes one tool call. Every failure becomes a descriptive
// result string so the backend can recover.
func (a *Agent) dispatch(call brain.ToolCall) string {
	tool, ok := a.tools.Get(call.Name)
	if !ok {
		return fmt.Sprintf("Error: Tool '%s' not found", call.Name)
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	if err := ValidateArgs(tool, args); err != nil {
		return fmt.Sprintf("Error: Invalid arguments - %v", err)
	}

	a.log.Debug().Str("tool", call.Name).Str("call_id", call.ID).Msg("executing tool")
	result, err := tool.Execute(ToolContext{Mode: a.mode, Memory: a.memory}, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}

func (a *Agent) underContextPressure() bool {
	limit := a.provider.ContextLimit()
	if limit <= 0 {
		return false
	}
	return float64(a.provider.LastInputTokens())/float64(limit) >= compactionThreshold
}

// compact replaces the conversation so far with one summarizing assistant
// turn. All prior turns are discarded permanently, and the rollback point
// moves with them: a later failure in the same run reverts to the summary,
// since the summarized history cannot be restored.
func (a *Agent) compact(ctx context.Context) error {
	request := append(a.Conversation(), brain.NewUserTurn(summaryPrompt))
	summary, err := a.provider.Think(ctx, request, a.memory.Content(), nil)
	if err != nil {
		return fmt.Errorf("compaction: %w", err)
	}
	a.log.Info().Int("discarded_turns", len(a.conversation)).Msg("conversation compacted")
	a.conversation = []brain.Turn{brain.NewAssistantTurn(summary)}
	a.rollbackBase = len(a.conversation)
	return nil
}

// switchProvider rotates to the next registered provider, re-constructing
// it fresh. Construction failure keeps the current provider active.
func (a *Agent) switchProvider() string {
	next := a.providers.Next(a.providerName)
	if next == "" {
		return "No providers registered"
	}
	p, err := a.providers.New(next)
	if err != nil {
		return fmt.Sprintf("Cannot switch to %s: %v", next, err)
	}
	a.provider = p
	a.providerName = next
	a.log.Info().Str("provider", next).Msg("provider switched")
	return "Switched to: " + next
}

// setMode parses the optional trailing token of a /mode command. Only an
// explicit "act" enables writing; anything else falls back to plan.
func (a *Agent) setMode(input string) string {
	fields := strings.Fields(input)
	if len(fields) > 1 && fields[1] == string(ModeAct) {
		a.mode = ModeAct
		return "Switched to ACT MODE (writing enabled)"
	}
	a.mode = ModePlan
	return "Switched to PLAN MODE (read-only)"
}
