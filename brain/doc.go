// Package brain provides the reasoning backends for the agent: a retrying
// HTTP transport, a provider-agnostic Thought/ToolCall data model, and
// pluggable Provider implementations that turn a conversation into a
// structured Thought.
//
// # Architecture
//
// The package follows a three-layer structure:
//
//   - Transport: one network exchange with bounded exponential-backoff retry
//   - Provider: wire codec per backend family (Anthropic messages, OpenAI
//     chat completions), decoding content blocks into a Thought while
//     preserving the raw payload for verbatim conversation replay
//   - Registry: ordered name -> constructor mapping for runtime switching
//
// # Raw content replay
//
// Each AssistantTurn carries the backend's original content payload. On the
// next call the owning provider replays it unmodified, so the backend sees
// its own prior output exactly as it produced it (tool_use blocks included).
// The raw payload is opaque to every other component.
package brain
