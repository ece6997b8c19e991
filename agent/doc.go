// Package agent implements the orchestrator for a single-session coding
// assistant: conversation state, the plan/act permission mode, a
// file-backed memory scratchpad, the tool contract and registry, and the
// think-act loop that drives a brain.Provider until it stops requesting
// tools.
//
// The Agent is single-owner, single-threaded: one instance must not be
// driven by concurrent callers. Failed loop runs are rolled back so the
// conversation never retains a user turn without its assistant reply, and
// context growth is bounded by replacing the history with a single
// summarizing turn once token pressure crosses a threshold.
package agent
