// Package provider defines the unified interface over LLM providers and the
// shared request/event types. Each adapter (openai.go, anthropic.go, gemini.go)
// normalizes its API's streaming response into a sequence of Events.
package provider

import (
	"context"
)

// ── Message types ────────────────────────────────────────────────────────────

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one text message in a request.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest is the unified request sent to a provider.
type ChatRequest struct {
	Model        string
	Messages     []Message
	SystemPrompt string
	MaxTokens    int
}

// ── Streaming events ─────────────────────────────────────────────────────────

type EventType int

const (
	// EventTextDelta: incremental completion text
	EventTextDelta EventType = iota

	// EventDone: the message finished, carries token usage
	EventDone

	// EventError: the stream failed
	EventError
)

// Event is a unified streaming event.
type Event struct {
	Type EventType

	// EventTextDelta
	TextDelta string

	// EventDone
	Usage *Usage

	// EventError
	Error error
}

// Usage records the tokens spent on one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ── Provider interface ───────────────────────────────────────────────────────

// Provider is the unified interface implemented by every LLM adapter.
type Provider interface {
	// Chat starts a streaming completion.
	// The returned channel emits Events until EventDone or EventError and is then closed.
	// Callers must drain the channel or the producing goroutine leaks.
	Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error)

	// Name returns the provider identifier, e.g. "groq", "anthropic", "gemini".
	Name() string

	// Models returns the supported model list.
	Models() []string

	// DefaultModel returns the model used when a request leaves Model empty.
	DefaultModel() string
}
