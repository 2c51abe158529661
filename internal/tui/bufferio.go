package tui

import (
	"io"
	"strings"
	"sync"
)

// Event is one call recorded by BufferIO.
type Event struct {
	Kind  string // "user", "response", "system", "warning", "success", "error", "status"
	Label string
	Text  string
}

// BufferIO is a silent IO that replays scripted input lines and records every
// output call. It backs one-shot commands and tests.
type BufferIO struct {
	mu     sync.Mutex
	inputs []string
	events []Event
}

var _ IO = (*BufferIO)(nil)

// NewBufferIO creates a BufferIO that returns inputs in order, then io.EOF.
func NewBufferIO(inputs ...string) *BufferIO {
	return &BufferIO{inputs: inputs}
}

// Events returns a copy of everything recorded so far.
func (b *BufferIO) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Of returns the recorded events of one kind.
func (b *BufferIO) Of(kind string) []Event {
	var out []Event
	for _, e := range b.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Output joins the text of every response, in order.
func (b *BufferIO) Output() string {
	var parts []string
	for _, e := range b.Of("response") {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, "\n\n")
}

func (b *BufferIO) record(kind, label, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{Kind: kind, Label: label, Text: text})
}

func (b *BufferIO) ReadInput() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.inputs) == 0 {
		return "", io.EOF
	}
	line := b.inputs[0]
	b.inputs = b.inputs[1:]
	return strings.TrimSpace(line), nil
}

func (b *BufferIO) UserMessage(text string)     { b.record("user", "", text) }
func (b *BufferIO) ThinkingStart()              {}
func (b *BufferIO) ThinkingDone()               {}
func (b *BufferIO) Response(label, text string) { b.record("response", label, text) }
func (b *BufferIO) SystemMessage(text string)   { b.record("system", "", text) }
func (b *BufferIO) Warning(msg string)          { b.record("warning", "", msg) }
func (b *BufferIO) Success(msg string)          { b.record("success", "", msg) }
func (b *BufferIO) Error(msg string)            { b.record("error", "", msg) }
func (b *BufferIO) SetStatus(mode, state string) {
	b.record("status", mode, state)
}
