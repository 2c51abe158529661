// Package conversation holds the in-session transcript of user and assistant turns.
package conversation

import (
	"strings"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message. Turns are never mutated after they are appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Log is an append-only ordered sequence of turns. It is unbounded; callers
// that need a bounded view use Window.
type Log struct {
	turns []Turn
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Append adds t to the end of the log.
func (l *Log) Append(t Turn) {
	l.turns = append(l.turns, t)
}

// AppendExchange appends a user turn followed by an assistant turn.
func (l *Log) AppendExchange(user, assistant string) {
	l.turns = append(l.turns,
		Turn{Role: RoleUser, Content: user},
		Turn{Role: RoleAssistant, Content: assistant},
	)
}

// All returns a copy of every turn in insertion order.
func (l *Log) All() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns.
func (l *Log) Len() int { return len(l.turns) }

// Clear empties the log.
func (l *Log) Clear() { l.turns = nil }

// Window returns a copy of the last n turns; n <= 0 means all of them.
func (l *Log) Window(n int) []Turn {
	if n <= 0 || n >= len(l.turns) {
		return l.All()
	}
	out := make([]Turn, n)
	copy(out, l.turns[len(l.turns)-n:])
	return out
}

// Transcript renders turns as "role: content" lines.
func Transcript(turns []Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
	}
	return sb.String()
}
