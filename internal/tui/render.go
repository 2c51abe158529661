package tui

import (
	"fmt"
	"strings"

	"github.com/fr33kai/Fr3kAi/internal/conversation"
	"github.com/fr33kai/Fr3kAi/internal/memory"
)

// RenderHistory formats the conversation as "User: ..." / "Assistant: ..." lines.
func RenderHistory(turns []conversation.Turn) string {
	if len(turns) == 0 {
		return "No conversation yet."
	}
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(roleTitle(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
	}
	return sb.String()
}

func roleTitle(r conversation.Role) string {
	s := string(r)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RenderMemoryKeys lists the memory keys in insertion order.
func RenderMemoryKeys(mem *memory.Memory) string {
	if mem == nil || mem.Len() == 0 {
		return "Memory is empty."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d memory entries:", mem.Len())
	for i, k := range mem.Keys() {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, k)
	}
	return sb.String()
}

// RenderMemoryEntry shows one memory entry the way the expandable viewer does.
func RenderMemoryEntry(key string, v memory.Value) string {
	return "Memory key: " + key + "\nValue: " + v.String()
}
