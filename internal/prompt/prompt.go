// Package prompt builds the text sent to the generation client.
// Every function is pure: same inputs, same prompt.
package prompt

import (
	"encoding/json"
	"strings"

	"github.com/fr33kai/Fr3kAi/internal/conversation"
	"github.com/fr33kai/Fr3kAi/internal/memory"
)

// MaxWebContent is the number of characters of fetched page text passed to an analysis prompt.
const MaxWebContent = 4000

// History renders turns as a JSON array of {"role","content"} objects.
func History(turns []conversation.Turn) string {
	if turns == nil {
		turns = []conversation.Turn{}
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Memory renders mem as a JSON object in insertion order.
func Memory(mem *memory.Memory) string {
	if mem == nil {
		return "{}"
	}
	return mem.String()
}

func context(history []conversation.Turn, mem *memory.Memory) string {
	return "Previous interactions: " + History(history) + "\nMemory: " + Memory(mem) + "\n"
}

// Basic prefixes the user prompt with the conversation and memory.
func Basic(history []conversation.Turn, mem *memory.Memory, p string) string {
	return context(history, mem) + "\n" + p
}

// BasicMemory asks what to remember from a basic exchange.
func BasicMemory(p, response string) string {
	return "Based on the following conversation, what key information should I remember?\n\n" + p + "\n" + response
}

// RAG answers query from source text.
func RAG(source, query string) string {
	return "Context: " + source + "\n\nQuery: " + query + "\n\nAnswer:"
}

// RAGMemory asks what to remember from a RAG exchange.
func RAGMemory(query, response string) string {
	return "Based on the RAG query and response, what key information should I remember?\n\nQuery: " + query + "\nResponse: " + response
}

// WebAnalysis asks for an analysis of one fetched page, truncated to MaxWebContent characters.
func WebAnalysis(query, content string) string {
	return "Analyze the following content about " + query + ":\n\n" + Truncate(content, MaxWebContent)
}

// WebSearchMemory asks what to remember from a web search.
func WebSearchMemory(query, analysis string) string {
	return "Based on the web search and analysis, what key information should I remember?\n\nQuery: " + query + "\nAnalysis: " + analysis
}

// SelfAnalysis asks the model to critique its own performance.
func SelfAnalysis(history []conversation.Turn, mem *memory.Memory) string {
	return context(history, mem) + "Analyze my performance and suggest improvements in response quality, understanding, and memory usage."
}

// ActionItems turns an analysis into action items.
func ActionItems(analysis string) string {
	return "Based on the analysis, provide 3-5 action items for improvement:\n\n" + analysis
}

// BasePromptUpdate turns action items into a revised base prompt.
func BasePromptUpdate(items string) string {
	return "Based on these action items, update my base prompt to incorporate these improvements:\n\n" + items
}

// FollowUp asks a question about the conversation so far.
func FollowUp(history []conversation.Turn, question string) string {
	return "Based on the following conversation:\n\n" + conversation.Transcript(history) + "\n\nFollow-up question: " + question + "\n\nResponse:"
}

// Truncate returns the first n characters of s, never splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// JoinAnalyses joins per-result analyses with a blank line.
func JoinAnalyses(parts []string) string {
	return strings.Join(parts, "\n\n")
}
