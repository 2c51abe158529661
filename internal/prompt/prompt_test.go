package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fr33kai/Fr3kAi/internal/conversation"
	"github.com/fr33kai/Fr3kAi/internal/memory"
)

func fixture() ([]conversation.Turn, *memory.Memory) {
	turns := []conversation.Turn{
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello"},
	}
	mem := memory.New()
	mem.SetText("hi", "user greets")
	return turns, mem
}

func TestBasic(t *testing.T) {
	turns, mem := fixture()
	got := Basic(turns, mem, "What now?")
	want := `Previous interactions: [{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]` +
		"\nMemory: {\"hi\":\"user greets\"}\n\nWhat now?"
	if got != want {
		t.Errorf("Basic =\n%q\nwant\n%q", got, want)
	}
}

func TestBasicEmptyState(t *testing.T) {
	got := Basic(nil, memory.New(), "p")
	want := "Previous interactions: []\nMemory: {}\n\np"
	if got != want {
		t.Errorf("Basic = %q, want %q", got, want)
	}
}

func TestFixedPrompts(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BasicMemory", BasicMemory("p", "r"),
			"Based on the following conversation, what key information should I remember?\n\np\nr"},
		{"RAG", RAG("src", "q"), "Context: src\n\nQuery: q\n\nAnswer:"},
		{"RAGMemory", RAGMemory("q", "r"),
			"Based on the RAG query and response, what key information should I remember?\n\nQuery: q\nResponse: r"},
		{"WebAnalysis", WebAnalysis("go", "page"), "Analyze the following content about go:\n\npage"},
		{"WebSearchMemory", WebSearchMemory("q", "a"),
			"Based on the web search and analysis, what key information should I remember?\n\nQuery: q\nAnalysis: a"},
		{"ActionItems", ActionItems("a"), "Based on the analysis, provide 3-5 action items for improvement:\n\na"},
		{"BasePromptUpdate", BasePromptUpdate("i"),
			"Based on these action items, update my base prompt to incorporate these improvements:\n\ni"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestSelfAnalysis(t *testing.T) {
	got := SelfAnalysis(nil, memory.New())
	want := "Previous interactions: []\nMemory: {}\nAnalyze my performance and suggest improvements in response quality, understanding, and memory usage."
	if got != want {
		t.Errorf("SelfAnalysis = %q", got)
	}
}

func TestFollowUp(t *testing.T) {
	turns, _ := fixture()
	got := FollowUp(turns, "and?")
	want := "Based on the following conversation:\n\nuser: hi\nassistant: hello\n\nFollow-up question: and?\n\nResponse:"
	if got != want {
		t.Errorf("FollowUp = %q, want %q", got, want)
	}
}

func TestWebAnalysisTruncates(t *testing.T) {
	content := strings.Repeat("é", MaxWebContent+100)
	got := WebAnalysis("q", content)
	body := strings.TrimPrefix(got, "Analyze the following content about q:\n\n")
	if n := utf8.RuneCountInString(body); n != MaxWebContent {
		t.Errorf("truncated to %d runes, want %d", n, MaxWebContent)
	}
	if !utf8.ValidString(body) {
		t.Error("truncation split a UTF-8 sequence")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestJoinAnalyses(t *testing.T) {
	got := JoinAnalyses([]string{"a", "b", "c"})
	if got != "a\n\nb\n\nc" {
		t.Errorf("JoinAnalyses = %q", got)
	}
	if len(strings.Split(got, "\n\n")) != 3 {
		t.Error("expected 3 segments")
	}
}
