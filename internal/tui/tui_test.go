package tui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fr33kai/Fr3kAi/internal/conversation"
	"github.com/fr33kai/Fr3kAi/internal/memory"
)

func TestPlainIO(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPlainIOFrom(strings.NewReader("  hello  \n/quit\n"), &out, &errOut)

	line, err := p.ReadInput()
	if err != nil || line != "hello" {
		t.Fatalf("ReadInput = %q, %v", line, err)
	}
	p.SetStatus("rag", "ready")
	if _, err := p.ReadInput(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "[rag] > ") {
		t.Errorf("prompt does not show mode: %q", out.String())
	}
	if _, err := p.ReadInput(); err != io.EOF {
		t.Errorf("expected io.EOF at end of input, got %v", err)
	}

	p.Response("RAG Response", "answer\n")
	p.Warning("Please enter a query.")
	p.Success("done")
	p.Error("boom")

	got := out.String()
	for _, want := range []string{"## RAG Response\n\nanswer\n", "warning: Please enter a query.", "ok: done"} {
		if !strings.Contains(got, want) {
			t.Errorf("stdout missing %q:\n%s", want, got)
		}
	}
	if errOut.String() != "error: boom\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestBufferIO(t *testing.T) {
	b := NewBufferIO("one", " two ")
	if l, _ := b.ReadInput(); l != "one" {
		t.Fatalf("first input = %q", l)
	}
	if l, _ := b.ReadInput(); l != "two" {
		t.Fatalf("second input = %q", l)
	}
	if _, err := b.ReadInput(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}

	b.Response("A", "first")
	b.Warning("w")
	b.Response("B", "second")
	if b.Output() != "first\n\nsecond" {
		t.Errorf("Output = %q", b.Output())
	}
	if len(b.Of("warning")) != 1 || len(b.Events()) != 3 {
		t.Errorf("unexpected events: %+v", b.Events())
	}
}

func TestRenderHistory(t *testing.T) {
	if got := RenderHistory(nil); got != "No conversation yet." {
		t.Errorf("empty history = %q", got)
	}
	got := RenderHistory([]conversation.Turn{
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello"},
	})
	if got != "User: hi\nAssistant: hello" {
		t.Errorf("history = %q", got)
	}
}

func TestRenderMemory(t *testing.T) {
	if got := RenderMemoryKeys(memory.New()); got != "Memory is empty." {
		t.Errorf("empty memory = %q", got)
	}
	m := memory.New()
	m.SetText("b", "2")
	m.SetText("a", "1")
	if got := RenderMemoryKeys(m); got != "2 memory entries:\n  1. b\n  2. a" {
		t.Errorf("keys = %q", got)
	}
	if got := RenderMemoryEntry("k", memory.Text("v")); got != "Memory key: k\nValue: v" {
		t.Errorf("entry = %q", got)
	}
}

func TestModelUpdate(t *testing.T) {
	inputCh := make(chan inputResult, 1)
	var m tea.Model = NewModel(inputCh, TUIConfig{Provider: "groq", Model: "llama", Version: "v1"})

	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(statusMsg{mode: "search", state: "ready"})
	m, _ = m.Update(userMsg{text: "what is go"})
	m, _ = m.Update(thinkingStartMsg{})
	if !m.(Model).thinking {
		t.Fatal("thinking indicator not set")
	}
	m, _ = m.Update(responseMsg{label: "Web Search Analysis", text: "Gophers"})
	m, _ = m.Update(warningMsg{text: "skipped"})

	model := m.(Model)
	if model.thinking {
		t.Error("response should clear the thinking indicator")
	}
	content := model.content.String()
	for _, want := range []string{"fr3kai v1", "You: what is go", "Web Search Analysis", "Gophers", "Warning: skipped"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q", want)
		}
	}
	bar := model.renderStatusBar()
	if !strings.Contains(bar, "mode: search") || !strings.Contains(bar, "groq/llama") {
		t.Errorf("status bar = %q", bar)
	}
}

func TestModelSubmitsInput(t *testing.T) {
	inputCh := make(chan inputResult, 1)
	var m tea.Model = NewModel(inputCh, TUIConfig{})
	m, _ = m.Update(readInputMsg{})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	res := <-inputCh
	if res.err != nil || res.text != "hi" {
		t.Fatalf("submitted %+v", res)
	}
	if m.(Model).inputMode {
		t.Error("input mode should end after submit")
	}
}

func TestModelCtrlCInterruptsInput(t *testing.T) {
	inputCh := make(chan inputResult, 1)
	var m tea.Model = NewModel(inputCh, TUIConfig{})
	m, _ = m.Update(readInputMsg{})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	if res := <-inputCh; res.err == nil {
		t.Error("expected interrupt error on the input channel")
	}
	if cmd == nil || !m.(Model).quitting {
		t.Error("ctrl+c should quit")
	}
}

func TestStopShellCancelsAndUnblocksRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inputCh := make(chan inputResult, 1)

	stopShell(cancel, inputCh)
	if ctx.Err() == nil {
		t.Error("shell context not cancelled")
	}
	select {
	case r := <-inputCh:
		if r.err != io.EOF {
			t.Errorf("read err = %v, want EOF", r.err)
		}
	default:
		t.Fatal("no EOF queued for the shell")
	}

	// A pending line already in the channel must not block the quit path.
	inputCh <- inputResult{text: "pending"}
	stopShell(cancel, inputCh)
	if r := <-inputCh; r.text != "pending" {
		t.Errorf("pending input replaced: %+v", r)
	}
}
