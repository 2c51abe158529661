package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/goleak"
)

// ignoreInitGoroutines skips the worker goroutine that go.opencensus.io (pulled
// in via google.golang.org/genai) starts from a package init; it is not owned
// by the code under test.
var ignoreInitGoroutines = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

// fakeProvider replays a fixed event sequence.
type fakeProvider struct {
	events  []Event
	chatErr error
	lastReq *ChatRequest
}

func (f *fakeProvider) Name() string        { return "fake" }
func (f *fakeProvider) Models() []string     { return []string{"fake-1"} }
func (f *fakeProvider) DefaultModel() string { return "fake-1" }

func (f *fakeProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	f.lastReq = req
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	ch := make(chan Event)
	go func() {
		defer close(ch)
		for _, ev := range f.events {
			ch <- ev
		}
	}()
	return ch, nil
}

func TestClientGenerateConcatenatesDeltas(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreInitGoroutines)

	fp := &fakeProvider{events: []Event{
		{Type: EventTextDelta, TextDelta: "Hel"},
		{Type: EventTextDelta, TextDelta: "lo"},
		{Type: EventDone, Usage: &Usage{InputTokens: 3, OutputTokens: 2}},
	}}
	c := &Client{Provider: fp, Model: "m", SystemPrompt: "sys", MaxTokens: 99}

	got, err := c.Generate(context.Background(), "prompt text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Hello" {
		t.Errorf("Generate = %q, want %q", got, "Hello")
	}
	if fp.lastReq.Model != "m" || fp.lastReq.SystemPrompt != "sys" || fp.lastReq.MaxTokens != 99 {
		t.Errorf("request not forwarded: %+v", fp.lastReq)
	}
	if len(fp.lastReq.Messages) != 1 || fp.lastReq.Messages[0].Content != "prompt text" {
		t.Errorf("messages = %+v", fp.lastReq.Messages)
	}
}

func TestClientGenerateDrainsOnError(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreInitGoroutines)

	boom := errors.New("boom")
	fp := &fakeProvider{events: []Event{
		{Type: EventTextDelta, TextDelta: "partial"},
		{Type: EventError, Error: boom},
		{Type: EventError, Error: errors.New("second")},
	}}
	c := &Client{Provider: fp}

	_, err := c.Generate(context.Background(), "p")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestClientGenerateChatError(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreInitGoroutines)

	c := &Client{Provider: &fakeProvider{chatErr: errors.New("refused")}}
	_, err := c.Generate(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("err = %v", err)
	}
}

func TestClientNoProvider(t *testing.T) {
	if _, err := (&Client{}).Generate(context.Background(), "p"); err == nil {
		t.Error("expected error without provider")
	}
}

// --- Provider metadata tests ---

func TestOpenAIProvider_NameDetection(t *testing.T) {
	tests := []struct {
		baseURL  string
		expected string
	}{
		{"", "openai"},
		{"https://api.groq.com/openai/v1", "groq"},
		{"https://api.deepseek.com", "deepseek"},
		{"https://openrouter.ai/api/v1", "openrouter"},
		{"https://api.together.xyz/v1", "together"},
		{"http://localhost:11434/v1", "ollama"},
		{"https://example.com/v1", "openai"},
	}
	for _, tt := range tests {
		p := NewOpenAIProvider("key", tt.baseURL, "")
		if p.Name() != tt.expected {
			t.Errorf("name for %q = %q, want %q", tt.baseURL, p.Name(), tt.expected)
		}
	}
}

func TestProviderDefaults(t *testing.T) {
	if m := NewOpenAIProvider("k", "", "").DefaultModel(); m != "gpt-4o-mini" {
		t.Errorf("openai default model = %q", m)
	}
	if m := NewAnthropicProvider("k", "").DefaultModel(); m != "claude-sonnet-4-20250514" {
		t.Errorf("anthropic default model = %q", m)
	}
	p := NewAnthropicProvider("k", "claude-x")
	if p.Name() != "anthropic" || len(p.Models()) != 1 || p.Models()[0] != "claude-x" {
		t.Errorf("anthropic metadata = %q %v", p.Name(), p.Models())
	}
}

func TestNewFactory(t *testing.T) {
	ctx := context.Background()

	if _, err := New(ctx, Settings{Name: "groq"}); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := New(ctx, Settings{Name: "mystery", APIKey: "k"}); err == nil {
		t.Error("expected error for unknown provider without base url")
	}

	p, err := New(ctx, Settings{Name: "groq", APIKey: "k", BaseURL: "https://api.groq.com/openai/v1", Model: "llama"})
	if err != nil {
		t.Fatalf("New groq: %v", err)
	}
	if p.Name() != "groq" || p.DefaultModel() != "llama" {
		t.Errorf("groq provider = %q/%q", p.Name(), p.DefaultModel())
	}

	p, err = New(ctx, Settings{Name: "anthropic", APIKey: "k"})
	if err != nil {
		t.Fatalf("New anthropic: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("name = %q", p.Name())
	}

	p, err = New(ctx, Settings{Name: "gemini", APIKey: "k"})
	if err != nil {
		t.Fatalf("New gemini: %v", err)
	}
	if p.Name() != "gemini" || p.DefaultModel() != "gemini-2.5-flash" {
		t.Errorf("gemini provider = %q/%q", p.Name(), p.DefaultModel())
	}
}

// --- OpenAI streaming against a local server ---

func sseChunk(content string) string {
	return fmt.Sprintf(`data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":%q},"finish_reason":null}]}`+"\n\n", content)
}

func TestOpenAIProvider_Stream(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sseChunk("Hello, "))
		io.WriteString(w, sseChunk("world"))
		io.WriteString(w, `data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := &Client{Provider: NewOpenAIProvider("test-key", srv.URL, "m"), SystemPrompt: "be brief"}
	got, err := c.Generate(context.Background(), "Test API key.")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Hello, world" {
		t.Errorf("Generate = %q", got)
	}
	if !strings.Contains(gotBody, "Test API key.") || !strings.Contains(gotBody, "be brief") {
		t.Errorf("request body missing prompt or system prompt: %s", gotBody)
	}
}

func TestOpenAIProvider_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	c := &Client{Provider: NewOpenAIProvider("bad", srv.URL, "m")}
	if _, err := c.Generate(context.Background(), "Test API key."); err == nil {
		t.Fatal("expected error for 401")
	}
}
