package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAIProvider implements Provider for all OpenAI-compatible APIs,
// including Groq, OpenAI, DeepSeek, OpenRouter, Together and Ollama.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	name    string
	baseURL string
}

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		model:   model,
		name:    nameFromBaseURL(baseURL),
		baseURL: baseURL,
	}
}

func nameFromBaseURL(baseURL string) string {
	switch {
	case baseURL == "":
		return "openai"
	case strings.Contains(baseURL, "groq"):
		return "groq"
	case strings.Contains(baseURL, "deepseek"):
		return "deepseek"
	case strings.Contains(baseURL, "openrouter"):
		return "openrouter"
	case strings.Contains(baseURL, "together"):
		return "together"
	case strings.Contains(baseURL, "localhost:11434"):
		return "ollama"
	}
	return "openai"
}

func (p *OpenAIProvider) Name() string        { return p.name }
func (p *OpenAIProvider) Models() []string     { return []string{p.model} }
func (p *OpenAIProvider) DefaultModel() string { return p.model }

func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: p.buildMessages(req),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	ch := make(chan Event, 16)
	go p.processStream(ctx, stream, ch)
	return ch, nil
}

// processStream reads the OpenAI SSE stream and emits unified events.
func (p *OpenAIProvider) processStream(ctx context.Context, stream *ssestream.Stream[openai.ChatCompletionChunk], ch chan<- Event) {
	defer close(ch)
	defer stream.Close()

	usage := &Usage{}
	for stream.Next() {
		select {
		case <-ctx.Done():
			ch <- Event{Type: EventError, Error: ctx.Err()}
			return
		default:
		}

		chunk := stream.Current()
		if chunk.Usage.PromptTokens > 0 || chunk.Usage.CompletionTokens > 0 {
			usage.InputTokens = int(chunk.Usage.PromptTokens)
			usage.OutputTokens = int(chunk.Usage.CompletionTokens)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			ch <- Event{Type: EventTextDelta, TextDelta: delta}
		}
	}

	if err := stream.Err(); err != nil {
		ch <- Event{Type: EventError, Error: fmt.Errorf("%s streaming error: %w", p.name, err)}
		return
	}
	ch <- Event{Type: EventDone, Usage: usage}
}

// buildMessages converts unified Message types to OpenAI API params.
func (p *OpenAIProvider) buildMessages(req *ChatRequest) []openai.ChatCompletionMessageParamUnion {
	var params []openai.ChatCompletionMessageParamUnion

	if req.SystemPrompt != "" {
		params = append(params, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleUser:
			params = append(params, openai.UserMessage(msg.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		}
	}
	return params
}
