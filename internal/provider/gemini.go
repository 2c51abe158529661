package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider using the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider builds a Gemini client. The API key is not checked until the first call.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string        { return "gemini" }
func (p *GeminiProvider) Models() []string     { return []string{p.model} }
func (p *GeminiProvider) DefaultModel() string { return p.model }

func (p *GeminiProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	ch := make(chan Event, 16)
	go func() {
		defer close(ch)

		usage := &Usage{}
		for resp, err := range p.client.Models.GenerateContentStream(ctx, model, contents, cfg) {
			if err != nil {
				ch <- Event{Type: EventError, Error: fmt.Errorf("gemini streaming error: %w", err)}
				return
			}
			if resp.UsageMetadata != nil {
				usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
				usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			}
			if text := resp.Text(); text != "" {
				ch <- Event{Type: EventTextDelta, TextDelta: text}
			}
		}
		ch <- Event{Type: EventDone, Usage: usage}
	}()
	return ch, nil
}
