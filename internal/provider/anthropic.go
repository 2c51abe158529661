package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// AnthropicProvider implements Provider using the Anthropic native API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *AnthropicProvider) Name() string        { return "anthropic" }
func (p *AnthropicProvider) Models() []string     { return []string{p.model} }
func (p *AnthropicProvider) DefaultModel() string { return p.model }

func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  p.buildMessages(req.Messages),
		MaxTokens: maxTokens,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	ch := make(chan Event, 16)
	go p.processStream(ctx, stream, ch)
	return ch, nil
}

// processStream reads the Anthropic SSE stream and emits unified events.
//
// Event sequence:
//   - MessageStartEvent -> input token usage
//   - ContentBlockDeltaEvent (TextDelta) -> emit EventTextDelta
//   - MessageDeltaEvent -> output token usage
//   - MessageStopEvent -> emit EventDone
func (p *AnthropicProvider) processStream(ctx context.Context, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], ch chan<- Event) {
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

		event := stream.Current()

		switch variant := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			usage.InputTokens = int(variant.Message.Usage.InputTokens)

		case anthropic.ContentBlockDeltaEvent:
			if d, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok {
				ch <- Event{Type: EventTextDelta, TextDelta: d.Text}
			}

		case anthropic.MessageDeltaEvent:
			usage.OutputTokens = int(variant.Usage.OutputTokens)

		case anthropic.MessageStopEvent:
			ch <- Event{Type: EventDone, Usage: usage}
			return
		}
	}

	if err := stream.Err(); err != nil {
		ch <- Event{Type: EventError, Error: fmt.Errorf("anthropic streaming error: %w", err)}
		return
	}

	ch <- Event{Type: EventDone, Usage: usage}
}

// buildMessages converts unified Message types to Anthropic API params.
func (p *AnthropicProvider) buildMessages(msgs []Message) []anthropic.MessageParam {
	var params []anthropic.MessageParam
	for _, msg := range msgs {
		block := anthropic.NewTextBlock(msg.Content)
		switch msg.Role {
		case RoleUser:
			params = append(params, anthropic.NewUserMessage(block))
		case RoleAssistant:
			params = append(params, anthropic.NewAssistantMessage(block))
		}
	}
	return params
}
