package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client turns a streaming Provider into a single prompt -> completion call.
type Client struct {
	Provider     Provider
	Model        string
	SystemPrompt string
	MaxTokens    int
	Logger       *zap.Logger
}

// Generate sends prompt as a single user message and returns the full completion text.
// The stream is always drained, even on error.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.Provider == nil {
		return "", errors.New("no provider configured")
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	events, err := c.Provider.Chat(ctx, &ChatRequest{
		Model:        c.Model,
		Messages:     []Message{{Role: RoleUser, Content: prompt}},
		SystemPrompt: c.SystemPrompt,
		MaxTokens:    c.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Provider.Name(), err)
	}

	var (
		sb        strings.Builder
		usage     *Usage
		streamErr error
	)
	for ev := range events {
		switch ev.Type {
		case EventTextDelta:
			sb.WriteString(ev.TextDelta)
		case EventDone:
			usage = ev.Usage
		case EventError:
			if streamErr == nil {
				streamErr = ev.Error
			}
		}
	}
	if streamErr != nil {
		logger.Debug("generation failed",
			zap.String("provider", c.Provider.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(streamErr))
		return "", streamErr
	}

	fields := []zap.Field{
		zap.String("provider", c.Provider.Name()),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("completion_chars", sb.Len()),
		zap.Duration("elapsed", time.Since(start)),
	}
	if usage != nil {
		fields = append(fields, zap.Int("input_tokens", usage.InputTokens), zap.Int("output_tokens", usage.OutputTokens))
	}
	logger.Debug("generation complete", fields...)
	return sb.String(), nil
}
