package provider

import (
	"context"
	"fmt"
)

// Settings selects and configures one provider.
type Settings struct {
	Name    string // "groq", "openai", "anthropic", "gemini", ...
	APIKey  string
	BaseURL string // OpenAI-compatible providers only
	Model   string
}

// New builds the Provider named by s.Name. Anthropic and Gemini use their
// native SDKs; every other name is treated as OpenAI-compatible and needs a base URL.
func New(ctx context.Context, s Settings) (Provider, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("API key not configured for provider %q", s.Name)
	}
	switch s.Name {
	case "anthropic":
		return NewAnthropicProvider(s.APIKey, s.Model), nil
	case "gemini":
		return NewGeminiProvider(ctx, s.APIKey, s.Model)
	case "openai":
		return NewOpenAIProvider(s.APIKey, s.BaseURL, s.Model), nil
	default:
		if s.BaseURL == "" {
			return nil, fmt.Errorf("unknown provider %q; set providers.%s.base_url in config", s.Name, s.Name)
		}
		p := NewOpenAIProvider(s.APIKey, s.BaseURL, s.Model)
		p.name = s.Name
		return p, nil
	}
}
