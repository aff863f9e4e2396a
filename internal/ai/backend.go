package ai

import (
	"context"
	"fmt"
)

// NewBackend builds the backend for a provider name.
func NewBackend(ctx context.Context, provider, apiKey, textModel, visionModel string) (Backend, error) {
	switch provider {
	case "gemini":
		return NewGeminiBackend(ctx, apiKey, textModel, visionModel)
	case "openai":
		return NewOpenAIBackend(apiKey, textModel, visionModel), nil
	case "anthropic":
		return NewAnthropicBackend(apiKey, textModel, visionModel), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", provider)
	}
}
