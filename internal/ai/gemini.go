package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/BatmanBruc/gembot/types"
)

// LLMBackend drives any langchaingo model. It is used for Gemini.
type LLMBackend struct {
	model       llms.Model
	textModel   string
	visionModel string
}

func NewLLMBackend(model llms.Model, textModel, visionModel string) *LLMBackend {
	return &LLMBackend{model: model, textModel: textModel, visionModel: visionModel}
}

func NewGeminiBackend(ctx context.Context, apiKey, textModel, visionModel string) (*LLMBackend, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(textModel),
		googleai.WithHarmThreshold(googleai.HarmBlockOnlyHigh),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewLLMBackend(llm, textModel, visionModel), nil
}

func (b *LLMBackend) Generate(ctx context.Context, history types.History, prompt Prompt, vision bool) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+1)
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == types.RoleModel {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Text))
	}

	parts := make([]llms.ContentPart, 0, 2)
	if len(prompt.Image) > 0 {
		parts = append(parts, llms.BinaryPart(prompt.ImageMIME, prompt.Image))
	}
	parts = append(parts, llms.TextPart(prompt.Text))
	messages = append(messages, llms.MessageContent{Role: llms.ChatMessageTypeHuman, Parts: parts})

	model := b.textModel
	if vision {
		model = b.visionModel
	}
	resp, err := b.model.GenerateContent(ctx, messages, llms.WithModel(model))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
