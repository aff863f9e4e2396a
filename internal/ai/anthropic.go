package ai

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/BatmanBruc/gembot/types"
)

const anthropicMaxTokens = 2048

type AnthropicBackend struct {
	client      anthropic.Client
	textModel   string
	visionModel string
}

func NewAnthropicBackend(apiKey, textModel, visionModel string) *AnthropicBackend {
	return &AnthropicBackend{
		client: anthropic.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(3),
		),
		textModel:   textModel,
		visionModel: visionModel,
	}
}

func (b *AnthropicBackend) Generate(ctx context.Context, history types.History, prompt Prompt, vision bool) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, turn := range history {
		if turn.Role == types.RoleModel {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Text)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Text)))
		}
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, 2)
	if len(prompt.Image) > 0 {
		blocks = append(blocks, anthropic.NewImageBlockBase64(prompt.ImageMIME, base64.StdEncoding.EncodeToString(prompt.Image)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt.Text))
	messages = append(messages, anthropic.NewUserMessage(blocks...))

	model := b.textModel
	if vision {
		model = b.visionModel
	}
	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages:  messages,
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}
