package ai

import (
	"context"
	"encoding/base64"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BatmanBruc/gembot/types"
)

type OpenAIBackend struct {
	client      *openai.Client
	textModel   string
	visionModel string
}

func NewOpenAIBackend(apiKey, textModel, visionModel string) *OpenAIBackend {
	return &OpenAIBackend{
		client:      openai.NewClient(apiKey),
		textModel:   textModel,
		visionModel: visionModel,
	}
}

func (b *OpenAIBackend) Generate(ctx context.Context, history types.History, prompt Prompt, vision bool) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == types.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}

	if len(prompt.Image) > 0 {
		dataURL := "data:" + prompt.ImageMIME + ";base64," + base64.StdEncoding.EncodeToString(prompt.Image)
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt.Text},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
			},
		})
	} else {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt.Text})
	}

	model := b.textModel
	if vision {
		model = b.visionModel
	}
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
