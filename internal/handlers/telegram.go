package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/gembot/internal/flow"
	"github.com/BatmanBruc/gembot/types"
)

const (
	defaultFileBaseURL = "https://api.telegram.org/file/bot"
	maxDownloadSize    = 20 << 20
)

// Telegram renders flow output through the Bot API.
type Telegram struct {
	b           *bot.Bot
	httpClient  *http.Client
	fileBaseURL string
}

func NewTelegram(b *bot.Bot) *Telegram {
	return &Telegram{
		b:           b,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
		fileBaseURL: defaultFileBaseURL,
	}
}

func parseMode(opts flow.SendOptions) models.ParseMode {
	if opts.Markdown {
		return models.ParseModeMarkdownV1
	}
	return ""
}

func replyMarkup(opts flow.SendOptions) models.ReplyMarkup {
	if opts.Keyboard == nil {
		return nil
	}
	return opts.Keyboard
}

func buildSendParams(chatID int64, text string, opts flow.SendOptions) *bot.SendMessageParams {
	return &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseMode(opts),
		ReplyMarkup: replyMarkup(opts),
	}
}

func buildEditParams(ref types.MessageRef, text string, opts flow.SendOptions) *bot.EditMessageTextParams {
	return &bot.EditMessageTextParams{
		ChatID:      ref.ChatID,
		MessageID:   ref.MessageID,
		Text:        text,
		ParseMode:   parseMode(opts),
		ReplyMarkup: replyMarkup(opts),
	}
}

func (t *Telegram) Send(ctx context.Context, chatID int64, text string, opts flow.SendOptions) (types.MessageRef, error) {
	msg, err := t.b.SendMessage(ctx, buildSendParams(chatID, text, opts))
	if err != nil {
		return types.MessageRef{}, err
	}
	return types.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID}, nil
}

func (t *Telegram) Edit(ctx context.Context, ref types.MessageRef, text string, opts flow.SendOptions) (types.MessageRef, error) {
	msg, err := t.b.EditMessageText(ctx, buildEditParams(ref, text, opts))
	if err != nil {
		return types.MessageRef{}, err
	}
	if msg == nil {
		return ref, nil
	}
	return types.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID}, nil
}

func (t *Telegram) Delete(ctx context.Context, ref types.MessageRef) error {
	_, err := t.b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
	})
	return err
}

func (t *Telegram) AnswerCallback(ctx context.Context, callbackID string) error {
	if callbackID == "" {
		return nil
	}
	_, err := t.b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
	})
	return err
}

func (t *Telegram) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileInfo, err := t.b.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return t.download(ctx, fmt.Sprintf("%s%s/%s", t.fileBaseURL, t.b.Token(), fileInfo.FilePath))
}

func (t *Telegram) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("download file: larger than %d bytes", maxDownloadSize)
	}
	return data, nil
}
