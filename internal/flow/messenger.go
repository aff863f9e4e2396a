package flow

import (
	"context"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/gembot/internal/messages"
	"github.com/BatmanBruc/gembot/types"
)

// maxMessageLen is the Bot API text limit, counted in UTF-16 code units.
const maxMessageLen = 4096

type SendOptions struct {
	Markdown bool
	Keyboard *models.InlineKeyboardMarkup
}

// Messenger is the chat surface the controller renders to.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, opts SendOptions) (types.MessageRef, error)
	Edit(ctx context.Context, ref types.MessageRef, text string, opts SendOptions) (types.MessageRef, error)
	Delete(ctx context.Context, ref types.MessageRef) error
	AnswerCallback(ctx context.Context, callbackID string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

func (c *Controller) sendPlain(ctx context.Context, chatID int64, text string) {
	if _, err := c.messenger.Send(ctx, chatID, text, SendOptions{}); err != nil {
		c.log.Warnw("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// sendRich sends text in chunks that fit one message, keyboard on the last.
func (c *Controller) sendRich(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) (types.MessageRef, error) {
	chunks := splitMessage(text, maxMessageLen)
	var ref types.MessageRef
	for i, chunk := range chunks {
		var kb *models.InlineKeyboardMarkup
		if i == len(chunks)-1 {
			kb = keyboard
		}
		r, err := c.sendMarkdown(ctx, chatID, chunk, kb)
		if err != nil {
			return types.MessageRef{}, err
		}
		ref = r
	}
	return ref, nil
}

// sendMarkdown sends markdown and falls back to the stripped plain text when
// the transport rejects the markup.
func (c *Controller) sendMarkdown(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) (types.MessageRef, error) {
	ref, err := c.messenger.Send(ctx, chatID, text, SendOptions{Markdown: true, Keyboard: keyboard})
	if err == nil {
		return ref, nil
	}
	c.log.Warnw("Markdown send failed, resending as plain text", "chat_id", chatID, "error", err)
	c.metrics.PlainTextFallback()
	return c.messenger.Send(ctx, chatID, messages.StripMarkdown(text), SendOptions{Keyboard: keyboard})
}

// show replaces the message the callback came from, or sends a new one when
// there is nothing to edit or the edit fails.
func (c *Controller) show(ctx context.Context, event *types.Event, text string, opts SendOptions) (types.MessageRef, error) {
	if event.Kind == types.EventCallback && event.MessageID != 0 {
		ref, err := c.messenger.Edit(ctx, types.MessageRef{ChatID: event.ChatID, MessageID: event.MessageID}, text, opts)
		if err == nil {
			return ref, nil
		}
		c.log.Debugw("Edit failed, sending new message", "chat_id", event.ChatID, "error", err)
	}
	if opts.Markdown {
		return c.sendRich(ctx, event.ChatID, text, opts.Keyboard)
	}
	return c.messenger.Send(ctx, event.ChatID, text, opts)
}

func (c *Controller) deleteMessage(ctx context.Context, ref *types.MessageRef) {
	if ref == nil {
		return
	}
	if err := c.messenger.Delete(ctx, *ref); err != nil {
		c.log.Debugw("Failed to delete message", "chat_id", ref.ChatID, "message_id", ref.MessageID, "error", err)
	}
}

// splitMessage cuts text into pieces of at most limit UTF-16 units,
// preferring line breaks, then spaces, over cutting inside a word.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for utf16Len(text) > limit {
		cut := cutIndex(text, limit)
		if chunk := strings.TrimRight(text[:cut], " \n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimLeft(text[cut:], "\n")
	}
	return append(chunks, text)
}

func cutIndex(text string, limit int) int {
	units, end, newline, space := 0, 0, 0, 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		if units+n > limit {
			break
		}
		units += n
		i += size
		end = i
		switch r {
		case '\n':
			newline = i
		case ' ':
			space = i
		}
	}
	switch {
	case end == 0:
		_, size := utf8.DecodeRuneInString(text)
		return size
	case newline > end/2:
		return newline
	case space > end/2:
		return space
	}
	return end
}

func utf16Len(text string) int {
	n := 0
	for _, r := range text {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
