package middleware

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BatmanBruc/gembot/internal/contextkeys"
	"github.com/BatmanBruc/gembot/types"
)

type Middlewares struct {
	log *zap.SugaredLogger
}

func NewMessageAnalyzer(log *zap.SugaredLogger) *Middlewares {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Middlewares{log: log}
}

// RequestIDMiddleware tags every update with an id used in log lines.
func (m *Middlewares) RequestIDMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		next(contextkeys.WithRequestID(ctx, uuid.NewString()), b, update)
	}
}

// AnalyzeMessageMiddleware reduces the update to a types.Event stored in the
// context. Updates without a sender or chat are dropped.
func (m *Middlewares) AnalyzeMessageMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		event := Analyze(update)
		if event == nil {
			reqID, _ := contextkeys.GetRequestID(ctx)
			m.log.Debugw("Dropped update", "update_id", update.ID, "request_id", reqID)
			return
		}
		next(contextkeys.WithEvent(ctx, event), b, update)
	}
}

// Analyze converts an update into an Event or returns nil when the update
// carries nothing the bot handles.
func Analyze(update *models.Update) *types.Event {
	if update == nil {
		return nil
	}

	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		chatID, messageID := getChatFromMaybeInaccessibleMessage(q.Message)
		if q.From.ID == 0 || chatID == 0 {
			return nil
		}
		return &types.Event{
			Kind:         types.EventCallback,
			UserID:       q.From.ID,
			ChatID:       chatID,
			MessageID:    messageID,
			CallbackID:   q.ID,
			CallbackData: q.Data,
		}
	case update.Message != nil && update.Message.From != nil:
		return analyzeMessage(update.Message)
	default:
		return nil
	}
}

func analyzeMessage(msg *models.Message) *types.Event {
	if msg.From.ID == 0 || msg.Chat.ID == 0 {
		return nil
	}

	event := &types.Event{
		Kind:      determineKind(msg),
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      msg.Text,
	}
	if event.Kind == types.EventPhoto {
		event.Text = msg.Caption
		event.Photo = bestPhoto(msg.Photo)
	}
	return event
}

func determineKind(msg *models.Message) types.EventKind {
	if len(msg.Photo) > 0 {
		return types.EventPhoto
	}
	if strings.HasPrefix(msg.Text, "/") {
		return types.EventCommand
	}
	if msg.Text != "" {
		return types.EventText
	}
	return types.EventUnknown
}

func bestPhoto(sizes []models.PhotoSize) *types.PhotoRef {
	best := sizes[0]
	for i := 1; i < len(sizes); i++ {
		if sizes[i].FileSize > best.FileSize || (sizes[i].FileSize == best.FileSize && sizes[i].Width*sizes[i].Height > best.Width*best.Height) {
			best = sizes[i]
		}
	}
	return &types.PhotoRef{
		FileID:   best.FileID,
		FileSize: best.FileSize,
		Width:    best.Width,
		Height:   best.Height,
	}
}

func getChatFromMaybeInaccessibleMessage(m models.MaybeInaccessibleMessage) (int64, int) {
	if m.Message != nil {
		return m.Message.Chat.ID, m.Message.ID
	}
	if m.InaccessibleMessage != nil {
		return m.InaccessibleMessage.Chat.ID, m.InaccessibleMessage.MessageID
	}
	return 0, 0
}
