package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/gembot/internal/ai"
	"github.com/BatmanBruc/gembot/internal/messages"
	"github.com/BatmanBruc/gembot/internal/paginator"
	"github.com/BatmanBruc/gembot/internal/utils"
	"github.com/BatmanBruc/gembot/types"
)

func (c *Controller) start(ctx context.Context, event *types.Event, sess *types.Session) error {
	c.discardChat(event.UserID)
	sess.Reset()

	_, err := c.messenger.Send(ctx, event.ChatID, messages.Greeting, SendOptions{Keyboard: utils.MainMenu()})
	return err
}

func (c *Controller) startAgain(ctx context.Context, event *types.Event, sess *types.Session, save bool) error {
	c.deleteMessage(ctx, sess.PendingMessage)
	sess.PendingMessage = nil

	var saveErr error
	chat := c.takeChat(event.UserID)
	switch {
	case chat != nil && save:
		id, err := c.saveConversation(ctx, event.UserID, sess.ActiveConversationID, chat)
		if err != nil {
			saveErr = fmt.Errorf("save conversation: %w", err)
		} else {
			c.log.Infow("Conversation saved and closed", "user_id", event.UserID, "conversation_id", id)
		}
		chat.Close()
	case chat != nil:
		c.log.Infow("Conversation closed without saving", "user_id", event.UserID, "conversation_id", sess.ActiveConversationID)
		chat.Close()
	case sess.ActiveConversationID != "":
		c.log.Infow("Conversation closed", "user_id", event.UserID, "conversation_id", sess.ActiveConversationID)
	default:
		c.log.Debugw("No active chat to close", "user_id", event.UserID)
	}
	sess.Reset()

	text := messages.Greeting
	if saveErr != nil {
		text = messages.StorageFailure + "\n\n" + messages.Greeting
	}
	ref, err := c.messenger.Send(ctx, event.ChatID, text, SendOptions{Keyboard: utils.RestartMenu()})
	if err != nil {
		return errors.Join(saveErr, err)
	}
	sess.PendingMessage = &ref
	return saveErr
}

// maxIDAttempts bounds how often a clashing generated id is replaced.
const maxIDAttempts = 5

// saveConversation stores the history blob and the conversation row. A
// generated id is reserved by inserting its row first so a clash never
// overwrites another conversation's history. A title the provider cannot
// produce falls back to a generic one.
func (c *Controller) saveConversation(ctx context.Context, userID int64, conversationID string, chat *ai.Session) (string, error) {
	start := time.Now()
	title, err := chat.Title(ctx)
	c.metrics.AIRequest("title", start, err)
	if err != nil || strings.TrimSpace(title) == "" {
		c.log.Warnw("Failed to generate title", "conversation_id", conversationID, "error", err)
		title = ""
	}

	if conversationID != "" {
		if err := c.history.Save(ctx, conversationID, chat.History()); err != nil {
			return conversationID, err
		}
		inserted, err := c.conversations.Create(ctx, c.conversation(userID, conversationID, title))
		if err != nil {
			return conversationID, err
		}
		if inserted {
			c.metrics.ConversationSaved()
		}
		return conversationID, nil
	}

	conversationID, err = c.reserveID(ctx, userID, title)
	if err != nil {
		return "", err
	}
	if err := c.history.Save(ctx, conversationID, chat.History()); err != nil {
		if delErr := c.conversations.DeleteByUserAndID(ctx, userID, conversationID); delErr != nil {
			c.log.Warnw("Failed to roll back conversation row", "conversation_id", conversationID, "error", delErr)
		}
		return conversationID, err
	}
	c.metrics.ConversationSaved()
	return conversationID, nil
}

// reserveID inserts a row under a fresh id, drawing a new one while the
// generated id is already taken.
func (c *Controller) reserveID(ctx context.Context, userID int64, title string) (string, error) {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id := c.newID()
		inserted, err := c.conversations.Create(ctx, c.conversation(userID, id, title))
		if err != nil {
			return "", err
		}
		if inserted {
			return id, nil
		}
		c.log.Warnw("Generated conversation id already taken", "conversation_id", id, "attempt", attempt)
	}
	return "", fmt.Errorf("no free conversation id after %d attempts", maxIDAttempts)
}

func (c *Controller) conversation(userID int64, id, title string) types.Conversation {
	if title == "" {
		title = messages.DefaultTitle(id)
	}
	return types.Conversation{ConversationID: id, UserID: userID, Title: title}
}

func (c *Controller) done(ctx context.Context, event *types.Event, sess *types.Session) error {
	c.discardChat(event.UserID)
	c.deleteMessage(ctx, sess.PendingMessage)
	sess.Reset()

	_, err := c.messenger.Send(ctx, event.ChatID, messages.Farewell, SendOptions{Keyboard: utils.FarewellMenu()})
	return err
}

func (c *Controller) newConversation(ctx context.Context, event *types.Event, sess *types.Session) error {
	text := messages.StartConversation
	if sess.ActiveConversationID != "" {
		text = messages.ContinueChat
	}

	sess.State = types.StateConversation
	ref, err := c.show(ctx, event, text, SendOptions{Keyboard: utils.ReturnToMenu()})
	if err != nil {
		return err
	}
	sess.PendingMessage = &ref
	return nil
}

func (c *Controller) imageDescription(ctx context.Context, event *types.Event, sess *types.Session) error {
	sess.State = types.StateImageChoice
	ref, err := c.show(ctx, event, messages.ImageDescription, SendOptions{Keyboard: utils.BackToMenu()})
	if err != nil {
		return err
	}
	sess.PendingMessage = &ref
	return nil
}

func (c *Controller) page(ctx context.Context, event *types.Event, sess *types.Session) error {
	page := paginator.ParsePage(event.CallbackData, paginator.DefaultPattern)

	count, err := c.conversations.CountByUser(ctx, event.UserID)
	if err != nil {
		c.sendPlain(ctx, event.ChatID, messages.StorageFailure)
		return fmt.Errorf("count conversations: %w", err)
	}
	totalPages := paginator.TotalPages(count, types.PageSize)
	offset := paginator.Offset(page, types.PageSize)

	var (
		content string
		nav     []models.InlineKeyboardButton
	)
	if page > totalPages {
		content = messages.EmptyHistory
	} else {
		nav = paginator.Keyboard(totalPages, page, paginator.DefaultPattern)
		convs, err := c.conversations.ListByUser(ctx, event.UserID, offset, types.PageSize)
		if err != nil {
			c.sendPlain(ctx, event.ChatID, messages.StorageFailure)
			return fmt.Errorf("list conversations: %w", err)
		}
		if len(convs) == 0 {
			content = messages.EmptyHistory
		} else {
			items := make([]messages.PageItem, 0, len(convs))
			for _, conv := range convs {
				items = append(items, messages.PageItem{ConversationID: conv.ConversationID, Title: conv.Title})
			}
			content = messages.PageContent(items, offset)
		}
	}

	sess.State = types.StateConversationHistory
	keyboard := utils.HistoryPage(nav)
	ref, err := c.show(ctx, event, content, SendOptions{Markdown: true, Keyboard: keyboard})
	if err != nil {
		return err
	}
	sess.PendingMessage = &ref
	return nil
}

func (c *Controller) openConversation(ctx context.Context, event *types.Event, sess *types.Session) error {
	id := commandName(event.Text)
	if !types.ValidConversationID(id) {
		_, err := c.messenger.Send(ctx, event.ChatID, messages.NotFound, SendOptions{Keyboard: utils.BackToMenu()})
		return err
	}

	conv, err := c.conversations.GetByUserAndID(ctx, event.UserID, id)
	if errors.Is(err, types.ErrConversationNotFound) {
		_, err := c.messenger.Send(ctx, event.ChatID, messages.NotFound, SendOptions{Keyboard: utils.BackToMenu()})
		return err
	}
	if err != nil {
		c.sendPlain(ctx, event.ChatID, messages.StorageFailure)
		return fmt.Errorf("get conversation: %w", err)
	}

	// A live chat belongs to whatever was active before.
	c.discardChat(event.UserID)
	sess.ActiveConversationID = conv.ConversationID

	ref, err := c.sendRich(ctx, event.ChatID, messages.ConversationFound(conv.ConversationID, conv.Title), utils.ConversationActions())
	if err != nil {
		return err
	}
	sess.PendingMessage = &ref
	return nil
}

func (c *Controller) deleteConversation(ctx context.Context, event *types.Event, sess *types.Session) error {
	id := sess.ActiveConversationID
	if id != "" {
		if err := c.conversations.DeleteByUserAndID(ctx, event.UserID, id); err != nil {
			c.sendPlain(ctx, event.ChatID, messages.StorageFailure)
			return fmt.Errorf("delete conversation: %w", err)
		}
		if err := c.history.Delete(ctx, id); err != nil {
			c.log.Warnw("Failed to delete history", "conversation_id", id, "error", err)
		}
		c.metrics.ConversationDeleted()
		c.log.Infow("Conversation deleted", "user_id", event.UserID, "conversation_id", id)
	}

	c.discardChat(event.UserID)
	sess.ActiveConversationID = ""
	sess.State = types.StateChoosing

	ref, err := c.show(ctx, event, messages.ConversationDeleted, SendOptions{Keyboard: utils.BackToMenu()})
	if err != nil {
		return err
	}
	sess.PendingMessage = &ref
	return nil
}

func (c *Controller) describeImage(ctx context.Context, event *types.Event, sess *types.Session) error {
	wait, err := c.messenger.Send(ctx, event.ChatID, messages.WaitForResponse, SendOptions{Keyboard: utils.BackToMenu()})
	if err != nil {
		c.log.Warnw("Failed to send wait message", "error", err)
	}

	reply, genErr := c.imageReply(ctx, event)
	if genErr != nil {
		c.log.Warnw("Image description failed", "user_id", event.UserID, "error", genErr)
		reply = messages.ProviderFallback
	}

	sess.State = types.StateChoosing
	_, err = c.sendRich(ctx, event.ChatID, reply, utils.BackToMenu())
	if wait.MessageID != 0 {
		c.deleteMessage(ctx, &wait)
	}
	return err
}

func (c *Controller) imageReply(ctx context.Context, event *types.Event) (string, error) {
	data, err := c.messenger.DownloadFile(ctx, event.Photo.FileID)
	if err != nil {
		return "", fmt.Errorf("download photo: %w", err)
	}

	chat := c.ai.Open(nil)
	defer chat.Close()

	start := time.Now()
	reply, err := chat.SendImage(ctx, data, event.Text)
	c.metrics.AIRequest("image", start, err)
	return reply, err
}

func (c *Controller) reply(ctx context.Context, event *types.Event, sess *types.Session) error {
	wait, err := c.messenger.Send(ctx, event.ChatID, messages.WaitForResponse, SendOptions{Keyboard: utils.BackToMenu()})
	if err != nil {
		c.log.Warnw("Failed to send wait message", "error", err)
	}

	chat := c.chat(event.UserID)
	if chat == nil {
		chat = c.ai.Open(c.loadHistory(ctx, sess.ActiveConversationID))
		c.setChat(event.UserID, chat)
		c.log.Infow("Created chat session", "user_id", event.UserID, "conversation_id", sess.ActiveConversationID)
	}

	start := time.Now()
	reply, genErr := chat.SendText(ctx, event.Text)
	c.metrics.AIRequest("text", start, genErr)
	if genErr != nil {
		c.log.Warnw("Provider request failed", "user_id", event.UserID, "error", genErr)
		reply = messages.ProviderFallback
	}

	_, err = c.sendRich(ctx, event.ChatID, reply, utils.SaveOrDiscard())
	if wait.MessageID != 0 {
		c.deleteMessage(ctx, &wait)
	}
	return err
}

// loadHistory returns the saved turns for id. Load failures start the chat
// empty.
func (c *Controller) loadHistory(ctx context.Context, id string) types.History {
	if id == "" {
		return nil
	}
	history, err := c.history.Load(ctx, id)
	if err != nil {
		c.log.Warnw("Failed to load history, starting empty", "conversation_id", id, "error", err)
		return nil
	}
	return history
}
