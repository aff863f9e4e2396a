// Package flow is the conversation state machine. It receives events from
// the transport, checks the owner guard, runs the transition for the
// user's current state and renders the next screen through a Messenger.
package flow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BatmanBruc/gembot/internal/ai"
	"github.com/BatmanBruc/gembot/internal/messages"
	"github.com/BatmanBruc/gembot/internal/metrics"
	"github.com/BatmanBruc/gembot/types"
)

type Trigger string

const (
	TriggerStart              Trigger = "start"
	TriggerStartAgain         Trigger = "start_again"
	TriggerStartAgainSave     Trigger = "start_again_save"
	TriggerNewConversation    Trigger = "new_conversation"
	TriggerImageDescription   Trigger = "image_description"
	TriggerPage               Trigger = "page"
	TriggerEndConversation    Trigger = "end_conversation"
	TriggerDone               Trigger = "done"
	TriggerDeleteConversation Trigger = "delete_conversation"
	TriggerPhoto              Trigger = "photo"
	TriggerText               Trigger = "text"
	TriggerConversationID     Trigger = "conversation_id"
	TriggerUnknown            Trigger = "unknown"
)

type Deps struct {
	Conversations types.ConversationStore
	History       types.HistoryStore
	Sessions      types.SessionStore
	AI            *ai.Provider
	Messenger     Messenger
	OwnerID       int64
	Log           *zap.SugaredLogger
	Metrics       *metrics.Metrics
	// NewID generates ids for newly saved conversations.
	NewID func() string
}

type Controller struct {
	conversations types.ConversationStore
	history       types.HistoryStore
	sessions      types.SessionStore
	ai            *ai.Provider
	messenger     Messenger
	ownerID       int64
	log           *zap.SugaredLogger
	metrics       *metrics.Metrics
	newID         func() string

	mu    sync.Mutex
	chats map[int64]*ai.Session
}

func NewController(d Deps) *Controller {
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	if d.NewID == nil {
		d.NewID = NewConversationID
	}
	return &Controller{
		conversations: d.Conversations,
		history:       d.History,
		sessions:      d.Sessions,
		ai:            d.AI,
		messenger:     d.Messenger,
		ownerID:       d.OwnerID,
		log:           d.Log,
		metrics:       d.Metrics,
		newID:         d.NewID,
		chats:         make(map[int64]*ai.Session),
	}
}

// NewConversationID returns "conv" followed by six hex digits.
func NewConversationID() string {
	return "conv" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// Classify maps an event to the trigger it represents.
func Classify(event *types.Event) Trigger {
	switch event.Kind {
	case types.EventCommand:
		name := commandName(event.Text)
		if name == "start" {
			return TriggerStart
		}
		if name != "" {
			return TriggerConversationID
		}
	case types.EventCallback:
		data := event.CallbackData
		switch {
		case data == types.CallbackStartAgain:
			return TriggerStartAgain
		case data == types.CallbackStartAgainSave:
			return TriggerStartAgainSave
		case data == types.CallbackNewConversation:
			return TriggerNewConversation
		case data == types.CallbackImageDescription:
			return TriggerImageDescription
		case data == types.CallbackEndConversation:
			return TriggerEndConversation
		case data == types.CallbackDone:
			return TriggerDone
		case data == types.CallbackDeleteConversation:
			return TriggerDeleteConversation
		case strings.HasPrefix(data, types.CallbackPagePrefix):
			return TriggerPage
		}
	case types.EventPhoto:
		if event.Photo != nil {
			return TriggerPhoto
		}
	case types.EventText:
		return TriggerText
	}
	return TriggerUnknown
}

// commandName strips the slash, any @botname suffix and arguments.
func commandName(text string) string {
	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return name
}

// Dispatch runs one event through the state machine. Failures are reported
// to the user and logged; the returned error is informational.
func (c *Controller) Dispatch(ctx context.Context, event *types.Event) error {
	if event == nil {
		return nil
	}
	log := c.log.With("user_id", event.UserID, "chat_id", event.ChatID)

	if event.Kind == types.EventCallback {
		if err := c.messenger.AnswerCallback(ctx, event.CallbackID); err != nil {
			log.Warnw("Failed to answer callback", "error", err)
		}
	}

	if event.UserID != c.ownerID {
		c.metrics.Denied()
		log.Infow("Unauthorized access denied")
		if _, err := c.messenger.Send(ctx, event.ChatID, messages.Unauthorized, SendOptions{}); err != nil {
			log.Warnw("Failed to send denial", "error", err)
		}
		return types.ErrUnauthorized
	}

	trigger := Classify(event)

	sess, err := c.sessions.GetSession(ctx, event.UserID)
	if err != nil && !errors.Is(err, types.ErrSessionNotFound) {
		log.Errorw("Failed to load session", "error", err)
		c.sendPlain(ctx, event.ChatID, messages.StorageFailure)
		return err
	}

	if sess == nil {
		switch trigger {
		case TriggerStart, TriggerStartAgain, TriggerStartAgainSave:
			sess = &types.Session{UserID: event.UserID, ChatID: event.ChatID, State: types.StateChoosing}
		default:
			log.Debugw("Ignored event without session", "trigger", trigger)
			return nil
		}
	}
	if !sess.State.Valid() {
		sess.State = types.StateChoosing
	}
	sess.ChatID = event.ChatID

	from := sess.State
	c.metrics.Event(string(from), string(trigger))
	log.Debugw("Handling event", "state", from, "trigger", trigger)

	handled, err := c.transition(ctx, event, trigger, sess)
	if err != nil {
		log.Errorw("Transition failed", "state", from, "trigger", trigger, "error", err)
	}
	if !handled {
		log.Debugw("Ignored event", "state", from, "trigger", trigger)
		return err
	}

	if saveErr := c.sessions.SaveSession(ctx, sess); saveErr != nil {
		log.Errorw("Failed to save session", "error", saveErr)
		if err == nil {
			err = saveErr
		}
	}
	if sess.State != from {
		log.Infow("State changed", "from", from, "to", sess.State)
	}
	return err
}

// transition reports whether the trigger applies to the session's state.
func (c *Controller) transition(ctx context.Context, event *types.Event, trigger Trigger, sess *types.Session) (bool, error) {
	switch trigger {
	case TriggerStart:
		return true, c.start(ctx, event, sess)
	case TriggerStartAgain:
		return true, c.startAgain(ctx, event, sess, false)
	case TriggerStartAgainSave:
		return true, c.startAgain(ctx, event, sess, true)
	case TriggerDone:
		return true, c.done(ctx, event, sess)
	}

	switch sess.State {
	case types.StateChoosing:
		switch trigger {
		case TriggerNewConversation:
			return true, c.newConversation(ctx, event, sess)
		case TriggerImageDescription:
			return true, c.imageDescription(ctx, event, sess)
		case TriggerPage:
			return true, c.page(ctx, event, sess)
		case TriggerEndConversation:
			return true, c.done(ctx, event, sess)
		}
	case types.StateImageChoice:
		if trigger == TriggerPhoto {
			return true, c.describeImage(ctx, event, sess)
		}
	case types.StateConversation:
		if trigger == TriggerText {
			return true, c.reply(ctx, event, sess)
		}
	case types.StateConversationHistory:
		switch trigger {
		case TriggerPage:
			return true, c.page(ctx, event, sess)
		case TriggerConversationID:
			return true, c.openConversation(ctx, event, sess)
		case TriggerNewConversation:
			return true, c.newConversation(ctx, event, sess)
		case TriggerDeleteConversation:
			return true, c.deleteConversation(ctx, event, sess)
		}
	}
	return false, nil
}

// Shutdown closes every live chat session without saving.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for userID, chat := range c.chats {
		chat.Close()
		c.metrics.SessionClosed()
		delete(c.chats, userID)
	}
}

func (c *Controller) chat(userID int64) *ai.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chats[userID]
}

func (c *Controller) setChat(userID int64, chat *ai.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats[userID] = chat
	c.metrics.SessionOpened()
}

// takeChat removes and returns the user's live session, if any.
func (c *Controller) takeChat(userID int64) *ai.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	chat, ok := c.chats[userID]
	if !ok {
		return nil
	}
	delete(c.chats, userID)
	c.metrics.SessionClosed()
	return chat
}

func (c *Controller) discardChat(userID int64) {
	if chat := c.takeChat(userID); chat != nil {
		chat.Close()
	}
}
