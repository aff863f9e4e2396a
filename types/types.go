package types

import (
	"context"
	"time"
)

// MessageRef points at a message the bot sent earlier and may want to
// delete or edit later.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

// Session is the per-user flow state. Exactly one exists per user.
type Session struct {
	UserID               int64       `json:"user_id"`
	ChatID               int64       `json:"chat_id"`
	State                ChatState   `json:"state"`
	ActiveConversationID string      `json:"active_conversation_id,omitempty"`
	PendingMessage       *MessageRef `json:"pending_message,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// Reset drops everything tied to the current exchange and returns the
// session to the main menu.
func (s *Session) Reset() {
	s.State = StateChoosing
	s.ActiveConversationID = ""
	s.PendingMessage = nil
}

type SessionStore interface {
	GetSession(ctx context.Context, userID int64) (*Session, error)
	SaveSession(ctx context.Context, session *Session) error
}
