package types

import (
	"context"
	"regexp"
	"time"
)

const PageSize = 10

type Conversation struct {
	ID             int64
	ConversationID string
	UserID         int64
	Title          string
	CreatedAt      time.Time
}

type ConversationStore interface {
	// Create inserts the row, ignoring a duplicate conversation id.
	Create(ctx context.Context, conv Conversation) (inserted bool, err error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	// ListByUser returns at most limit rows, most recent first.
	ListByUser(ctx context.Context, userID int64, offset, limit int) ([]Conversation, error)
	GetByUserAndID(ctx context.Context, userID int64, conversationID string) (*Conversation, error)
	// DeleteByUserAndID succeeds when nothing matches.
	DeleteByUserAndID(ctx context.Context, userID int64, conversationID string) error
	Close() error
}

// ChatTurn is one message of a saved conversation.
type ChatTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type History []ChatTurn

// HistoryStore keeps the full message history of saved conversations.
type HistoryStore interface {
	// Load returns nil, nil when nothing is stored for the id.
	Load(ctx context.Context, conversationID string) (History, error)
	Save(ctx context.Context, conversationID string, history History) error
	Delete(ctx context.Context, conversationID string) error
}

var conversationIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func ValidConversationID(id string) bool {
	return conversationIDPattern.MatchString(id)
}
