package store

import (
	"context"
	"sync"
	"time"

	"github.com/BatmanBruc/gembot/types"
)

// MemorySessionStore keeps sessions in process memory. State is lost on
// restart, which only sends the owner back to /start.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]types.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]types.Session)}
}

func (s *MemorySessionStore) GetSession(_ context.Context, userID int64) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, types.ErrSessionNotFound
	}
	if session.PendingMessage != nil {
		ref := *session.PendingMessage
		session.PendingMessage = &ref
	}
	return &session, nil
}

func (s *MemorySessionStore) SaveSession(_ context.Context, session *types.Session) error {
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	stored := *session
	if session.PendingMessage != nil {
		ref := *session.PendingMessage
		stored.PendingMessage = &ref
	}

	s.mu.Lock()
	s.sessions[session.UserID] = stored
	s.mu.Unlock()
	return nil
}
