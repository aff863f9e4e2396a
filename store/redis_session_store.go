package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/BatmanBruc/gembot/types"
)

type RedisSessionStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewRedisSessionStore(redisClient *RedisClient, ttlHours int) *RedisSessionStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisSessionStore{
		client: redisClient,
		ttl:    ttl,
	}
}

func (s *RedisSessionStore) sessionKey(userID int64) string {
	return s.client.generateKey("session", strconv.FormatInt(userID, 10))
}

func (s *RedisSessionStore) GetSession(ctx context.Context, userID int64) (*types.Session, error) {
	var session types.Session
	if err := s.client.Get(ctx, s.sessionKey(userID), &session); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return nil, types.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) SaveSession(ctx context.Context, session *types.Session) error {
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	return s.client.Set(ctx, s.sessionKey(session.UserID), session, s.ttl)
}
