package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BatmanBruc/gembot/types"
)

// FileHistoryStore keeps one JSON file per saved conversation.
type FileHistoryStore struct {
	dir string
}

func NewFileHistoryStore(dir string) (*FileHistoryStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &FileHistoryStore{dir: dir}, nil
}

func (s *FileHistoryStore) path(conversationID string) (string, error) {
	if !types.ValidConversationID(conversationID) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidConversationID, conversationID)
	}
	return filepath.Join(s.dir, conversationID+".json"), nil
}

func (s *FileHistoryStore) Load(_ context.Context, conversationID string) (types.History, error) {
	path, err := s.path(conversationID)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	var history types.History
	if err := json.Unmarshal(b, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return history, nil
}

func (s *FileHistoryStore) Save(_ context.Context, conversationID string, history types.History) error {
	path, err := s.path(conversationID)
	if err != nil {
		return err
	}
	b, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

func (s *FileHistoryStore) Delete(_ context.Context, conversationID string) error {
	path, err := s.path(conversationID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete history file: %w", err)
	}
	return nil
}

// RedisHistoryStore keeps histories in redis without expiry.
type RedisHistoryStore struct {
	client *RedisClient
}

func NewRedisHistoryStore(redisClient *RedisClient) *RedisHistoryStore {
	return &RedisHistoryStore{client: redisClient}
}

func (s *RedisHistoryStore) key(conversationID string) (string, error) {
	if !types.ValidConversationID(conversationID) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidConversationID, conversationID)
	}
	return s.client.generateKey("history", conversationID), nil
}

func (s *RedisHistoryStore) Load(ctx context.Context, conversationID string) (types.History, error) {
	key, err := s.key(conversationID)
	if err != nil {
		return nil, err
	}
	var history types.History
	if err := s.client.Get(ctx, key, &history); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return history, nil
}

func (s *RedisHistoryStore) Save(ctx context.Context, conversationID string, history types.History) error {
	key, err := s.key(conversationID)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, history, 0)
}

func (s *RedisHistoryStore) Delete(ctx context.Context, conversationID string) error {
	key, err := s.key(conversationID)
	if err != nil {
		return err
	}
	return s.client.Del(ctx, key)
}
