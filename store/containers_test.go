package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BatmanBruc/gembot/types"
)

// startContainer runs image and returns host:port of its exposed port. The
// test is skipped when no Docker daemon is reachable.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port nat.Port) string {
	t.Helper()
	if testing.Short() {
		t.Skip("container tests skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "gembot",
			"POSTGRES_PASSWORD": "secret",
			"POSTGRES_DB":       "gembot",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}, "5432/tcp")

	dsn := fmt.Sprintf("postgres://gembot:secret@%s/gembot?sslmode=disable", addr)
	s, err := NewPostgresStore(context.Background(), dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestRedisClient(t *testing.T) *RedisClient {
	t.Helper()
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}, "6379/tcp")

	client, err := NewRedisClient(context.Background(), addr, "", 0, "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPostgresStore(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		inserted, err := s.Create(ctx, types.Conversation{
			ConversationID: fmt.Sprintf("conv00000%d", i),
			UserID:         1,
			Title:          fmt.Sprintf("title %d", i),
		})
		require.NoError(t, err)
		assert.True(t, inserted)
	}
	_, err := s.Create(ctx, types.Conversation{ConversationID: "convother", UserID: 2, Title: "other"})
	require.NoError(t, err)

	t.Run("duplicate id is ignored", func(t *testing.T) {
		inserted, err := s.Create(ctx, types.Conversation{ConversationID: "conv000001", UserID: 1, Title: "changed"})
		require.NoError(t, err)
		assert.False(t, inserted)

		conv, err := s.GetByUserAndID(ctx, 1, "conv000001")
		require.NoError(t, err)
		assert.Equal(t, "title 1", conv.Title)
	})

	t.Run("count and list are owner scoped", func(t *testing.T) {
		count, err := s.CountByUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		convs, err := s.ListByUser(ctx, 1, 0, 2)
		require.NoError(t, err)
		require.Len(t, convs, 2)
		assert.Equal(t, "conv000003", convs[0].ConversationID)
		assert.Equal(t, "conv000002", convs[1].ConversationID)
	})

	t.Run("get is owner scoped", func(t *testing.T) {
		_, err := s.GetByUserAndID(ctx, 1, "convother")
		assert.ErrorIs(t, err, types.ErrConversationNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteByUserAndID(ctx, 2, "conv000002"))
		_, err := s.GetByUserAndID(ctx, 1, "conv000002")
		require.NoError(t, err)

		require.NoError(t, s.DeleteByUserAndID(ctx, 1, "conv000002"))
		_, err = s.GetByUserAndID(ctx, 1, "conv000002")
		assert.ErrorIs(t, err, types.ErrConversationNotFound)

		assert.NoError(t, s.DeleteByUserAndID(ctx, 1, "conv000002"))
	})
}

func TestRedisSessionStore(t *testing.T) {
	s := NewRedisSessionStore(newTestRedisClient(t), 1)
	ctx := context.Background()

	_, err := s.GetSession(ctx, 42)
	assert.ErrorIs(t, err, types.ErrSessionNotFound)

	session := &types.Session{
		UserID:               42,
		ChatID:               42,
		State:                types.StateConversationHistory,
		ActiveConversationID: "conv123456",
		PendingMessage:       &types.MessageRef{ChatID: 42, MessageID: 9},
	}
	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, types.StateConversationHistory, got.State)
	assert.Equal(t, "conv123456", got.ActiveConversationID)
	require.NotNil(t, got.PendingMessage)
	assert.Equal(t, 9, got.PendingMessage.MessageID)
}

func TestRedisHistoryStore(t *testing.T) {
	s := NewRedisHistoryStore(newTestRedisClient(t))
	ctx := context.Background()

	history, err := s.Load(ctx, "conv123456")
	require.NoError(t, err)
	assert.Nil(t, history)

	want := types.History{
		{Role: types.RoleUser, Text: "Hello"},
		{Role: types.RoleModel, Text: "Hi"},
	}
	require.NoError(t, s.Save(ctx, "conv123456", want))

	history, err = s.Load(ctx, "conv123456")
	require.NoError(t, err)
	assert.Equal(t, want, history)

	require.NoError(t, s.Delete(ctx, "conv123456"))
	history, err = s.Load(ctx, "conv123456")
	require.NoError(t, err)
	assert.Nil(t, history)

	assert.ErrorIs(t, s.Save(ctx, "../etc", want), types.ErrInvalidConversationID)
}
