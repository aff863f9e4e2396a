package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(KeyBotToken, "123:abc")
	t.Setenv(KeyOwner, "4242")
	t.Setenv(KeyGeminiToken, "gemini-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, int64(4242), cfg.OwnerID)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-key", cfg.AI.APIKey)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.Model)
	assert.Equal(t, cfg.AI.Model, cfg.AI.VisionModel)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Empty(t, cfg.DBDSN)
	assert.Equal(t, "./pickles", cfg.HistoryDir)
	assert.Equal(t, BackendMemory, cfg.SessionBackend)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.NeedsRedis())
}

func TestLoad_PostgresWithoutDSNLeavesItEmpty(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyDBDriver, "postgres")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Empty(t, cfg.DBDSN)
}

func TestLoad_ProviderSpecificKey(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyAIProvider, "OpenAI")
	t.Setenv(KeyOpenAIKey, "sk-test")
	t.Setenv(KeyAITimeout, "15s")
	t.Setenv(KeySessionBackend, "redis")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 15*time.Second, cfg.AI.Timeout)
	assert.True(t, cfg.NeedsRedis())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing owner", func(t *testing.T) {
		t.Setenv(KeyBotToken, "123:abc")
		t.Setenv(KeyGeminiToken, "k")
		t.Setenv(KeyOwner, "")
		_, err := Load(New())
		assert.ErrorContains(t, err, KeyOwner)
	})
	t.Run("bad owner", func(t *testing.T) {
		setRequired(t)
		t.Setenv(KeyOwner, "me")
		_, err := Load(New())
		assert.Error(t, err)
	})
	t.Run("missing provider key", func(t *testing.T) {
		setRequired(t)
		t.Setenv(KeyAIProvider, "anthropic")
		t.Setenv(KeyAnthropicKey, "")
		_, err := Load(New())
		assert.ErrorContains(t, err, "anthropic")
	})
	t.Run("unknown provider", func(t *testing.T) {
		setRequired(t)
		t.Setenv(KeyAIProvider, "llama")
		_, err := Load(New())
		assert.ErrorContains(t, err, "llama")
	})
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, LoadEnvFile(""))

	path := filepath.Join(t.TempDir(), "bot.env")
	require.NoError(t, os.WriteFile(path, []byte("GEMBOT_TEST_FROM_FILE=\"from file\"\nGEMBOT_TEST_KEEP=file\n"), 0o600))
	t.Setenv("GEMBOT_TEST_KEEP", "env")
	t.Setenv("GEMBOT_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("GEMBOT_TEST_FROM_FILE"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from file", os.Getenv("GEMBOT_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("GEMBOT_TEST_KEEP"))
}
