// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyBotToken        = "TELEGRAM_BOT_TOKEN"
	KeyOwner           = "AUTHORIZED_USER"
	KeyAIProvider      = "AI_PROVIDER"
	KeyGeminiToken     = "GEMINI_API_TOKEN"
	KeyOpenAIKey       = "OPENAI_API_KEY"
	KeyAnthropicKey    = "ANTHROPIC_API_KEY"
	KeyAIModel         = "AI_MODEL"
	KeyAIVisionModel   = "AI_VISION_MODEL"
	KeyAITimeout       = "AI_TIMEOUT"
	KeyAIRatePerMinute = "AI_RATE_PER_MINUTE"
	KeyDBDriver        = "DB_DRIVER"
	KeyDBDSN           = "DB_DSN"
	KeyHistoryBackend  = "HISTORY_BACKEND"
	KeyHistoryDir      = "HISTORY_DIR"
	KeySessionBackend  = "SESSION_BACKEND"
	KeyRedisAddr       = "REDIS_ADDR"
	KeyRedisPassword   = "REDIS_PASSWORD"
	KeyRedisDB         = "REDIS_DB"
	KeyRedisPrefix     = "REDIS_PREFIX"
	KeySessionTTLHours = "SESSION_TTL_HOURS"
	KeyWorkers         = "WORKERS"
	KeyMetricsAddr     = "METRICS_ADDR"
	KeyLogMode         = "LOG_MODE"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var defaultModels = map[string]string{
	ProviderGemini:    "gemini-1.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
}

type AIConfig struct {
	Provider      string
	APIKey        string
	Model         string
	VisionModel   string
	Timeout       time.Duration
	RatePerMinute int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Config struct {
	BotToken        string
	OwnerID         int64
	AI              AIConfig
	DBDriver        string
	DBDSN           string
	HistoryBackend  string
	HistoryDir      string
	SessionBackend  string
	Redis           RedisConfig
	SessionTTLHours int
	Workers         int
	MetricsAddr     string
	LogMode         string
}

// LoadEnvFile copies variables from a dotenv file into the process
// environment without overriding ones already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAIProvider, ProviderGemini)
	v.SetDefault(KeyAITimeout, 60*time.Second)
	v.SetDefault(KeyAIRatePerMinute, 30)
	v.SetDefault(KeyDBDriver, "sqlite")
	v.SetDefault(KeyHistoryBackend, BackendFile)
	v.SetDefault(KeyHistoryDir, "./pickles")
	v.SetDefault(KeySessionBackend, BackendMemory)
	v.SetDefault(KeyRedisAddr, "localhost:6379")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyRedisPrefix, "gembot")
	v.SetDefault(KeySessionTTLHours, 24)
	v.SetDefault(KeyWorkers, 4)
	v.SetDefault(KeyLogMode, "development")
}

// New returns a viper instance reading the environment on top of defaults.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		BotToken: strings.TrimSpace(v.GetString(KeyBotToken)),
		AI: AIConfig{
			Provider:      strings.ToLower(strings.TrimSpace(v.GetString(KeyAIProvider))),
			Model:         strings.TrimSpace(v.GetString(KeyAIModel)),
			VisionModel:   strings.TrimSpace(v.GetString(KeyAIVisionModel)),
			Timeout:       v.GetDuration(KeyAITimeout),
			RatePerMinute: v.GetInt(KeyAIRatePerMinute),
		},
		DBDriver:       strings.ToLower(strings.TrimSpace(v.GetString(KeyDBDriver))),
		DBDSN:          strings.TrimSpace(v.GetString(KeyDBDSN)),
		HistoryBackend: strings.ToLower(strings.TrimSpace(v.GetString(KeyHistoryBackend))),
		HistoryDir:     strings.TrimSpace(v.GetString(KeyHistoryDir)),
		SessionBackend: strings.ToLower(strings.TrimSpace(v.GetString(KeySessionBackend))),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString(KeyRedisAddr)),
			Password: v.GetString(KeyRedisPassword),
			DB:       v.GetInt(KeyRedisDB),
			Prefix:   strings.TrimSpace(v.GetString(KeyRedisPrefix)),
		},
		SessionTTLHours: v.GetInt(KeySessionTTLHours),
		Workers:         v.GetInt(KeyWorkers),
		MetricsAddr:     strings.TrimSpace(v.GetString(KeyMetricsAddr)),
		LogMode:         strings.TrimSpace(v.GetString(KeyLogMode)),
	}

	if raw := strings.TrimSpace(v.GetString(KeyOwner)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse %s value %q: %w", KeyOwner, raw, err)
		}
		cfg.OwnerID = id
	}

	switch cfg.AI.Provider {
	case ProviderGemini:
		cfg.AI.APIKey = strings.TrimSpace(v.GetString(KeyGeminiToken))
	case ProviderOpenAI:
		cfg.AI.APIKey = strings.TrimSpace(v.GetString(KeyOpenAIKey))
	case ProviderAnthropic:
		cfg.AI.APIKey = strings.TrimSpace(v.GetString(KeyAnthropicKey))
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModels[cfg.AI.Provider]
	}
	if cfg.AI.VisionModel == "" {
		cfg.AI.VisionModel = cfg.AI.Model
	}

	return cfg, cfg.Validate()
}

// Validate checks that the required configuration is present.
func (c Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("missing required environment variable: %s", KeyBotToken)
	}
	if c.OwnerID == 0 {
		return fmt.Errorf("missing required environment variable: %s", KeyOwner)
	}
	if _, ok := defaultModels[c.AI.Provider]; !ok {
		return fmt.Errorf("unsupported %s %q", KeyAIProvider, c.AI.Provider)
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("missing API key for provider %s", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyAITimeout)
	}
	switch c.HistoryBackend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unsupported %s %q", KeyHistoryBackend, c.HistoryBackend)
	}
	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unsupported %s %q", KeySessionBackend, c.SessionBackend)
	}
	return nil
}

func (c Config) NeedsRedis() bool {
	return c.HistoryBackend == BackendRedis || c.SessionBackend == BackendRedis
}
