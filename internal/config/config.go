package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	LLM          LLMConfig
	Embedding    EmbeddingConfig
	Pipeline     PipelineConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	APIKeyHash            string
	BcryptCost            int
}

// LLMConfig configures the completion provider chain. Models are tried in
// order; the next entry is used when the previous provider fails.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Models         []string
	TimeoutSeconds int
	MaxTokens      int
	Temperature    float64
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
	CacheTTLHours  int
}

// PipelineConfig controls the review/retry loop.
type PipelineConfig struct {
	MaxReviewAttempts int
	RetrievalTopK     int
	MinSimilarity     float64
}

// NotificationConfig holds escalation notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
	}

	minSimilarity, err := strconv.ParseFloat(getEnv("PIPELINE_MIN_SIMILARITY", "0.3"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_MIN_SIMILARITY: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-resolver"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 120),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			APIKeyHash:            os.Getenv("AUTH_API_KEY_HASH"),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		LLM: LLMConfig{
			APIKey:         os.Getenv("LLM_API_KEY"),
			BaseURL:        getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			Models:         getEnvAsList("LLM_MODELS", []string{"gpt-4o-mini", "gpt-4o"}),
			TimeoutSeconds: getEnvAsInt("LLM_TIMEOUT_SECONDS", 60),
			MaxTokens:      getEnvAsInt("LLM_MAX_TOKENS", 2048),
			Temperature:    temperature,
		},
		Embedding: EmbeddingConfig{
			APIKey:         getEnv("EMBEDDING_API_KEY", os.Getenv("GEMINI_API_KEY")),
			Model:          getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
			TimeoutSeconds: getEnvAsInt("EMBEDDING_TIMEOUT_SECONDS", 30),
			CacheTTLHours:  getEnvAsInt("EMBEDDING_CACHE_TTL_HOURS", 24),
		},
		Pipeline: PipelineConfig{
			MaxReviewAttempts: getEnvAsInt("PIPELINE_MAX_REVIEW_ATTEMPTS", 2),
			RetrievalTopK:     getEnvAsInt("PIPELINE_RETRIEVAL_TOP_K", 5),
			MinSimilarity:     minSimilarity,
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if cfg.Pipeline.MaxReviewAttempts < 0 {
		return nil, fmt.Errorf("PIPELINE_MAX_REVIEW_ATTEMPTS must be >= 0")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call completion timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Timeout returns the per-call embedding timeout.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// CacheTTL returns the embedding cache entry lifetime.
func (e EmbeddingConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLHours) * time.Hour
}

// MaxAttempts returns the total drafting attempts (initial plus retries).
func (p PipelineConfig) MaxAttempts() int {
	return p.MaxReviewAttempts + 1
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
