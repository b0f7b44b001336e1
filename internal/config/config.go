package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Slack        SlackConfig
	Bridge       BridgeConfig
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
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SlackConfig carries tokens and channel ids for the chat platform.
type SlackConfig struct {
	BotToken       string
	AppToken       string
	SupportChannel string
	AuditChannel   string
}

// BridgeConfig tunes external room lifecycle behavior.
type BridgeConfig struct {
	ArchivePrefix          string
	TeardownGraceSeconds   int
	MinSendIntervalMillis  int
	NameCacheTTLMinutes    int
	OutboundTimeoutSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-bridge"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
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
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Slack: SlackConfig{
			BotToken:       os.Getenv("SLACK_BOT_TOKEN"),
			AppToken:       os.Getenv("SLACK_APP_TOKEN"),
			SupportChannel: os.Getenv("SLACK_SUPPORT_CHANNEL_ID"),
			AuditChannel:   os.Getenv("SLACK_AUDIT_CHANNEL_ID"),
		},
		Bridge: BridgeConfig{
			ArchivePrefix:          getEnv("BRIDGE_ARCHIVE_PREFIX", "closed-"),
			TeardownGraceSeconds:   getEnvAsInt("BRIDGE_TEARDOWN_GRACE_SECONDS", 3),
			MinSendIntervalMillis:  getEnvAsInt("BRIDGE_MIN_SEND_INTERVAL_MS", 500),
			NameCacheTTLMinutes:    getEnvAsInt("BRIDGE_NAME_CACHE_TTL_MINUTES", 60),
			OutboundTimeoutSeconds: getEnvAsInt("BRIDGE_OUTBOUND_TIMEOUT_SECONDS", 10),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
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

// TeardownGrace is the delay between a delete request and room removal.
func (b BridgeConfig) TeardownGrace() time.Duration {
	if b.TeardownGraceSeconds <= 0 {
		return 0
	}
	return time.Duration(b.TeardownGraceSeconds) * time.Second
}

// MinSendInterval is the minimum delay between platform posts.
func (b BridgeConfig) MinSendInterval() time.Duration {
	if b.MinSendIntervalMillis <= 0 {
		return 0
	}
	return time.Duration(b.MinSendIntervalMillis) * time.Millisecond
}

// NameCacheTTL is the author display-name cache lifetime.
func (b BridgeConfig) NameCacheTTL() time.Duration {
	if b.NameCacheTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(b.NameCacheTTLMinutes) * time.Minute
}

// OutboundTimeout bounds a single best-effort platform call.
func (b BridgeConfig) OutboundTimeout() time.Duration {
	if b.OutboundTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.OutboundTimeoutSeconds) * time.Second
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
