package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ECONCAST_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ECONCAST_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ECONCAST_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ECONCAST_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ECONCAST_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ECONCAST_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ECONCAST_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ECONCAST_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ECONCAST_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ECONCAST_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ECONCAST_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ECONCAST_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ECONCAST_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ECONCAST_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ECONCAST_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ECONCAST_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ECONCAST_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ECONCAST_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ECONCAST_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ECONCAST_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ECONCAST_S3_REGION")
	setStr(&cfg.S3.Bucket, "ECONCAST_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ECONCAST_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ECONCAST_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "ECONCAST_S3_FORCE_PATH_STYLE")

	// ── News ──
	setBool(&cfg.News.Enabled, "ECONCAST_NEWS_ENABLED")
	setStr(&cfg.News.BaseURL, "ECONCAST_NEWS_BASE_URL")
	setStr(&cfg.News.APIKey, "ECONCAST_NEWS_API_KEY")
	setDuration(&cfg.News.CacheTTL, "ECONCAST_NEWS_CACHE_TTL")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "ECONCAST_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "ECONCAST_ARCHIVE_INTERVAL")
	setInt(&cfg.Archive.RetentionDays, "ECONCAST_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setInt(&cfg.Server.Port, "ECONCAST_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ECONCAST_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.AdminAPIKey, "ECONCAST_SERVER_ADMIN_API_KEY")
	setInt(&cfg.Server.SubmitRateLimit, "ECONCAST_SERVER_SUBMIT_RATE_LIMIT")
	setDuration(&cfg.Server.SubmitRateWindow, "ECONCAST_SERVER_SUBMIT_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ECONCAST_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ECONCAST_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ECONCAST_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ECONCAST_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ECONCAST_MODE")
	setStr(&cfg.LogLevel, "ECONCAST_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
