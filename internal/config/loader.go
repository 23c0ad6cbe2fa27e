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
// built-in defaults, applies ORAKORE_* environment variable overrides, and
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

// applyEnvOverrides reads well-known ORAKORE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file. Per-chain settings stay TOML-only.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "ORAKORE_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "ORAKORE_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "ORAKORE_WALLET_KEY_PASSWORD")

	// ── Deployments ──
	setStr(&cfg.Deployments.BaseURL, "ORAKORE_DEPLOYMENTS_BASE_URL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ORAKORE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ORAKORE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ORAKORE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ORAKORE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ORAKORE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ORAKORE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ORAKORE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ORAKORE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ORAKORE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ORAKORE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ORAKORE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ORAKORE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ORAKORE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ORAKORE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ORAKORE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ORAKORE_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ORAKORE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ORAKORE_S3_REGION")
	setStr(&cfg.S3.Bucket, "ORAKORE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ORAKORE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ORAKORE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ORAKORE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ORAKORE_S3_FORCE_PATH_STYLE")

	// ── Indexer ──
	setBool(&cfg.Indexer.Enabled, "ORAKORE_INDEXER_ENABLED")
	setDuration(&cfg.Indexer.SyncInterval, "ORAKORE_INDEXER_SYNC_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ORAKORE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ORAKORE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ORAKORE_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ORAKORE_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "ORAKORE_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "ORAKORE_SERVER_RATE_WINDOW")

	// ── Top-level ──
	setStr(&cfg.Mode, "ORAKORE_MODE")
	setStr(&cfg.LogLevel, "ORAKORE_LOG_LEVEL")
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
