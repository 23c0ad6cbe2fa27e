package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orakore.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "serve"

[[chains]]
chain_id = 1001
rpc_url = "https://public-en-kairos.node.kaia.io"
subgraph_url = "https://graph.example.com/orakore"
block_window = 100000

[indexer]
enabled = false
sync_interval = "5m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "serve", cfg.Mode)
	require.Len(t, cfg.Chains, 1)
	require.Equal(t, int64(1001), cfg.Chains[0].ChainID)
	require.Equal(t, uint64(100_000), cfg.Chains[0].BlockWindow)
	require.False(t, cfg.Indexer.Enabled)
	require.Equal(t, 5*time.Minute, cfg.Indexer.SyncInterval.Duration)

	// Untouched sections keep their defaults.
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[[chains]]
chain_id = 8217
rpc_url = "https://public-en.node.kaia.io"
`)

	t.Setenv("ORAKORE_POSTGRES_PASSWORD", "sekret")
	t.Setenv("ORAKORE_SERVER_PORT", "9001")
	t.Setenv("ORAKORE_SERVER_CORS_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("ORAKORE_INDEXER_SYNC_INTERVAL", "30s")
	t.Setenv("ORAKORE_MODE", "index")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "sekret", cfg.Postgres.Password)
	require.Equal(t, 9001, cfg.Server.Port)
	require.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.Server.CORSOrigins)
	require.Equal(t, 30*time.Second, cfg.Indexer.SyncInterval.Duration)
	require.Equal(t, "index", cfg.Mode)
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "unknown mode",
			mutate: func(c *Config) { c.Mode = "batch" },
			want:   "unknown mode",
		},
		{
			name:   "no chains",
			mutate: func(c *Config) { c.Chains = nil },
			want:   "at least one chain",
		},
		{
			name: "duplicate chain",
			mutate: func(c *Config) {
				c.Chains = append(c.Chains, c.Chains[0])
			},
			want: "duplicate chain_id",
		},
		{
			name:   "chain without rpc",
			mutate: func(c *Config) { c.Chains[0].RPCURL = "" },
			want:   "rpc_url",
		},
		{
			name:   "keyfile without password",
			mutate: func(c *Config) { c.Wallet.EncryptedKeyPath = "/etc/orakore/key.json" },
			want:   "key_password",
		},
		{
			name:   "bad server port",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			want:   "server: port",
		},
		{
			name: "indexer without interval",
			mutate: func(c *Config) {
				c.Indexer.Enabled = true
				c.Indexer.SyncInterval.Duration = 0
			},
			want: "sync_interval",
		},
		{
			name:   "s3 bucket without region",
			mutate: func(c *Config) { c.S3.Bucket = "snapshots"; c.S3.Region = "" },
			want:   "s3: region",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateDSNSkipsHostChecks(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.DSN = "postgres://u:p@db.internal:5432/orakore"
	cfg.Postgres.Host = ""
	cfg.Postgres.Database = ""
	require.NoError(t, cfg.Validate())
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "0xdeadbeef"
	cfg.Postgres.Password = "pgpass"
	cfg.Redis.Password = "redispass"
	cfg.S3.SecretKey = "s3secret"
	cfg.Server.APIKey = "apikey"

	red := RedactedConfig(&cfg)

	require.NotContains(t, red.Wallet.PrivateKey, "deadbeef")
	require.NotContains(t, red.Postgres.Password, "pgpass")
	require.NotContains(t, red.Redis.Password, "redispass")
	require.NotContains(t, red.S3.SecretKey, "s3secret")
	require.NotContains(t, red.Server.APIKey, "apikey")

	// The original is untouched.
	require.Equal(t, "pgpass", cfg.Postgres.Password)
}
