package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
server:
  host: 127.0.0.1
  port: 9090
  read_timeout: 5
chain:
  rpc_url: "http://localhost:8545"
  confirm_interval: "5s"
  gas_limit: 1200000
contracts:
  community_hub: "0x1111111111111111111111111111111111111111"
  content_registry: "0x2222222222222222222222222222222222222222"
  event_ticketing: "0x3333333333333333333333333333333333333333"
  profile_registry: "0x4444444444444444444444444444444444444444"
signer:
  private_key: "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
sync:
  refresh_interval: "10s"
  max_scan: 500
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5, cfg.Server.ReadTimeout)
				assert.Equal(t, "http://localhost:8545", cfg.Chain.RPCURL)
				assert.Equal(t, 5*time.Second, cfg.Chain.ConfirmInterval)
				assert.Equal(t, uint64(1200000), cfg.Chain.GasLimit)
				assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.Contracts.CommunityHub)
				assert.NotEmpty(t, cfg.Signer.PrivateKey)
				assert.Equal(t, 10*time.Second, cfg.Sync.RefreshInterval)
				assert.Equal(t, 500, cfg.Sync.MaxScan)
			},
		},
		{
			name: "defaults applied",
			configFile: `
chain:
  rpc_url: "http://localhost:8545"
contracts:
  community_hub: "0x1111111111111111111111111111111111111111"
  content_registry: "0x2222222222222222222222222222222222222222"
  event_ticketing: "0x3333333333333333333333333333333333333333"
  profile_registry: "0x4444444444444444444444444444444444444444"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 2*time.Second, cfg.Chain.ConfirmInterval)
				assert.Equal(t, 30*time.Second, cfg.Sync.RefreshInterval)
				assert.Equal(t, time.Minute, cfg.Sync.CacheTTL)
				assert.Equal(t, 10000, cfg.Sync.MaxScan)
				assert.Equal(t, 8, cfg.Sync.FeedWorkers)
				assert.Equal(t, 50, cfg.Sync.FeedPerParent)
				assert.Empty(t, cfg.Signer.PrivateKey)
			},
		},
		{
			name: "missing rpc url",
			configFile: `
contracts:
  community_hub: "0x1111111111111111111111111111111111111111"
  content_registry: "0x2222222222222222222222222222222222222222"
  event_ticketing: "0x3333333333333333333333333333333333333333"
  profile_registry: "0x4444444444444444444444444444444444444444"
`,
			expectError: true,
		},
		{
			name: "missing contract address",
			configFile: `
chain:
  rpc_url: "http://localhost:8545"
contracts:
  community_hub: "0x1111111111111111111111111111111111111111"
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.configFile)
			cfg, err := LoadAPIConfig(path, t.TempDir())
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadScanConfig(t *testing.T) {
	path := writeConfigFile(t, `
chain:
  rpc_url: "http://localhost:8545"
contracts:
  community_hub: "0x1111111111111111111111111111111111111111"
  content_registry: "0x2222222222222222222222222222222222222222"
  event_ticketing: "0x3333333333333333333333333333333333333333"
  profile_registry: "0x4444444444444444444444444444444444444444"
sync:
  max_scan: 250
`)

	cfg, err := LoadScanConfig(path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Sync.MaxScan)
	assert.Equal(t, 30*time.Second, cfg.Sync.RefreshInterval)
}

func TestLoadAPIConfig_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
chain:
  rpc_url: "http://localhost:8545"
contracts:
  community_hub: "0x1111111111111111111111111111111111111111"
  content_registry: "0x2222222222222222222222222222222222222222"
  event_ticketing: "0x3333333333333333333333333333333333333333"
  profile_registry: "0x4444444444444444444444444444444444444444"
`)

	t.Setenv("AGORA_SYNC_SERVER_PORT", "9999")
	t.Setenv("AGORA_SYNC_SYNC_MAX_SCAN", "42")

	cfg, err := LoadAPIConfig(path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 42, cfg.Sync.MaxScan)
}
