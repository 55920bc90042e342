package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// ChainConfig holds ledger provider configuration
type ChainConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	ConfirmInterval time.Duration `mapstructure:"confirm_interval"`
	GasLimit        uint64        `mapstructure:"gas_limit"`
}

// ContractsConfig holds the deployed contract addresses, hex-encoded
type ContractsConfig struct {
	CommunityHub    string `mapstructure:"community_hub"`
	ContentRegistry string `mapstructure:"content_registry"`
	EventTicketing  string `mapstructure:"event_ticketing"`
	ProfileRegistry string `mapstructure:"profile_registry"`
}

// SignerConfig holds the optional session signing key. An empty key means a
// read-only session: every write fails until a signer is attached.
type SignerConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

// SyncConfig holds entity refresh and enumeration configuration
type SyncConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	MaxScan         int           `mapstructure:"max_scan"`
	FeedWorkers     int           `mapstructure:"feed_workers"`
	FeedPerParent   int           `mapstructure:"feed_per_parent"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// APIConfig holds configuration for the api server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig    `mapstructure:"server"`
	Chain      ChainConfig     `mapstructure:"chain"`
	Contracts  ContractsConfig `mapstructure:"contracts"`
	Signer     SignerConfig    `mapstructure:"signer"`
	Sync       SyncConfig      `mapstructure:"sync"`
}

// ScanConfig holds configuration for the scan tool
type ScanConfig struct {
	BaseConfig `mapstructure:",squash"`
	Chain      ChainConfig     `mapstructure:"chain"`
	Contracts  ContractsConfig `mapstructure:"contracts"`
	Sync       SyncConfig      `mapstructure:"sync"`
}

// LoadAPIConfig loads configuration for the api server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	setSyncDefaults(v)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 60)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateChain(config.Chain, config.Contracts); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadScanConfig loads configuration for the scan tool
func LoadScanConfig(configFile string, envPath string) (*ScanConfig, error) {
	v := configureViper("scan", configFile, envPath)

	setSyncDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config ScanConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateChain(config.Chain, config.Contracts); err != nil {
		return nil, err
	}

	return &config, nil
}

func setSyncDefaults(v *viper.Viper) {
	v.SetDefault("chain.confirm_interval", "2s")
	v.SetDefault("sync.refresh_interval", "30s")
	v.SetDefault("sync.cache_ttl", "1m")
	v.SetDefault("sync.max_scan", 10000)
	v.SetDefault("sync.feed_workers", 8)
	v.SetDefault("sync.feed_per_parent", 50)
}

func validateChain(chain ChainConfig, contracts ContractsConfig) error {
	if chain.RPCURL == "" {
		return errors.New("chain.rpc_url is required")
	}
	if contracts.CommunityHub == "" {
		return errors.New("contracts.community_hub is required")
	}
	if contracts.ContentRegistry == "" {
		return errors.New("contracts.content_registry is required")
	}
	if contracts.EventTicketing == "" {
		return errors.New("contracts.event_ticketing is required")
	}
	if contracts.ProfileRegistry == "" {
		return errors.New("contracts.profile_registry is required")
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/api/, cmd/scan/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("AGORA_SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Chain
		"chain.rpc_url",
		"chain.confirm_interval",
		"chain.gas_limit",
		// Contracts
		"contracts.community_hub",
		"contracts.content_registry",
		"contracts.event_ticketing",
		"contracts.profile_registry",
		// Signer
		"signer.private_key",
		// Sync
		"sync.refresh_interval",
		"sync.cache_ttl",
		"sync.max_scan",
		"sync.feed_workers",
		"sync.feed_per_parent",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, name := range envFiles {
		path := filepath.Join(envPath, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Overload(path)
	}
}
