package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	// Secret key for signing tokens. Must be set in production.
	Secret string `mapstructure:"secret"`

	// Address the HTTP server listens on, e.g. ":8080"
	ListenAddr string `mapstructure:"listen_addr"`

	LogLevel string `mapstructure:"log_level"`

	// Comma separated list of allowed CIDR networks for the operator API.
	// Empty means allow all.
	AllowedNetworks string `mapstructure:"allowed_networks"`

	// How long the barrier stays open after an admit, in seconds.
	// Runtime value lives in the barrier controller; this is the boot default.
	BarrierOpenSec int `mapstructure:"barrier_open_sec"`

	// How long a burn request may stay pending before it expires, in seconds.
	BurnTTL uint `mapstructure:"burn_ttl"`

	// Operator token TTL in minutes.
	OperatorTokenTTL uint `mapstructure:"operator_token_ttl"`

	// Device credential TTL in days. Devices hold long-lived credentials.
	DeviceTokenTTL uint `mapstructure:"device_token_ttl"`

	// Base URL for the application, used when generating enrollment URLs.
	// May be empty, in which case it is derived from the request.
	BaseURL string `mapstructure:"base_url"`

	Storage Storage `mapstructure:"storage"`
}

var Cfg *Config

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads configuration from config file and environment variables
// and returns a Config struct.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")
	v.SetEnvPrefix("")

	if len(configFile) > 0 {
		for _, path := range configFile {
			v.SetConfigFile(path)
		}
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	// Load configuration from environment variables
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if cfg.BarrierOpenSec < 0 {
		slog.Warn("BARRIER_OPEN_SEC must not be negative, using default", "actual", cfg.BarrierOpenSec)
		cfg.BarrierOpenSec = defaults["barrier_open_sec"].(int)
	}

	// Convert relative sqlite path to absolute instance folder
	if cfg.Storage.SQLite != nil {
		path := cfg.Storage.SQLite.Path
		if path == "" || path == ":memory:" {
			// Nothing to resolve
		} else if !os.IsPathSeparator(path[0]) {
			cfg.Storage.SQLite.Path = fmt.Sprintf("%s/%s", getConfigPath(), path)
		}
	}

	// Warn if secret is missing - this is a critical security setting for production
	if cfg.Secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("SECRET configuration variable is required in production")
		} else {
			slog.Warn("Secret is not set. Do not use in production.")
		}
	}

	return &cfg, nil
}
