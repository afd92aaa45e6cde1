// Package config loads the daemons' configuration.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (DOCS_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Both daemons share one schema; each reads only its own section plus
// logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete configuration for the document store daemons.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// NM configures the naming manager daemon
	NM NMConfig `mapstructure:"nm"`

	// SS configures the storage server daemon
	SS SSConfig `mapstructure:"ss"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output is where logs are written: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// NMConfig contains the naming manager's settings.
type NMConfig struct {
	// Port is the control port clients and storage servers connect to
	Port int `mapstructure:"port" validate:"required,gt=0,lte=65535"`

	// StatePath is the persisted state document
	StatePath string `mapstructure:"state_path" validate:"required"`

	// ReplicaTarget is how many replicas each file gets
	ReplicaTarget int `mapstructure:"replica_target" validate:"gte=0"`

	// StaleAfter is how long a storage server may miss heartbeats before
	// it is considered down
	StaleAfter time.Duration `mapstructure:"stale_after" validate:"required,gt=0"`

	// MonitorInterval is the failover monitor scan period
	MonitorInterval time.Duration `mapstructure:"monitor_interval" validate:"required,gt=0"`

	// DataRoot is where co-located storage servers keep their stores
	DataRoot string `mapstructure:"data_root"`
}

// SSConfig contains a storage server's settings.
type SSConfig struct {
	// ID is this server's identity; must be unique across the deployment
	ID int `mapstructure:"id" validate:"required,gt=0"`

	// NMAddr is the naming manager control endpoint, host:port
	NMAddr string `mapstructure:"nm_addr" validate:"required"`

	// CtrlPort is advertised to the naming manager
	CtrlPort int `mapstructure:"ctrl_port" validate:"gte=0,lte=65535"`

	// DataPort carries all document traffic
	DataPort int `mapstructure:"data_port" validate:"required,gt=0,lte=65535"`

	// Root overrides the store root; default is <data_root>/ss<id>
	Root string `mapstructure:"root"`

	// DataRoot is the shared parent for per-server stores
	DataRoot string `mapstructure:"data_root"`

	// HeartbeatInterval is the liveness ping period
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"required,gt=0"`

	// StreamDelay is the pacing gap between streamed words
	StreamDelay time.Duration `mapstructure:"stream_delay" validate:"required,gt=0"`
}

// StoreRoot resolves the effective store root for this server.
func (c SSConfig) StoreRoot() string {
	if c.Root != "" {
		return c.Root
	}
	return filepath.Join(c.DataRoot, fmt.Sprintf("ss%d", c.ID))
}

// Load loads configuration from file, environment, and defaults.
// An empty configPath uses the default location and tolerates a missing
// file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath == "" && os.IsNotExist(err) {
				// default location, nothing there: run on defaults
			} else {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Example: DOCS_NM_PORT=9001, DOCS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/docs or ~/.config/docs, falling
// back to the current directory.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "docs")
}
