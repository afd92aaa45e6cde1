package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills unspecified fields with working values. Explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyNMDefaults(&cfg.NM)
	applySSDefaults(&cfg.SS)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyNMDefaults(cfg *NMConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}
	if cfg.StatePath == "" {
		cfg.StatePath = "nm_state.json"
	}
	if cfg.ReplicaTarget == 0 {
		cfg.ReplicaTarget = 1
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = 6 * time.Second
	}
	if cfg.MonitorInterval == 0 {
		cfg.MonitorInterval = time.Second
	}
	if cfg.DataRoot == "" {
		cfg.DataRoot = "ss_data"
	}
}

func applySSDefaults(cfg *SSConfig) {
	if cfg.ID == 0 {
		cfg.ID = 1
	}
	if cfg.NMAddr == "" {
		cfg.NMAddr = "127.0.0.1:9000"
	}
	if cfg.DataPort == 0 {
		cfg.DataPort = 9100 + cfg.ID
	}
	if cfg.CtrlPort == 0 {
		cfg.CtrlPort = 9200 + cfg.ID
	}
	if cfg.DataRoot == "" {
		cfg.DataRoot = "ss_data"
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = time.Second
	}
	if cfg.StreamDelay == 0 {
		cfg.StreamDelay = 100 * time.Millisecond
	}
}
