// Package config carries the persistent CLI flags and the config command.
package config

import (
	"fmt"

	"go.uber.org/zap"

	orbcfg "github.com/rustyeddy/orb/config"
	"github.com/rustyeddy/orb/internal/logging"
)

// RootConfig holds the global flags shared by every subcommand.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	NoColor    bool
}

// Load reads the config file, or the defaults when no file was given, and
// applies flag overrides on top.
func (rc *RootConfig) Load() (*orbcfg.Config, error) {
	var cfg *orbcfg.Config
	if rc.ConfigPath == "" {
		cfg = orbcfg.Default()
		cfg.ApplyEnv()
	} else {
		var err error
		if cfg, err = orbcfg.LoadFromFile(rc.ConfigPath); err != nil {
			return nil, err
		}
	}
	if rc.DBPath != "" {
		cfg.Journal.DBPath = rc.DBPath
	}
	if rc.LogLevel != "" {
		cfg.LogLevel = rc.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Logger builds the process logger for cfg.
func (rc *RootConfig) Logger(cfg *orbcfg.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	return logging.New(level)
}
