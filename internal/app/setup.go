// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/logging"
)

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "gesture_lock.yaml"

// Setup loads the global configuration and builds the logger. A
// non-empty logLevel overrides log_level from the file.
func Setup(configPath, logLevel string) (*config.Config, *zap.SugaredLogger, error) {
	if err := config.InitGlobal(configPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Get()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
