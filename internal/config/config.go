// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Source kinds recognised by SourceConfig.Kind.
const (
	SourceMPU9250 = "mpu9250"
	SourceNMEA    = "nmea"
	SourceReplay  = "replay"
)

// Config holds all application configuration values.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Session  SessionConfig  `yaml:"session"`
	Source   SourceConfig   `yaml:"source"`
	Feedback FeedbackConfig `yaml:"feedback"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	NATS     NATSConfig     `yaml:"nats"`
	Web      WebConfig      `yaml:"web"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SessionConfig tunes the matching pipeline.
type SessionConfig struct {
	// Samples per recording session (N).
	Samples int `yaml:"samples"`

	// Deadband edges on the sigmoid scale. The sigmoid rests at 0.5, so the
	// defaults are 0.5 ± 0.4.
	DeadbandLo float64 `yaml:"deadband_lo"`
	DeadbandHi float64 `yaml:"deadband_hi"`

	// Per-axis DTW accept threshold.
	Threshold float64 `yaml:"threshold"`
}

// SourceConfig selects and configures the gyro sample source.
type SourceConfig struct {
	Kind   string `yaml:"kind"`
	RateHz int    `yaml:"rate_hz"`

	// mpu9250 over SPI
	SPIDevice    string `yaml:"spi_device"`
	CSPin        string `yaml:"cs_pin"`
	DataReadyPin string `yaml:"data_ready_pin"` // empty = pace with a ticker at RateHz
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	GyroRange byte `yaml:"gyro_range"`

	// serial bridge speaking $GYGYR sentences
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`

	ReplayFile string `yaml:"replay_file"`
}

// FeedbackConfig wires the local button, LEDs and OLED. Empty pins are skipped.
type FeedbackConfig struct {
	ButtonPin   string        `yaml:"button_pin"`
	LEDGreenPin string        `yaml:"led_green_pin"`
	LEDRedPin   string        `yaml:"led_red_pin"`
	Display     DisplayConfig `yaml:"display"`
}

type DisplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	I2CBus  string `yaml:"i2c_bus"` // "" = first bus
}

type MQTTConfig struct {
	Broker          string `yaml:"broker"` // empty disables MQTT
	ClientIDLock    string `yaml:"client_id_lock"`
	ClientIDWeb     string `yaml:"client_id_web"`
	ClientIDConsole string `yaml:"client_id_console"`
	TopicEvents     string `yaml:"topic_events"`
	TopicTriggers   string `yaml:"topic_triggers"`
}

type NATSConfig struct {
	URL     string `yaml:"url"` // empty disables NATS
	Subject string `yaml:"subject"`
}

type WebConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics listener
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through Get().
//   - configOnce makes InitGlobal() idempotent.
//   - configMu guards globalConfig; readers take the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Session: SessionConfig{
			Samples:    60,
			DeadbandLo: 0.1,
			DeadbandHi: 0.9,
			Threshold:  100,
		},
		Source: SourceConfig{
			Kind:      SourceMPU9250,
			RateHz:    20,
			SPIDevice: "/dev/spidev0.0",
			CSPin:     "8",
			GyroRange: 1,
			BaudRate:  115200,
		},
		MQTT: MQTTConfig{
			ClientIDLock:    "gesture-lock",
			ClientIDWeb:     "gesture-lock-web",
			ClientIDConsole: "gesture-lock-console",
			TopicEvents:     "gesture/events",
			TopicTriggers:   "gesture/triggers",
		},
		NATS: NATSConfig{
			Subject: "gesture.events",
		},
		Web: WebConfig{
			Port:      8080,
			StaticDir: "web",
		},
	}
}

// Load reads the YAML configuration file and overlays it on Default().
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes on top of Default().
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks that values are usable together.
func (c *Config) validate() error {
	s := c.Session
	if s.Samples <= 0 {
		return fmt.Errorf("session.samples must be positive, got %d", s.Samples)
	}
	if s.DeadbandLo >= s.DeadbandHi {
		return fmt.Errorf("session.deadband_lo (%g) must be below session.deadband_hi (%g)", s.DeadbandLo, s.DeadbandHi)
	}
	if s.Threshold < 0 {
		return fmt.Errorf("session.threshold must not be negative, got %g", s.Threshold)
	}

	src := c.Source
	if src.RateHz < 0 {
		return fmt.Errorf("source.rate_hz must not be negative, got %d", src.RateHz)
	}
	switch src.Kind {
	case SourceMPU9250:
		if src.SPIDevice == "" {
			return fmt.Errorf("source.spi_device is required for kind %q", src.Kind)
		}
		if src.CSPin == "" {
			return fmt.Errorf("source.cs_pin is required for kind %q", src.Kind)
		}
		if src.GyroRange > 3 {
			return fmt.Errorf("source.gyro_range must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", src.GyroRange)
		}
		if src.DataReadyPin == "" && src.RateHz == 0 {
			return fmt.Errorf("source.rate_hz is required when source.data_ready_pin is unset")
		}
	case SourceNMEA:
		if src.SerialPort == "" {
			return fmt.Errorf("source.serial_port is required for kind %q", src.Kind)
		}
		if src.BaudRate <= 0 {
			return fmt.Errorf("source.baud_rate is required for kind %q", src.Kind)
		}
	case SourceReplay:
		if src.ReplayFile == "" {
			return fmt.Errorf("source.replay_file is required for kind %q", src.Kind)
		}
	default:
		return fmt.Errorf("unknown source.kind %q", src.Kind)
	}

	if c.MQTT.Broker != "" && (c.MQTT.TopicEvents == "" || c.MQTT.TopicTriggers == "") {
		return fmt.Errorf("mqtt.topic_events and mqtt.topic_triggers are required with mqtt.broker")
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required with nats.url")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once so only the first call loads; later calls return nil.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
