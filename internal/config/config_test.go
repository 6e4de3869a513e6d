package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	assert.Equal(t, 60, cfg.Session.Samples)
	assert.Equal(t, 100.0, cfg.Session.Threshold)
	assert.InDelta(t, 0.1, cfg.Session.DeadbandLo, 1e-12)
	assert.InDelta(t, 0.9, cfg.Session.DeadbandHi, 1e-12)
	assert.Equal(t, 20, cfg.Source.RateHz)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
session:
  samples: 40
  threshold: 75.5
source:
  kind: replay
  replay_file: testdata/wave.yaml
mqtt:
  broker: tcp://localhost:1883
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 40, cfg.Session.Samples)
	assert.Equal(t, 75.5, cfg.Session.Threshold)
	// untouched keys keep their defaults
	assert.InDelta(t, 0.1, cfg.Session.DeadbandLo, 1e-12)
	assert.Equal(t, "gesture/events", cfg.MQTT.TopicEvents)
	assert.Equal(t, SourceReplay, cfg.Source.Kind)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero samples", "session: {samples: 0}"},
		{"inverted deadband", "session: {deadband_lo: 0.7, deadband_hi: 0.3}"},
		{"negative threshold", "session: {threshold: -1}"},
		{"unknown source", "source: {kind: carrier-pigeon}"},
		{"gyro range", "source: {gyro_range: 4}"},
		{"replay without file", "source: {kind: replay}"},
		{"nmea without port", "source: {kind: nmea}"},
		{"unpaced mpu9250", "source: {rate_hz: 0}"},
		{"nats without subject", "nats: {url: nats://localhost:4222, subject: \"\"}"},
		{"malformed", "session: [1, 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestInitGlobal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gesture_lock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session: {samples: 12}\n"), 0o644))

	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, 12, Get().Session.Samples)

	// later calls are no-ops
	require.NoError(t, InitGlobal(filepath.Join(t.TempDir(), "other.yaml")))
	assert.Equal(t, 12, Get().Session.Samples)
}
