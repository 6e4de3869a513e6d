// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gyro

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Recording is a captured run of raw frames, used for replay and for
// tuning the deadband and threshold offline.
type Recording struct {
	RateHz int          `yaml:"rate_hz"`
	Frames [][3]float64 `yaml:"frames,flow"`
}

// NewRecording builds a Recording from frames.
func NewRecording(rateHz int, frames []Frame) *Recording {
	r := &Recording{RateHz: rateHz, Frames: make([][3]float64, len(frames))}
	for i, f := range frames {
		r.Frames[i] = f.Axes()
	}
	return r
}

// LoadRecording reads a YAML recording.
func LoadRecording(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recording: read %s: %w", path, err)
	}
	var r Recording
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("recording: parse %s: %w", path, err)
	}
	for i := range r.Frames {
		if !r.Frame(i).Finite() {
			return nil, fmt.Errorf("recording: %s frame %d: %w", path, i, ErrNonFinite)
		}
	}
	return &r, nil
}

// Save writes the recording as YAML.
func (r *Recording) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("recording: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("recording: write %s: %w", path, err)
	}
	return nil
}

// Frame returns frame i.
func (r *Recording) Frame(i int) Frame {
	v := r.Frames[i]
	return Frame{X: v[0], Y: v[1], Z: v[2]}
}

// Len is the number of frames.
func (r *Recording) Len() int { return len(r.Frames) }

type replaySource struct {
	rec    *Recording
	next   int
	ticker *time.Ticker
}

// NewReplaySource plays a recording back at its own rate. A zero rate
// replays as fast as Next is called.
func NewReplaySource(rec *Recording) Source {
	s := &replaySource{rec: rec}
	if rec.RateHz > 0 {
		s.ticker = time.NewTicker(time.Second / time.Duration(rec.RateHz))
	}
	return s
}

func (s *replaySource) Next(ctx context.Context) (Frame, error) {
	if s.next >= s.rec.Len() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		return Frame{}, ErrEndOfRecording
	}
	if s.ticker != nil {
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-s.ticker.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	f := s.rec.Frame(s.next)
	s.next++
	return f, nil
}
