// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/relabs-tech/gesture_lock/internal/auth"
	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/gyro"
	"github.com/relabs-tech/gesture_lock/internal/motion"
)

// maxReadErrors consecutive failed reads end the loop.
const maxReadErrors = 10

// Loop is the sampling loop: wait for a frame, apply pending triggers,
// feed the frame to the machine. It owns m for its lifetime.
//
// Loop returns nil when a finite source runs out and ctx.Err() when
// cancelled.
func Loop(ctx context.Context, src gyro.Source, triggers <-chan auth.Trigger, m *auth.Machine, log *zap.SugaredLogger) error {
	failures := 0
	for {
		f, err := src.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, gyro.ErrEndOfRecording):
			log.Info("source exhausted, stopping")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			failures++
			log.Warnf("gyro read error (%d/%d): %v", failures, maxReadErrors, err)
			if failures >= maxReadErrors {
				return fmt.Errorf("gyro: %d consecutive read errors: %w", failures, err)
			}
			continue
		}
		failures = 0

		drainTriggers(triggers, m)
		m.Tick(f)
	}
}

// drainTriggers applies every trigger already queued, without waiting.
func drainTriggers(triggers <-chan auth.Trigger, m *auth.Machine) {
	for {
		select {
		case t, ok := <-triggers:
			if !ok {
				return
			}
			m.Handle(t)
		default:
			return
		}
	}
}

// SettingsFromConfig maps the session section onto machine settings.
func SettingsFromConfig(c config.SessionConfig) auth.Settings {
	return auth.Settings{
		Samples:   c.Samples,
		Deadband:  motion.Deadband{Lo: c.DeadbandLo, Hi: c.DeadbandHi},
		Threshold: c.Threshold,
	}
}
