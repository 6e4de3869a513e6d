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
	"github.com/relabs-tech/gesture_lock/internal/gyro"
)

// Record captures n frames from src. A source that runs out early yields
// the frames read so far together with the error.
func Record(ctx context.Context, src gyro.Source, n, rateHz int, log *zap.SugaredLogger) (*gyro.Recording, error) {
	frames := make([]gyro.Frame, 0, n)
	for len(frames) < n {
		f, err := src.Next(ctx)
		if err != nil {
			return gyro.NewRecording(rateHz, frames), fmt.Errorf("record: after %d of %d frames: %w", len(frames), n, err)
		}
		frames = append(frames, f)
		if len(frames)%rateOrTen(rateHz) == 0 {
			log.Infof("record: %d/%d frames", len(frames), n)
		}
	}
	return gyro.NewRecording(rateHz, frames), nil
}

func rateOrTen(rateHz int) int {
	if rateHz > 0 {
		return rateHz
	}
	return 10
}

// ErrShortRecording is returned by Compare when a recording holds fewer
// frames than one session needs.
var ErrShortRecording = errors.New("recording shorter than one session")

// Compare runs an enrollment over the first session's worth of enroll
// and a verification over entry, offline, and returns the decision event.
func Compare(enroll, entry *gyro.Recording, s auth.Settings, log *zap.SugaredLogger) (auth.Event, error) {
	for name, rec := range map[string]*gyro.Recording{"enroll": enroll, "entry": entry} {
		if rec.Len() < s.Samples {
			return auth.Event{}, fmt.Errorf("%s: %d frames, need %d: %w", name, rec.Len(), s.Samples, ErrShortRecording)
		}
	}

	var last auth.Event
	m := auth.NewMachine(s, auth.SinkFunc(func(e auth.Event) { last = e }), log)

	m.StartEnrollment()
	for i := 0; m.State() == auth.Enrolling; i++ {
		m.Tick(enroll.Frame(i))
	}
	m.StartVerification()
	for i := 0; m.State() == auth.Verifying; i++ {
		m.Tick(entry.Frame(i))
	}
	return last, nil
}
