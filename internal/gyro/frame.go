// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gyro

import (
	"context"
	"errors"
	"math"
)

// Frame is a single 3-axis angular-rate sample, in rad/s.
type Frame struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Axes returns the frame as an x, y, z array.
func (f Frame) Axes() [3]float64 {
	return [3]float64{f.X, f.Y, f.Z}
}

// Finite reports whether every axis is a finite number.
func (f Frame) Finite() bool {
	for _, v := range f.Axes() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ErrNonFinite is returned for frames carrying NaN or infinite rates.
var ErrNonFinite = errors.New("gyro: non-finite rate")

// Source is anything that delivers frames at the sensor's cadence.
// Next blocks until the next frame is ready; frames are never reordered
// and never partial.
type Source interface {
	Next(ctx context.Context) (Frame, error)
}

// ErrEndOfRecording is returned by finite sources once exhausted.
var ErrEndOfRecording = errors.New("gyro: end of recording")
