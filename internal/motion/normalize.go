// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion turns raw angular rates into the bounded, segmented point
// sequences the aligner compares.
package motion

import "math"

// RestLevel is the sigmoid output for a sensor at rest (zero rate).
const RestLevel = 0.5

// Sigmoid maps one raw sample into (0, 1).
func Sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// Normalize applies Sigmoid to each axis.
func Normalize(axes [3]float64) [3]float64 {
	return [3]float64{Sigmoid(axes[0]), Sigmoid(axes[1]), Sigmoid(axes[2])}
}

// Axis names a gyro axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists all three axes in frame order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}
