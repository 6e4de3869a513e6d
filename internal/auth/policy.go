// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package auth

import "github.com/relabs-tech/gesture_lock/internal/motion"

// DefaultThreshold is the per-axis accept threshold found by trial.
const DefaultThreshold = 100

// Policy accepts an attempt only when every axis is within Threshold.
type Policy struct {
	Threshold float64
}

// Decision is the outcome of one verification attempt.
type Decision struct {
	Accepted   bool
	Distances  Distances
	Degenerate bool // no axis ever left the deadband
}

// Decide applies the policy. An entry with no motion on any axis is
// rejected whatever its distances, and so is any distance that is not a
// number.
func (p Policy) Decide(d Distances, entry [3]motion.Segment) Decision {
	dec := Decision{Distances: d, Degenerate: true}
	for _, s := range entry {
		if s.Active {
			dec.Degenerate = false
			break
		}
	}
	if dec.Degenerate {
		return dec
	}

	dec.Accepted = true
	for _, v := range d {
		// NaN fails this comparison and rejects
		if !(v <= p.Threshold) {
			dec.Accepted = false
			break
		}
	}
	return dec
}
