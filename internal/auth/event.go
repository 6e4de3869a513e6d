// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package auth

import (
	"fmt"
	"time"
)

// State is where the lock is in its enroll/verify lifecycle.
type State int

const (
	Idle      State = iota // no template yet
	Enrolling              // recording the password gesture
	Locked                 // template captured, waiting for an attempt
	Verifying              // recording an unlock attempt
)

var stateNames = [...]string{"idle", "enrolling", "locked", "verifying"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Trigger is an external request to start a session.
type Trigger int

const (
	TriggerEnroll Trigger = iota + 1
	TriggerVerify
	// TriggerPress is the single user button: enroll first, verify afterwards.
	TriggerPress
)

func (t Trigger) String() string {
	switch t {
	case TriggerEnroll:
		return "enroll"
	case TriggerVerify:
		return "verify"
	case TriggerPress:
		return "press"
	default:
		return "unknown"
	}
}

// ParseTrigger reads a trigger name as sent over MQTT or HTTP.
func ParseTrigger(s string) (Trigger, error) {
	switch s {
	case "enroll":
		return TriggerEnroll, nil
	case "verify":
		return TriggerVerify, nil
	case "press":
		return TriggerPress, nil
	default:
		return 0, fmt.Errorf("unknown trigger %q", s)
	}
}

// EventKind names a state-machine notification.
type EventKind string

const (
	EventEnrollStart    EventKind = "enroll_start"
	EventEnrollProgress EventKind = "enroll_progress"
	EventTemplateReady  EventKind = "template_ready"
	EventVerifyStart    EventKind = "verify_start"
	EventVerifyProgress EventKind = "verify_progress"
	EventAccept         EventKind = "accept"
	EventReject         EventKind = "reject"
)

// Distances holds one DTW distance per axis, x y z.
type Distances [3]float64

// Event is what the lock tells its UI.
type Event struct {
	Kind      EventKind `json:"kind"`
	State     State     `json:"state"` // state after the event
	SessionID string    `json:"session_id,omitempty"`
	Sample    int       `json:"sample,omitempty"` // samples recorded so far
	Samples   int       `json:"samples"`          // samples per session
	Time      time.Time `json:"time"`

	// set on accept / reject
	Distances  *Distances `json:"distances,omitempty"`
	Degenerate bool       `json:"degenerate,omitempty"`
}

// Progress is the fraction of the session recorded, 0..1.
func (e Event) Progress() float64 {
	if e.Samples == 0 {
		return 0
	}
	return float64(e.Sample) / float64(e.Samples)
}

// Sink receives events. Notify is called on the sampling goroutine and
// must not block; slow sinks belong behind feedback.Async.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Notify(e Event) { f(e) }
