// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/gesture_lock/internal/dtw"
	"github.com/relabs-tech/gesture_lock/internal/motion"
)

// Session is one N-sample recording, for enrollment or verification.
type Session struct {
	ID      string
	Mode    State // Enrolling or Verifying
	Started time.Time

	buffers [3]*motion.Buffer
}

// newSession starts a recording on buffers, emptying them first.
func newSession(mode State, buffers [3]*motion.Buffer, now time.Time) *Session {
	for _, b := range buffers {
		b.Reset()
	}
	return &Session{ID: uuid.NewString(), Mode: mode, Started: now, buffers: buffers}
}

// Count is the number of samples recorded so far.
func (s *Session) Count() int { return s.buffers[motion.AxisX].Len() }

// Full reports whether every axis buffer is full.
func (s *Session) Full() bool {
	for _, b := range s.buffers {
		if !b.Full() {
			return false
		}
	}
	return true
}

// record appends one normalized sample per axis.
func (s *Session) record(normalized [3]float64) error {
	for i, b := range s.buffers {
		if err := b.Append(normalized[i]); err != nil {
			return err
		}
	}
	return nil
}

// segments cuts the gesture window out of every axis.
func (s *Session) segments(seg motion.Segmenter) [3]motion.Segment {
	var out [3]motion.Segment
	for i, b := range s.buffers {
		out[i] = seg.SegmentBuffer(b)
	}
	return out
}

// Template is the enrolled gesture, one segment per axis.
type Template struct {
	Axes     [3]motion.Segment
	Enrolled time.Time

	points [3][][]float64
}

func newTemplate(axes [3]motion.Segment, now time.Time) *Template {
	t := &Template{Axes: axes, Enrolled: now}
	for i, s := range axes {
		t.points[i] = s.Points()
	}
	return t
}

// Compare aligns an entry against the template, axis by axis.
func (t *Template) Compare(entry [3]motion.Segment) Distances {
	var d Distances
	for i, s := range entry {
		d[i] = dtw.Distance(s.Points(), t.points[i])
	}
	return d
}
