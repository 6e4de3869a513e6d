// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "errors"

// ErrBufferFull is returned when appending to a buffer at capacity.
var ErrBufferFull = errors.New("motion: buffer full")

// Buffer accumulates normalized samples for one axis of one session.
// Its length never exceeds its capacity; index order is time order.
type Buffer struct {
	values []float64
}

// NewBuffer returns an empty buffer holding at most capacity samples.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{values: make([]float64, 0, capacity)}
}

// Append adds v, or returns ErrBufferFull.
func (b *Buffer) Append(v float64) error {
	if b.Full() {
		return ErrBufferFull
	}
	b.values = append(b.values, v)
	return nil
}

func (b *Buffer) Len() int { return len(b.values) }

// Full reports whether the buffer is at capacity.
func (b *Buffer) Full() bool { return len(b.values) == cap(b.values) }

// Reset empties the buffer, keeping its capacity.
func (b *Buffer) Reset() { b.values = b.values[:0] }
