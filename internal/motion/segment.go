// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

// Deadband is the band of normalized values treated as rest. Both edges
// are inclusive for rest and for activity alike, so a sample sitting
// exactly on an edge counts as either.
type Deadband struct {
	Lo float64
	Hi float64
}

// DefaultDeadband is ±0.4 around RestLevel.
var DefaultDeadband = Deadband{Lo: 0.1, Hi: 0.9}

// Active reports whether v is outside (or on the edge of) the band.
func (d Deadband) Active(v float64) bool { return v <= d.Lo || v >= d.Hi }

// Rest reports whether v is inside (or on the edge of) the band.
func (d Deadband) Rest(v float64) bool { return v >= d.Lo && v <= d.Hi }

// Segment is the gesture window of one axis as a 2-D point sequence:
// point i is (Values[i], Indices[i]) with Indices[i] == i.
type Segment struct {
	Values  []float64 `json:"values"`
	Indices []float64 `json:"indices"`

	// Start and End are the buffer bounds the window was cut at, End exclusive.
	Start int `json:"start"`
	End   int `json:"end"`

	// Active is false when no sample ever left the deadband.
	Active bool `json:"active"`
}

// Len is the number of points.
func (s Segment) Len() int { return len(s.Values) }

// Empty reports whether the window collapsed.
func (s Segment) Empty() bool { return len(s.Values) == 0 }

// Points returns the segment as (value, index) vectors.
func (s Segment) Points() [][]float64 {
	pts := make([][]float64, len(s.Values))
	for i := range s.Values {
		pts[i] = []float64{s.Values[i], s.Indices[i]}
	}
	return pts
}

// Segmenter cuts the gesture out of a filled buffer.
type Segmenter struct {
	Deadband Deadband
}

// Bounds finds the window over values:
//   - start is the first active sample scanning forward, 0 if none;
//   - end is the first rest sample scanning backward from the last index
//     down to index 1, len-1 if none.
//
// found reports whether the forward scan hit an active sample.
func (s Segmenter) Bounds(values []float64) (start, end int, found bool) {
	n := len(values)
	end = n - 1
	for i := 0; i < n; i++ {
		if s.Deadband.Active(values[i]) {
			start, found = i, true
			break
		}
	}
	for i := n - 1; i > 0; i-- {
		if s.Deadband.Rest(values[i]) {
			end = i
			break
		}
	}
	return start, end, found
}

// Segment cuts values[start:end) and indexes it. A collapsed window
// (start >= end) yields an empty segment. Segment never fails.
func (s Segmenter) Segment(values []float64) Segment {
	start, end, found := s.Bounds(values)
	seg := Segment{Start: start, End: end, Active: found}
	if start >= end {
		seg.Values = []float64{}
		seg.Indices = []float64{}
		return seg
	}
	seg.Values = make([]float64, end-start)
	copy(seg.Values, values[start:end])
	seg.Indices = make([]float64, len(seg.Values))
	for i := range seg.Indices {
		seg.Indices[i] = float64(i)
	}
	return seg
}

// SegmentBuffer segments a buffer's current contents.
func (s Segmenter) SegmentBuffer(b *Buffer) Segment {
	return s.Segment(b.values)
}
