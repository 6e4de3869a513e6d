// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dtw computes Dynamic Time Warping distances between point
// sequences of any dimension.
package dtw

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sentinel is the distance reported when a comparison is meaningless
// (an empty sequence, points of different dimension, or a coordinate
// that is NaN or infinite). It is finite so
// it orders above every real distance and still prints.
const Sentinel = math.MaxFloat64

// Distance returns the DTW distance between a and b: the minimal
// cumulative Euclidean cost over all monotonic alignments, D[m][n] of
//
//	D[0][0] = 0, D[i][0] = D[0][j] = +Inf
//	D[i][j] = |a[i-1] - b[j-1]| + min(D[i-1][j], D[i][j-1], D[i-1][j-1])
//
// Only two rows of D are kept, sized by the shorter sequence, so memory
// is O(min(m, n)). Distance(a, b) == Distance(b, a) exactly.
func Distance(a, b [][]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return Sentinel
	}
	dim := len(a[0])
	if !wellFormed(a, dim) || !wellFormed(b, dim) {
		return Sentinel
	}

	// rows walk the longer sequence, columns the shorter one
	if len(b) > len(a) {
		a, b = b, a
	}
	n := len(b)

	prev := make([]float64, n+1)
	curr := make([]float64, n+1)
	for j := 1; j <= n; j++ {
		prev[j] = math.Inf(1)
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = math.Inf(1)
		for j := 1; j <= n; j++ {
			cost := floats.Distance(a[i-1], b[j-1], 2)
			curr[j] = cost + min3(prev[j], curr[j-1], prev[j-1])
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

// wellFormed reports whether every point has dim finite coordinates.
func wellFormed(pts [][]float64, dim int) bool {
	for _, p := range pts {
		if len(p) != dim {
			return false
		}
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func min3(a, b, c float64) float64 {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
