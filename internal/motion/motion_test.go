package motion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var band = Deadband{Lo: 0.45, Hi: 0.55}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, RestLevel, Sigmoid(0))
	assert.InDelta(t, 0.7310585786, Sigmoid(1), 1e-9)
	assert.InDelta(t, 1-Sigmoid(2), Sigmoid(-2), 1e-15)

	// bounded and monotone, also for spikes
	prev := 0.0
	for _, v := range []float64{-1e6, -40, -3, -0.1, 0, 0.1, 3, 40, 1e6} {
		s := Sigmoid(v)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([3]float64{0, 1, -1})
	assert.Equal(t, [3]float64{Sigmoid(0), Sigmoid(1), Sigmoid(-1)}, got)
}

func TestBufferCapacity(t *testing.T) {
	b := NewBuffer(3)
	assert.Equal(t, 3, cap(b.values))
	assert.False(t, b.Full())

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Append(float64(i)))
	}
	assert.True(t, b.Full())
	assert.ErrorIs(t, b.Append(9), ErrBufferFull)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []float64{0, 1, 2}, b.values)

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.False(t, b.Full())
	assert.Equal(t, 3, cap(b.values))
}

func TestSegmentCutsGestureWindow(t *testing.T) {
	// rest, gesture, one rest sample, active tail
	values := []float64{0.5, 0.5, 0.6, 0.65, 0.7, 0.68, 0.6, 0.5, 0.9, 0.9}
	seg := Segmenter{Deadband: band}.Segment(values)

	assert.True(t, seg.Active)
	assert.Equal(t, 2, seg.Start)
	assert.Equal(t, 7, seg.End)
	assert.Equal(t, []float64{0.6, 0.65, 0.7, 0.68, 0.6}, seg.Values)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, seg.Indices)
}

func TestSegmentKeepsTrailingRestUpToLastSample(t *testing.T) {
	// the backward scan stops on the last sample when it is already at rest
	values := []float64{0.5, 0.7, 0.7, 0.5, 0.5}
	seg := Segmenter{Deadband: band}.Segment(values)

	assert.Equal(t, 1, seg.Start)
	assert.Equal(t, 4, seg.End)
	assert.Equal(t, []float64{0.7, 0.7, 0.5}, seg.Values)
}

func TestSegmentAllRest(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 0.5
	}
	seg := Segmenter{Deadband: band}.Segment(values)

	assert.False(t, seg.Active)
	assert.Equal(t, 0, seg.Start, "start defaults to 0")
	assert.Equal(t, 59, seg.End)
	assert.Equal(t, 59, seg.Len())
}

func TestSegmentAllActive(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 0.95
	}
	seg := Segmenter{Deadband: band}.Segment(values)

	assert.True(t, seg.Active)
	assert.Equal(t, 0, seg.Start)
	assert.Equal(t, 59, seg.End, "end defaults to N-1")
	assert.Equal(t, 59, seg.Len())
}

func TestSegmentCollapsedWindowIsEmpty(t *testing.T) {
	// gesture only at the very end: end (last rest) lands before start
	values := []float64{0.5, 0.5, 0.5, 0.9, 0.9}
	seg := Segmenter{Deadband: band}.Segment(values)

	assert.Equal(t, 3, seg.Start)
	assert.Equal(t, 2, seg.End)
	assert.True(t, seg.Empty())
	assert.NotNil(t, seg.Values)
	assert.Empty(t, seg.Points())
}

func TestSegmentBackwardScanSkipsIndexZero(t *testing.T) {
	values := []float64{0.5, 0.9, 0.9, 0.9}
	start, end, found := Segmenter{Deadband: band}.Bounds(values)

	assert.True(t, found)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end, "index 0 is never a backward-scan hit")
}

func TestSegmentEdgesCountAsBoth(t *testing.T) {
	values := []float64{0.45, 0.5, 0.55}
	start, end, found := Segmenter{Deadband: band}.Bounds(values)

	assert.True(t, found)
	assert.Equal(t, 0, start, "lower edge is active")
	assert.Equal(t, 2, end, "upper edge is rest")
}

func TestSegmentDegenerateInputs(t *testing.T) {
	s := Segmenter{Deadband: band}
	assert.True(t, s.Segment(nil).Empty())
	assert.True(t, s.Segment([]float64{0.9}).Empty())
}

func TestSegmentIndicesMatchPositions(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := Segmenter{Deadband: Deadband{Lo: 0.1, Hi: 0.9}}

	for trial := 0; trial < 500; trial++ {
		b := NewBuffer(60)
		for !b.Full() {
			require.NoError(t, b.Append(Sigmoid(rng.NormFloat64()*3)))
		}
		seg := s.SegmentBuffer(b)

		require.Equal(t, len(seg.Values), len(seg.Indices))
		for i, idx := range seg.Indices {
			require.Equal(t, float64(i), idx)
		}
		if !seg.Empty() {
			require.Equal(t, b.values[seg.Start:seg.End], seg.Values)
		}
		for _, p := range seg.Points() {
			require.Len(t, p, 2)
			require.False(t, math.IsNaN(p[0]))
		}
	}
}

func TestAxisString(t *testing.T) {
	assert.Equal(t, "x", AxisX.String())
	assert.Equal(t, "y", AxisY.String())
	assert.Equal(t, "z", AxisZ.String())
	assert.Equal(t, "unknown", Axis(7).String())
}
