package sensors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountsToRadPerSec(t *testing.T) {
	// 10 °/s worth of counts on every range
	for r, fs := range gyroFullScale {
		got := CountsToRadPerSec(int16(math.Round(gyroSensitivity[r] * 10)), byte(r))
		assert.InDelta(t, 10*math.Pi/180, got, 1e-9, "range %d (±%d°/s)", r, fs)
	}

	assert.Equal(t, 0.0, CountsToRadPerSec(0, 1))
	assert.Less(t, CountsToRadPerSec(-655, 1), 0.0)
	assert.InDelta(t, CountsToRadPerSec(131, 0), CountsToRadPerSec(131, 9), 1e-12, "out-of-range setting falls back to ±250°/s")
}
