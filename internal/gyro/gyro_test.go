package gyro

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaySourceKeepsOrderAndEnds(t *testing.T) {
	frames := []Frame{{1, 2, 3}, {4, 5, 6}, {-1, 0, 0.5}}
	src := NewReplaySource(NewRecording(0, frames))
	ctx := context.Background()

	for i, want := range frames {
		got, err := src.Next(ctx)
		require.NoError(t, err, "frame %d", i)
		assert.Equal(t, want, got)
	}
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, ErrEndOfRecording)
}

func TestReplaySourcePacedHonoursContext(t *testing.T) {
	src := NewReplaySource(NewRecording(1, []Frame{{1, 1, 1}}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordingSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wave.yaml")
	rec := NewRecording(20, []Frame{{0.1, -0.2, 3}, {0, 0, 0}})
	require.NoError(t, rec.Save(path))

	got, err := LoadRecording(path)
	require.NoError(t, err)
	assert.Equal(t, 20, got.RateHz)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, Frame{0.1, -0.2, 3}, got.Frame(0))
}

func sentence(body string) string {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", body, cs)
}

func TestParseLine(t *testing.T) {
	f, ok, err := ParseLine(sentence("GYGYR,0.125,-1.5,2"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Frame{X: 0.125, Y: -1.5, Z: 2}, f)
}

func TestParseLineSkipsNoise(t *testing.T) {
	for _, line := range []string{"", "   \r\n", "garbage", "GYGYR,1,2,3"} {
		_, ok, err := ParseLine(line)
		assert.NoError(t, err, "line %q", line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestParseLineBadChecksum(t *testing.T) {
	_, ok, err := ParseLine("$GYGYR,1,2,3*00")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestParseLineBadField(t *testing.T) {
	_, ok, err := ParseLine(sentence("GYGYR,1,abc,3"))
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestParseLineRejectsNonFinite(t *testing.T) {
	for _, body := range []string{"GYGYR,NaN,0,0", "GYGYR,0,Inf,0", "GYGYR,0,0,-Inf"} {
		_, ok, err := ParseLine(sentence(body))
		assert.ErrorIs(t, err, ErrNonFinite, body)
		assert.False(t, ok, body)
	}
}

func TestLoadRecordingRejectsNonFinite(t *testing.T) {
	for _, frame := range []string{"[0, .nan, 0]", "[.inf, 0, 0]"} {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		data := fmt.Sprintf("rate_hz: 20\nframes: [[0, 0, 0], %s]\n", frame)
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		_, err := LoadRecording(path)
		assert.ErrorIs(t, err, ErrNonFinite, frame)
	}
}

func TestFrameFinite(t *testing.T) {
	assert.True(t, Frame{1, -2, 0}.Finite())
	assert.False(t, Frame{Z: math.NaN()}.Finite())
	assert.False(t, Frame{X: math.Inf(-1)}.Finite())
}
