package timeline

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToPercent_Boundaries(t *testing.T) {
	assert.Equal(t, 0.0, TimeToPercent(0, 120))
	assert.Equal(t, 100.0, TimeToPercent(120, 120))
	assert.Equal(t, 50.0, TimeToPercent(60, 120))

	for _, d := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		assert.Equal(t, 0.0, TimeToPercent(42, d), "duration %v", d)
	}
	assert.Equal(t, 0.0, TimeToPercent(math.NaN(), 10))
	assert.Equal(t, 0.0, TimeToPercent(math.Inf(1), 10))
	assert.Equal(t, 100.0, TimeToPercent(500, 10))
	assert.Equal(t, 0.0, TimeToPercent(-3, 10))
}

func TestPixelToTime(t *testing.T) {
	assert.InDelta(t, 5.0, PixelToTime(50, 1000, 100), 1e-9)
	assert.Equal(t, 0.0, PixelToTime(50, 0, 100))
	assert.Equal(t, 0.0, PixelToTime(math.NaN(), 1000, 100))
	assert.InDelta(t, 50.0, TimeToPixel(5, 1000, 100), 1e-9)
}

func TestSegmentGeometry(t *testing.T) {
	pos, err := SegmentPosition(25, 100)
	require.NoError(t, err)
	assert.Equal(t, 25.0, pos)

	width, err := SegmentWidth(10, 30, 100)
	require.NoError(t, err)
	assert.Equal(t, 20.0, width)

	_, err = SegmentWidth(30, 30, 100)
	assert.True(t, errors.Is(err, ErrInvalidGeometry))

	pos, err = SegmentPosition(-1, 100)
	assert.True(t, errors.Is(err, ErrInvalidGeometry))
	assert.Equal(t, 0.0, pos)
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{59.9, "00:59"},
		{61, "01:01"},
		{3600, "60:00"},
		{-1, "00:00"},
		{math.NaN(), "00:00"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatTime(tc.in), "FormatTime(%v)", tc.in)
	}
}

func TestSegmentClamp(t *testing.T) {
	s := Segment{ID: 1, Start: -5, End: 150}.Clamp(100)
	assert.Equal(t, 0.0, s.Start)
	assert.Equal(t, 100.0, s.End)

	s = Segment{ID: 1, Start: 30, End: 10}.Clamp(100)
	assert.Equal(t, 10.0, s.Start)
	assert.Equal(t, 30.0, s.End)

	s = Segment{ID: 1, Start: math.NaN(), End: 4}.Clamp(0)
	assert.Equal(t, 0.0, s.Start)
	assert.Equal(t, 4.0, s.End)
}
