package timeline

import (
	"fmt"
	"math"
)

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// TimeToPercent maps a time to its position on the track as a percentage of
// the total duration, clamped to [0, 100]. Any degenerate input maps to 0.
func TimeToPercent(t, duration float64) float64 {
	if !finite(duration) || duration <= 0 || !finite(t) {
		return 0
	}
	p := t / duration * 100
	if !finite(p) {
		return 0
	}
	return clamp(p, 0, 100)
}

// PercentToTime is the inverse of TimeToPercent.
func PercentToTime(p, duration float64) float64 {
	if !finite(duration) || duration <= 0 || !finite(p) {
		return 0
	}
	return p / 100 * duration
}

// PixelToTime converts a pixel offset on a track of trackWidth pixels to
// seconds.
func PixelToTime(px, trackWidth, duration float64) float64 {
	if !finite(px) || !finite(trackWidth) || trackWidth <= 0 || !finite(duration) || duration <= 0 {
		return 0
	}
	return px / trackWidth * duration
}

// TimeToPixel converts seconds to a pixel offset on a track of trackWidth
// pixels.
func TimeToPixel(t, trackWidth, duration float64) float64 {
	if !finite(trackWidth) || trackWidth <= 0 {
		return 0
	}
	return TimeToPercent(t, duration) / 100 * trackWidth
}

// SegmentPosition returns the left edge of a segment in percent of the
// duration. Zoom never enters here: segment geometry is always relative to
// the whole track.
func SegmentPosition(start, duration float64) (float64, error) {
	if !finite(start) || !finite(duration) || duration <= 0 {
		return 0, fmt.Errorf("position of start=%v duration=%v: %w", start, duration, ErrInvalidGeometry)
	}
	p := start / duration * 100
	if !finite(p) || p < 0 {
		return 0, fmt.Errorf("position %v: %w", p, ErrInvalidGeometry)
	}
	return p, nil
}

// SegmentWidth returns the width of a segment in percent of the duration.
func SegmentWidth(start, end, duration float64) (float64, error) {
	if !finite(start) || !finite(end) || !finite(duration) || duration <= 0 || end <= start {
		return 0, fmt.Errorf("width of [%v, %v] duration=%v: %w", start, end, duration, ErrInvalidGeometry)
	}
	w := (end - start) / duration * 100
	if !finite(w) || w <= 0 {
		return 0, fmt.Errorf("width %v: %w", w, ErrInvalidGeometry)
	}
	return w, nil
}

// FormatTime renders seconds as MM:SS. Invalid or negative input renders as
// 00:00.
func FormatTime(seconds float64) string {
	if !finite(seconds) || seconds < 0 {
		return "00:00"
	}
	mins := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%02d:%02d", mins, secs)
}
