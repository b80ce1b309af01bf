package timeline

import "math"

const (
	// BaseMarkerInterval is the ruler spacing in seconds at zoom 1.
	BaseMarkerInterval = 10.0

	MinZoom  = 1.0
	MaxZoom  = 5.0
	ZoomStep = 0.5
)

// Marker is one tick of the time ruler.
type Marker struct {
	Time     float64 `json:"time"`
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// PlayheadPercent is the playhead position in percent of the duration.
func PlayheadPercent(currentTime, duration float64) float64 {
	if !finite(currentTime) || currentTime < 0 {
		return 0
	}
	return TimeToPercent(currentTime, duration)
}

// Markers returns ruler ticks every BaseMarkerInterval/zoom seconds from 0
// through duration inclusive.
func Markers(duration, zoom float64) []Marker {
	return MarkersWithInterval(duration, zoom, BaseMarkerInterval)
}

// MarkersWithInterval is Markers with a configurable base interval.
func MarkersWithInterval(duration, zoom, base float64) []Marker {
	if !finite(duration) || duration <= 0 {
		return nil
	}
	if !finite(zoom) || zoom <= 0 {
		zoom = MinZoom
	}
	if !finite(base) || base <= 0 {
		base = BaseMarkerInterval
	}
	interval := base / zoom
	count := int(math.Floor(duration / interval))

	markers := make([]Marker, 0, count+1)
	for i := 0; i <= count; i++ {
		t := float64(i) * interval
		if t > duration {
			break
		}
		markers = append(markers, Marker{
			Time:     t,
			Position: t / duration * 100,
			Label:    FormatTime(t),
		})
	}
	return markers
}

// MarkerCache recomputes markers only when duration, zoom or the base
// interval change.
type MarkerCache struct {
	duration, zoom, base float64
	markers              []Marker
	valid                bool
}

func (c *MarkerCache) Markers(duration, zoom, base float64) []Marker {
	if c.valid && c.duration == duration && c.zoom == zoom && c.base == base {
		return c.markers
	}
	c.duration, c.zoom, c.base = duration, zoom, base
	c.markers = MarkersWithInterval(duration, zoom, base)
	c.valid = true
	return c.markers
}

// Zoom is the ruler zoom level in [MinZoom, MaxZoom]. It changes marker
// density only.
type Zoom struct {
	level float64
}

func NewZoom() Zoom {
	return Zoom{level: MinZoom}
}

func (z Zoom) Level() float64 {
	if z.level < MinZoom {
		return MinZoom
	}
	return z.level
}

func (z Zoom) CanZoomIn() bool  { return z.Level() < MaxZoom }
func (z Zoom) CanZoomOut() bool { return z.Level() > MinZoom }

func (z *Zoom) In() {
	z.level = math.Min(MaxZoom, z.Level()+ZoomStep)
}

func (z *Zoom) Out() {
	z.level = math.Max(MinZoom, z.Level()-ZoomStep)
}

// Set clamps level into range.
func (z *Zoom) Set(level float64) {
	if !finite(level) {
		level = MinZoom
	}
	z.level = clamp(level, MinZoom, MaxZoom)
}
