package playback

import (
	"math"
	"sync"
	"time"
)

// ClockState is a snapshot of a Clock.
type ClockState struct {
	Position float64 `json:"current_time"`
	Duration float64 `json:"duration"`
	Playing  bool    `json:"playing"`
}

// Clock is a media position that advances in real time while playing. It
// stands in for a video element where no player is attached, such as the
// terminal editor or the HTTP API, and implements the timeline's playback
// controller.
type Clock struct {
	mu       sync.Mutex
	duration float64
	base     float64
	playing  bool
	since    time.Time
	now      func() time.Time
}

func NewClock(duration float64) *Clock {
	return &Clock{duration: sanitize(duration), now: time.Now}
}

// Seek moves to seconds, clamped into the media.
func (c *Clock) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.clamp(seconds)
	c.since = c.now()
}

// TogglePlay starts or pauses playback. Starting at the end rewinds first.
func (c *Clock) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		c.base = c.positionLocked()
		c.playing = false
		return
	}
	if c.duration > 0 && c.base >= c.duration {
		c.base = 0
	}
	c.playing = true
	c.since = c.now()
}

// Position is the current time in seconds. Reaching the end pauses.
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positionLocked()
	return c.playing
}

func (c *Clock) SetDuration(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.positionLocked()
	c.since = c.now()
	c.duration = sanitize(seconds)
	c.base = c.clamp(c.base)
}

func (c *Clock) State() ClockState {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos := c.positionLocked()
	return ClockState{Position: pos, Duration: c.duration, Playing: c.playing}
}

func (c *Clock) positionLocked() float64 {
	if !c.playing {
		return c.base
	}
	pos := c.base + c.now().Sub(c.since).Seconds()
	if c.duration > 0 && pos >= c.duration {
		c.base = c.duration
		c.playing = false
		return c.duration
	}
	return pos
}

func (c *Clock) clamp(seconds float64) float64 {
	seconds = sanitize(seconds)
	if c.duration > 0 {
		seconds = math.Min(seconds, c.duration)
	}
	return seconds
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
