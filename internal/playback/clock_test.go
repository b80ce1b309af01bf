package playback

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestClock(duration float64) (*Clock, *fakeNow) {
	fn := &fakeNow{t: time.Unix(1000, 0)}
	c := NewClock(duration)
	c.now = fn.now
	return c, fn
}

func TestClock_SeekClamps(t *testing.T) {
	c, _ := newTestClock(60)
	c.Seek(30)
	assert.Equal(t, 30.0, c.Position())
	c.Seek(90)
	assert.Equal(t, 60.0, c.Position())
	c.Seek(-5)
	assert.Equal(t, 0.0, c.Position())
	c.Seek(math.NaN())
	assert.Equal(t, 0.0, c.Position())
}

func TestClock_PlayAdvancesAndStopsAtEnd(t *testing.T) {
	c, now := newTestClock(10)
	c.Seek(4)
	c.TogglePlay()
	now.advance(3 * time.Second)
	assert.InDelta(t, 7.0, c.Position(), 1e-9)
	assert.True(t, c.Playing())

	now.advance(10 * time.Second)
	assert.Equal(t, 10.0, c.Position())
	assert.False(t, c.Playing())

	// Play at the end restarts from zero.
	c.TogglePlay()
	now.advance(time.Second)
	assert.InDelta(t, 1.0, c.Position(), 1e-9)
}

func TestClock_PauseFreezes(t *testing.T) {
	c, now := newTestClock(100)
	c.TogglePlay()
	now.advance(2 * time.Second)
	c.TogglePlay()
	now.advance(5 * time.Second)
	assert.InDelta(t, 2.0, c.State().Position, 1e-9)
	assert.False(t, c.State().Playing)
}

func TestClock_SeekWhilePlaying(t *testing.T) {
	c, now := newTestClock(100)
	c.TogglePlay()
	now.advance(2 * time.Second)
	c.Seek(50)
	now.advance(time.Second)
	assert.InDelta(t, 51.0, c.Position(), 1e-9)
}

func TestClock_SetDuration(t *testing.T) {
	c, _ := newTestClock(0)
	c.Seek(500)
	assert.Equal(t, 500.0, c.Position(), "unknown duration does not clamp")
	c.SetDuration(120)
	assert.Equal(t, 120.0, c.Position())
	assert.Equal(t, 120.0, c.State().Duration)
}
