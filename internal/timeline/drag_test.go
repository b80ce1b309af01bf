package timeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(id int64) (*DragController, *recorder, *CaptureSurface) {
	rec := &recorder{}
	surface := &CaptureSurface{}
	c := NewDragController(id, surface, fixedTrack{width: 1000, duration: 100}, rec, quietLogger())
	return c, rec, surface
}

func TestDrag_PureTranslation(t *testing.T) {
	for _, dx := range []float64{-73, -10, 0, 12.5, 50, 333} {
		c, rec, _ := newController(7)
		geom := Geometry{Left: 400, Width: 100} // [40s, 50s]
		require.NoError(t, c.Begin(PointerEvent{X: 450}, HitBody, geom))
		c.Move(PointerEvent{X: 450 + dx/2})
		c.End(PointerEvent{X: 450 + dx})

		moves := rec.ofKind(KindSegmentMove)
		require.Len(t, moves, 1)
		mv := moves[0].(SegmentMove)
		delta := PixelToTime(dx, 1000, 100)
		assert.InDelta(t, delta, mv.Start-40, 1e-9, "dx=%v", dx)
		assert.InDelta(t, delta, mv.End-50, 1e-9, "dx=%v", dx)
	}
}

func TestDrag_ClampedToTrack(t *testing.T) {
	c, rec, _ := newController(7)
	require.NoError(t, c.Begin(PointerEvent{X: 950}, HitBody, Geometry{Left: 900, Width: 50}))
	c.End(PointerEvent{X: 2000})

	mv := rec.ofKind(KindSegmentMove)[0].(SegmentMove)
	assert.InDelta(t, 95.0, mv.Start, 1e-9)
	assert.InDelta(t, 100.0, mv.End, 1e-9)

	c, rec, _ = newController(7)
	require.NoError(t, c.Begin(PointerEvent{X: 120}, HitBody, Geometry{Left: 100, Width: 50}))
	c.End(PointerEvent{X: -500})
	mv = rec.ofKind(KindSegmentMove)[0].(SegmentMove)
	assert.InDelta(t, 0.0, mv.Start, 1e-9)
	assert.InDelta(t, 5.0, mv.End, 1e-9)
}

func TestResizeEnd_Floor(t *testing.T) {
	minWidthTime := PixelToTime(MinWidthPx, 1000, 100)
	for _, dx := range []float64{-1000, -95, -90, -50, 0, 30} {
		c, rec, _ := newController(3)
		require.NoError(t, c.Begin(PointerEvent{X: 300}, HitEndHandle, Geometry{Left: 200, Width: 100}))
		c.End(PointerEvent{X: 300 + dx})

		rs := rec.ofKind(KindSegmentResize)
		require.Len(t, rs, 2)
		r := rs[0].(SegmentResize)
		assert.Equal(t, EdgeEnd, r.Edge)
		assert.False(t, r.Committed)
		assert.InDelta(t, 20.0, r.Start, 1e-9)
		assert.GreaterOrEqual(t, r.End, r.Start+minWidthTime-1e-9, "dx=%v", dx)
	}
}

func TestResizeStart_MovesLeftEdgeOnly(t *testing.T) {
	c, rec, _ := newController(3)
	require.NoError(t, c.Begin(PointerEvent{X: 200}, HitStartHandle, Geometry{Left: 200, Width: 100}))
	c.Move(PointerEvent{X: 150})
	d, ok := c.Draft()
	require.True(t, ok)
	assert.Equal(t, Geometry{Left: 150, Width: 150}, d)

	c.End(PointerEvent{X: 500})
	r := rec.ofKind(KindSegmentResize)[0].(SegmentResize)
	assert.Equal(t, EdgeStart, r.Edge)
	assert.InDelta(t, 29.0, r.Start, 1e-9)
	assert.InDelta(t, 30.0, r.End, 1e-9)
}

func TestResizeStart_FloorAtTrackOrigin(t *testing.T) {
	for _, x := range []float64{-40, 0, 2, 3, 6} {
		c, rec, _ := newController(4)
		require.NoError(t, c.Begin(PointerEvent{X: 2}, HitStartHandle, Geometry{Left: 2, Width: 5}))
		c.Move(PointerEvent{X: x})
		d, ok := c.Draft()
		require.True(t, ok)
		assert.Equal(t, Geometry{Left: 0, Width: MinWidthPx}, d, "x=%v", x)

		c.End(PointerEvent{X: x})
		r := rec.ofKind(KindSegmentResize)[0].(SegmentResize)
		assert.InDelta(t, 0.0, r.Start, 1e-9)
		assert.InDelta(t, PixelToTime(MinWidthPx, 1000, 100), r.End, 1e-9)
	}
}

func TestDrag_EmitsIntentThenCommit(t *testing.T) {
	c, rec, surface := newController(9)
	require.NoError(t, c.Begin(PointerEvent{PointerID: 1, X: 10}, HitBody, Geometry{Left: 0, Width: 100}))
	assert.True(t, surface.Captured())
	assert.Equal(t, Dragging, c.Mode())

	c.End(PointerEvent{PointerID: 1, X: 20})
	assert.Equal(t, []IntentKind{KindSegmentMove, KindSegmentResize}, rec.kinds())
	commit := rec.intents[1].(SegmentResize)
	assert.True(t, commit.Committed)
	assert.InDelta(t, 1.0, commit.Start, 1e-9)
	assert.InDelta(t, 11.0, commit.End, 1e-9)

	assert.False(t, surface.Captured())
	assert.Equal(t, Idle, c.Mode())
}

func TestDrag_CancelUsesLastGeometry(t *testing.T) {
	c, rec, surface := newController(9)
	require.NoError(t, c.Begin(PointerEvent{X: 50}, HitBody, Geometry{Left: 0, Width: 100}))
	c.Move(PointerEvent{X: 150})
	c.Cancel(PointerEvent{X: 900})

	mv := rec.ofKind(KindSegmentMove)[0].(SegmentMove)
	assert.InDelta(t, 10.0, mv.Start, 1e-9)
	assert.InDelta(t, 20.0, mv.End, 1e-9)
	assert.Len(t, rec.ofKind(KindSegmentResize), 1)
	assert.False(t, surface.Captured())
}

func TestDrag_DeleteControlIsIgnored(t *testing.T) {
	c, rec, surface := newController(9)
	require.NoError(t, c.Begin(PointerEvent{X: 50}, HitDeleteControl, Geometry{Left: 0, Width: 100}))
	assert.Equal(t, Idle, c.Mode())
	assert.False(t, surface.Captured())

	c.End(PointerEvent{X: 80})
	assert.Empty(t, rec.intents)
}

func TestDrag_UnresolvableIDEmitsNothing(t *testing.T) {
	c, rec, surface := newController(0)
	require.NoError(t, c.Begin(PointerEvent{X: 50}, HitBody, Geometry{Left: 0, Width: 100}))
	c.End(PointerEvent{X: 80})
	assert.Empty(t, rec.intents)
	assert.False(t, surface.Captured())
}

func TestDrag_ExclusiveCapture(t *testing.T) {
	c, _, _ := newController(9)
	require.NoError(t, c.Begin(PointerEvent{PointerID: 1, X: 50}, HitBody, Geometry{Left: 0, Width: 100}))
	err := c.Begin(PointerEvent{PointerID: 2, X: 60}, HitBody, Geometry{Left: 0, Width: 100})
	assert.True(t, errors.Is(err, ErrSurfaceBusy))

	// Moves from another pointer do not touch the session.
	c.Move(PointerEvent{PointerID: 2, X: 500})
	d, _ := c.Draft()
	assert.Equal(t, 0.0, d.Left)
}

func TestDrag_MissingTrack(t *testing.T) {
	c := NewDragController(4, nil, fixedTrack{width: 0, duration: 100}, &recorder{}, nil)
	err := c.Begin(PointerEvent{X: 0}, HitBody, Geometry{})
	assert.True(t, errors.Is(err, ErrMissingInteractionTarget))
	assert.Equal(t, Idle, c.Mode())
}
