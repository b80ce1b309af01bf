package timeline

import (
	"fmt"
	"log/slog"
	"math"
)

// MinWidthPx is the narrowest a segment can be resized to, in pixels.
const MinWidthPx = 10.0

// Mode is the state of a drag-resize session.
type Mode int

const (
	Idle Mode = iota
	Dragging
	ResizingStart
	ResizingEnd
)

func (m Mode) String() string {
	switch m {
	case Dragging:
		return "drag"
	case ResizingStart:
		return "resize-start"
	case ResizingEnd:
		return "resize-end"
	default:
		return "idle"
	}
}

func (m Mode) edge() Edge {
	switch m {
	case ResizingStart:
		return EdgeStart
	case ResizingEnd:
		return EdgeEnd
	default:
		return EdgeNone
	}
}

// HitZone is the part of a segment (or the track) under the pointer.
type HitZone int

const (
	HitNone HitZone = iota
	HitTrack
	HitBody
	HitStartHandle
	HitEndHandle
	HitDeleteControl
)

// PointerEvent is a toolkit-neutral pointer sample. X and Y are relative
// to the top-left corner of the track.
type PointerEvent struct {
	PointerID int
	X, Y      float64
}

// Geometry is a horizontal extent in track pixels.
type Geometry struct {
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

func (g Geometry) Right() float64 { return g.Left + g.Width }

// Surface abstracts the platform's exclusive pointer capture for one
// interaction target. While captured, every move/up/cancel of that pointer
// belongs to the capturing session.
type Surface interface {
	Capture(pointerID int) error
	Release(pointerID int)
}

// CaptureSurface is the in-process Surface used when the toolkit has no
// native capture primitive.
type CaptureSurface struct {
	captured  bool
	pointerID int
}

func (s *CaptureSurface) Capture(pointerID int) error {
	if s.captured && s.pointerID != pointerID {
		return ErrSurfaceBusy
	}
	s.captured = true
	s.pointerID = pointerID
	return nil
}

func (s *CaptureSurface) Release(pointerID int) {
	if s.captured && s.pointerID == pointerID {
		s.captured = false
	}
}

func (s *CaptureSurface) Captured() bool { return s.captured }

// Track supplies the live track dimensions to a drag session.
type Track interface {
	TrackWidth() float64
	Duration() float64
}

// DragController is the per-segment move/resize state machine. Geometry is
// tracked in pixels during the session and converted to seconds once, on
// release or cancel.
type DragController struct {
	segmentID int64
	surface   Surface
	track     Track
	sink      IntentSink
	logger    *slog.Logger

	mode       Mode
	pointerID  int
	anchorX    float64
	startLeft  float64
	startWidth float64
	draft      Geometry
}

func NewDragController(segmentID int64, surface Surface, track Track, sink IntentSink, logger *slog.Logger) *DragController {
	if surface == nil {
		surface = &CaptureSurface{}
	}
	return &DragController{
		segmentID: segmentID,
		surface:   surface,
		track:     track,
		sink:      sink,
		logger:    orDiscard(logger),
	}
}

func (c *DragController) SegmentID() int64 { return c.segmentID }
func (c *DragController) Mode() Mode       { return c.mode }
func (c *DragController) Active() bool     { return c.mode != Idle }

// Owns reports whether pointerID drives the active session.
func (c *DragController) Owns(pointerID int) bool {
	return c.mode != Idle && c.pointerID == pointerID
}

// Draft returns the optimistic geometry of an active session.
func (c *DragController) Draft() (Geometry, bool) {
	if c.mode == Idle {
		return Geometry{}, false
	}
	return c.draft, true
}

// Begin starts a session from a hit on the segment. A hit on the embedded
// delete control is consumed here and never starts a session.
func (c *DragController) Begin(ev PointerEvent, hit HitZone, geom Geometry) error {
	if hit == HitDeleteControl {
		return nil
	}
	if c.mode != Idle {
		return fmt.Errorf("segment %d already in %s: %w", c.segmentID, c.mode, ErrSurfaceBusy)
	}
	if c.track == nil || c.track.TrackWidth() <= 0 {
		return fmt.Errorf("segment %d: %w", c.segmentID, ErrMissingInteractionTarget)
	}

	mode := Dragging
	switch hit {
	case HitStartHandle:
		mode = ResizingStart
	case HitEndHandle:
		mode = ResizingEnd
	}

	if err := c.surface.Capture(ev.PointerID); err != nil {
		return fmt.Errorf("capture segment %d: %w", c.segmentID, err)
	}

	c.mode = mode
	c.pointerID = ev.PointerID
	c.anchorX = ev.X
	c.startLeft = sanitizePx(geom.Left)
	c.startWidth = sanitizePx(geom.Width)
	c.draft = Geometry{Left: c.startLeft, Width: c.startWidth}
	c.logger.Debug("drag session started", "segment_id", c.segmentID, "mode", c.mode.String())
	return nil
}

// Move updates the draft geometry from the pointer position.
func (c *DragController) Move(ev PointerEvent) {
	if c.mode == Idle || ev.PointerID != c.pointerID {
		return
	}
	dx := ev.X - c.anchorX
	if !finite(dx) {
		return
	}
	trackWidth := c.track.TrackWidth()

	switch c.mode {
	case Dragging:
		maxLeft := math.Max(0, trackWidth-c.startWidth)
		left := clamp(c.startLeft+dx, 0, maxLeft)
		c.draft = Geometry{Left: left, Width: c.startWidth}

	case ResizingStart:
		right := c.startLeft + c.startWidth
		left := math.Max(0, math.Min(c.startLeft+dx, right-MinWidthPx))
		// A segment already under the floor at the track origin grows to
		// the right instead.
		width := math.Max(MinWidthPx, right-left)
		c.draft = Geometry{Left: left, Width: width}

	case ResizingEnd:
		width := math.Min(c.startWidth+dx, trackWidth-c.startLeft)
		width = math.Max(MinWidthPx, width)
		c.draft = Geometry{Left: c.startLeft, Width: width}
	}
}

// End applies the final pointer position and commits the session.
func (c *DragController) End(ev PointerEvent) {
	if c.mode == Idle || ev.PointerID != c.pointerID {
		return
	}
	c.Move(ev)
	c.finish()
}

// Cancel commits the session from the last known draft geometry so the
// segment is never left half-edited.
func (c *DragController) Cancel(ev PointerEvent) {
	if c.mode == Idle || ev.PointerID != c.pointerID {
		return
	}
	c.finish()
}

// Abort drops the session without emitting anything. It is used when the
// segment disappears while being edited or the timeline is torn down.
func (c *DragController) Abort() {
	if c.mode == Idle {
		return
	}
	c.surface.Release(c.pointerID)
	c.mode = Idle
}

func (c *DragController) finish() {
	mode := c.mode
	draft := c.draft
	c.mode = Idle
	c.surface.Release(c.pointerID)

	if c.segmentID == 0 {
		c.logger.Error("drag commit aborted", "error", fmt.Errorf("id %d: %w", c.segmentID, ErrUnresolvableSegmentID))
		return
	}

	trackWidth := c.track.TrackWidth()
	duration := c.track.Duration()
	start := c.toTime(draft.Left, trackWidth, duration)
	end := c.toTime(draft.Right(), trackWidth, duration)

	if c.sink == nil {
		return
	}
	if mode == Dragging {
		c.sink.Emit(SegmentMove{ID: c.segmentID, Start: start, End: end})
	} else {
		c.sink.Emit(SegmentResize{ID: c.segmentID, Start: start, End: end, Edge: mode.edge()})
	}
	c.sink.Emit(SegmentResize{ID: c.segmentID, Start: start, End: end, Edge: mode.edge(), Committed: true})
	c.logger.Debug("drag session committed", "segment_id", c.segmentID, "mode", mode.String(), "start", start, "end", end)
}

func (c *DragController) toTime(px, trackWidth, duration float64) float64 {
	t := PixelToTime(px, trackWidth, duration)
	if !finite(t) || t < 0 {
		c.logger.Warn("clamping drag geometry", "segment_id", c.segmentID, "error", fmt.Errorf("time %v: %w", t, ErrInvalidGeometry))
		return 0
	}
	return t
}

func sanitizePx(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}
