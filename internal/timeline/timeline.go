package timeline

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
)

// State is the input supplied by the store/player collaborator.
type State struct {
	Duration    float64
	CurrentTime float64
	Segments    []Segment
	// ActiveSegmentID is the selected segment; 0 means none.
	ActiveSegmentID int64
	SelectionMode   bool
	ShowWaveform    bool
}

// Options wires a Timeline to its collaborators.
type Options struct {
	Playback PlaybackController
	Notify   NotificationSink
	Intents  IntentSink
	Logger   *slog.Logger

	Metrics Metrics
	// MarkerInterval overrides BaseMarkerInterval when positive.
	MarkerInterval float64
	// Color resolves a colour for segments that carry none.
	Color func(label string) string
	// Surface returns the capture surface of a segment. Nil uses an
	// in-process CaptureSurface per segment.
	Surface func(segmentID int64) Surface
}

type span struct{ start, end float64 }

// Timeline orchestrates the lane packer, the drag-resize controllers, the
// selection tool, the context menu and the keyboard binding over one track.
// It is single-threaded: every method must be called from the goroutine
// that owns the UI event loop.
type Timeline struct {
	playback PlaybackController
	notify   NotificationSink
	sink     IntentSink
	logger   *slog.Logger
	metrics  Metrics
	interval float64
	color    func(string) string
	surface  func(int64) Surface

	state         State
	trackWidth    float64
	zoom          Zoom
	selectedLabel string
	overrides     map[int64]span

	displayed []Segment
	rows      []Row
	lanes     LaneCache
	markers   MarkerCache

	bindings      map[int64]*DragController
	active        *DragController
	selection     SelectionTool
	menu          ContextMenu
	pendingDelete int64
	mounted       bool
}

// New mounts a timeline. Close must be called to tear it down.
func New(opts Options) *Timeline {
	metrics := opts.Metrics
	if metrics == (Metrics{}) {
		metrics = DefaultMetrics()
	}
	t := &Timeline{
		playback:  opts.Playback,
		notify:    opts.Notify,
		sink:      opts.Intents,
		logger:    orDiscard(opts.Logger),
		metrics:   metrics,
		interval:  opts.MarkerInterval,
		color:     opts.Color,
		surface:   opts.Surface,
		zoom:      NewZoom(),
		overrides: make(map[int64]span),
		bindings:  make(map[int64]*DragController),
		mounted:   true,
	}
	if t.interval <= 0 {
		t.interval = BaseMarkerInterval
	}
	t.refresh()
	t.notice(NoticeSuccess, "Timeline ready")
	return t
}

// Close tears the timeline down: any session is dropped without intents and
// every per-segment and global binding is released. Events after Close are
// ignored.
func (t *Timeline) Close() {
	if !t.mounted {
		return
	}
	if t.active != nil {
		t.active.Abort()
		t.active = nil
	}
	for id := range t.bindings {
		delete(t.bindings, id)
	}
	t.selection.Cancel()
	t.menu.Close()
	t.pendingDelete = 0
	t.mounted = false
}

// Mounted reports whether the timeline still accepts events.
func (t *Timeline) Mounted() bool { return t.mounted }

// BoundCount is the number of live per-segment bindings.
func (t *Timeline) BoundCount() int { return len(t.bindings) }

// SetState replaces the collaborator input. Optimistic overrides from
// finished sessions are dropped because the store now speaks for itself.
func (t *Timeline) SetState(s State) {
	t.state = s
	t.state.Segments = slices.Clone(s.Segments)
	clear(t.overrides)
	t.refresh()
}

// SetCurrentTime moves the playhead without touching the segment layout.
func (t *Timeline) SetCurrentTime(seconds float64) {
	t.state.CurrentTime = seconds
}

// SetActiveSegment updates the selected segment id (0 clears it).
func (t *Timeline) SetActiveSegment(id int64) {
	t.state.ActiveSegmentID = id
}

// SetSelectionMode toggles the range-selection gesture.
func (t *Timeline) SetSelectionMode(on bool) {
	t.state.SelectionMode = on
	if !on {
		t.selection.Cancel()
	}
}

func (t *Timeline) SelectionMode() bool { return t.state.SelectionMode }

// SetTrackWidth sets the rendered width of the track in layout units.
func (t *Timeline) SetTrackWidth(width float64) {
	if !finite(width) || width < 0 {
		t.logger.Warn("ignoring track width", "error", fmt.Errorf("width %v: %w", width, ErrInvalidGeometry))
		width = 0
	}
	t.trackWidth = width
}

// TrackWidth implements Track.
func (t *Timeline) TrackWidth() float64 { return t.trackWidth }

// Duration implements Track.
func (t *Timeline) Duration() float64 { return t.state.Duration }

func (t *Timeline) Zoom() float64 { return t.zoom.Level() }
func (t *Timeline) ZoomIn()       { t.zoom.In() }
func (t *Timeline) ZoomOut()      { t.zoom.Out() }

// SetZoom clamps level into the supported zoom range.
func (t *Timeline) SetZoom(level float64) { t.zoom.Set(level) }

// SelectLabel moves the rows of label to the top ("" clears it).
func (t *Timeline) SelectLabel(label string) {
	t.selectedLabel = label
	t.refresh()
}

// SelectSegment selects a segment by id: its label rows move to the top and
// a segment-select intent is emitted.
func (t *Timeline) SelectSegment(id int64) {
	defer t.recoverEvent("select")
	if !t.mounted {
		return
	}
	seg, ok := findSegment(t.displayed, id)
	if !ok {
		t.logger.Warn("select ignored", "error", fmt.Errorf("id %d: %w", id, ErrUnresolvableSegmentID))
		return
	}
	t.selectedLabel = seg.Label
	t.refresh()
	t.emit(SegmentSelect{ID: seg.ID})
}

// Segments returns the displayed segments: clamped, coloured and with the
// optimistic overrides applied.
func (t *Timeline) Segments() []Segment { return t.displayed }

// Rows returns the current lane assignment.
func (t *Timeline) Rows() []Row { return t.rows }

func (t *Timeline) refresh() {
	t.displayed = t.displayedSegments()
	rows, changed := t.lanes.Rows(t.displayed, t.selectedLabel, LabelOrder(t.displayed))
	t.rows = rows
	if changed {
		t.rebind()
		t.warnZeroWidth()
	}
}

func (t *Timeline) displayedSegments() []Segment {
	out := make([]Segment, 0, len(t.state.Segments))
	for _, s := range t.state.Segments {
		if o, ok := t.overrides[s.ID]; ok {
			s.Start, s.End = o.start, o.end
		}
		s = s.Clamp(t.state.Duration)
		if s.Color == "" && t.color != nil {
			s.Color = t.color(s.Label)
		}
		out = append(out, s)
	}
	return out
}

// rebind re-creates the per-segment drag bindings for the current rows.
// A session in progress survives as long as its segment still exists.
func (t *Timeline) rebind() {
	if !t.mounted {
		return
	}
	next := make(map[int64]*DragController, len(t.displayed))
	for _, row := range t.rows {
		for _, seg := range row.Segments {
			if seg.ID == 0 {
				t.logger.Debug("segment skipped", "error", fmt.Errorf("segment without id: %w", ErrMissingInteractionTarget))
				continue
			}
			if c, ok := t.bindings[seg.ID]; ok {
				next[seg.ID] = c
				continue
			}
			var surface Surface
			if t.surface != nil {
				surface = t.surface(seg.ID)
			}
			next[seg.ID] = NewDragController(seg.ID, surface, t, IntentFunc(t.onDragIntent), t.logger)
		}
	}
	if t.active != nil {
		if _, ok := next[t.active.SegmentID()]; !ok {
			t.logger.Info("segment removed during drag", "segment_id", t.active.SegmentID())
			t.active.Abort()
			t.active = nil
		}
	}
	t.bindings = next
}

func (t *Timeline) warnZeroWidth() {
	if t.state.Duration <= 0 {
		return
	}
	for _, s := range t.displayed {
		if _, err := SegmentWidth(s.Start, s.End, t.state.Duration); err != nil {
			t.logger.Warn("segment has zero width", "segment_id", s.ID, "label", s.Label, "error", err)
		}
	}
}

// onDragIntent applies a finished session optimistically before passing
// its intents upward.
func (t *Timeline) onDragIntent(in Intent) {
	switch v := in.(type) {
	case SegmentMove:
		t.overrides[v.ID] = span{v.Start, v.End}
	case SegmentResize:
		t.overrides[v.ID] = span{v.Start, v.End}
	}
	t.emit(in)
}

func (t *Timeline) emit(in Intent) {
	switch v := in.(type) {
	case Seek:
		if t.playback != nil {
			t.playback.Seek(v.Time)
		}
	case PlayPause:
		if t.playback != nil {
			t.playback.TogglePlay()
		}
	}
	if t.sink != nil {
		t.sink.Emit(in)
	}
}

func (t *Timeline) notice(level NoticeLevel, text string) {
	if t.notify != nil {
		t.notify.Notify(level, text)
	}
}

// recoverEvent keeps a failure inside one event callback from unwinding
// into the toolkit's event loop.
func (t *Timeline) recoverEvent(event string) {
	if r := recover(); r != nil {
		t.logger.Error("panic in timeline event handler", "event", event, "error", r)
	}
}

// segmentGeometry returns the pixel extent of s on the current track.
func (t *Timeline) segmentGeometry(s Segment) Geometry {
	left, err := SegmentPosition(s.Start, t.state.Duration)
	if err != nil {
		t.logger.Error("invalid segment position", "segment_id", s.ID, "error", err)
	}
	width, err := SegmentWidth(s.Start, s.End, t.state.Duration)
	if err != nil {
		t.logger.Debug("invalid segment width", "segment_id", s.ID, "error", err)
	}
	return Geometry{Left: left / 100 * t.trackWidth, Width: width / 100 * t.trackWidth}
}

// HitTest locates the segment zone or track area under (x, y).
func (t *Timeline) HitTest(x, y float64) Hit {
	if !finite(x) || !finite(y) || x < 0 || y < 0 || x > t.trackWidth {
		return Hit{Zone: HitNone}
	}
	rowsTop := t.metrics.MarkerHeight
	if y < rowsTop || t.metrics.RowHeight <= 0 {
		return Hit{Zone: HitTrack, Row: -1}
	}
	idx := int(math.Floor((y - rowsTop) / t.metrics.RowHeight))
	if idx >= len(t.rows) {
		return Hit{Zone: HitTrack, Row: -1}
	}

	for _, s := range t.rows[idx].Segments {
		g := t.segmentGeometry(s)
		if c, ok := t.bindings[s.ID]; ok {
			if d, ok := c.Draft(); ok {
				g = d
			}
		}
		right := g.Left + math.Max(g.Width, 1)
		if x < g.Left || x >= right {
			continue
		}
		return Hit{Zone: t.zoneWithin(g, x), SegmentID: s.ID, Row: idx, Geometry: g}
	}
	return Hit{Zone: HitTrack, Row: idx}
}

func (t *Timeline) zoneWithin(g Geometry, x float64) HitZone {
	handle := t.metrics.HandleWidth
	right := g.Right()
	switch {
	case x < g.Left+handle:
		return HitStartHandle
	case x >= right-handle:
		return HitEndHandle
	case t.metrics.DeleteWidth > 0 && x >= right-handle-t.metrics.DeleteWidth && g.Width >= 2*handle+2*t.metrics.DeleteWidth:
		return HitDeleteControl
	default:
		return HitBody
	}
}

// PointerDown starts a segment session, a range selection or a seek,
// depending on what is under the pointer.
func (t *Timeline) PointerDown(ev PointerEvent) {
	defer t.recoverEvent("pointer_down")
	if !t.mounted {
		return
	}
	hit := t.HitTest(ev.X, ev.Y)
	switch hit.Zone {
	case HitNone:
		return

	case HitDeleteControl:
		t.pendingDelete = hit.SegmentID

	case HitBody, HitStartHandle, HitEndHandle:
		t.beginSession(ev, hit)

	case HitTrack:
		percent := ev.X / t.trackWidth * 100
		if t.state.SelectionMode {
			t.selection.Begin(percent)
			return
		}
		t.emit(Seek{Time: PercentToTime(clampPercent(percent), t.state.Duration)})
	}
}

func (t *Timeline) beginSession(ev PointerEvent, hit Hit) {
	c, ok := t.bindings[hit.SegmentID]
	if !ok {
		t.logger.Debug("pointer down skipped", "error", fmt.Errorf("segment %d: %w", hit.SegmentID, ErrMissingInteractionTarget))
		return
	}
	if t.active != nil && t.active != c {
		t.logger.Warn("second drag rejected", "segment_id", hit.SegmentID, "active_segment_id", t.active.SegmentID(), "error", ErrSurfaceBusy)
		t.notice(NoticeWarning, "Another segment is being edited")
		return
	}
	if err := c.Begin(ev, hit.Zone, hit.Geometry); err != nil {
		t.logger.Warn("drag session not started", "segment_id", hit.SegmentID, "error", err)
		return
	}
	t.active = c
}

// PointerMove feeds the captured session or the selection gesture.
func (t *Timeline) PointerMove(ev PointerEvent) {
	defer t.recoverEvent("pointer_move")
	if !t.mounted {
		return
	}
	if t.active != nil {
		t.active.Move(ev)
		return
	}
	if t.selection.State().IsSelecting && t.trackWidth > 0 {
		t.selection.Move(ev.X / t.trackWidth * 100)
	}
}

// PointerUp finishes whatever the matching PointerDown started.
func (t *Timeline) PointerUp(ev PointerEvent) {
	defer t.recoverEvent("pointer_up")
	if !t.mounted {
		return
	}
	if c := t.active; c != nil {
		if !c.Owns(ev.PointerID) {
			return
		}
		t.active = nil
		c.End(ev)
		t.refresh()
		t.SelectSegment(c.SegmentID())
		return
	}
	if t.selection.State().IsSelecting {
		if t.trackWidth > 0 {
			t.selection.Move(ev.X / t.trackWidth * 100)
		}
		if sel, ok := t.selection.End(t.state.Duration); ok {
			t.emit(sel)
		}
		return
	}
	if id := t.pendingDelete; id != 0 {
		t.pendingDelete = 0
		if hit := t.HitTest(ev.X, ev.Y); hit.Zone == HitDeleteControl && hit.SegmentID == id {
			t.requestDelete(id)
		}
	}
}

// PointerCancel ends a session from its last draft and drops a selection.
func (t *Timeline) PointerCancel(ev PointerEvent) {
	defer t.recoverEvent("pointer_cancel")
	if !t.mounted {
		return
	}
	t.pendingDelete = 0
	if c := t.active; c != nil {
		if !c.Owns(ev.PointerID) {
			return
		}
		t.active = nil
		c.Cancel(ev)
		t.refresh()
		return
	}
	t.selection.Cancel()
}

// Dragging returns the active session's segment id and mode.
func (t *Timeline) Dragging() (int64, Mode, bool) {
	if t.active == nil || !t.active.Active() {
		return 0, Idle, false
	}
	return t.active.SegmentID(), t.active.Mode(), true
}

// OpenContextMenu opens the segment menu at (clientX, clientY) when ev hits a
// segment. It reports whether a menu was opened.
func (t *Timeline) OpenContextMenu(ev PointerEvent, clientX, clientY int) bool {
	defer t.recoverEvent("context_menu")
	if !t.mounted {
		return false
	}
	hit := t.HitTest(ev.X, ev.Y)
	switch hit.Zone {
	case HitBody, HitStartHandle, HitEndHandle, HitDeleteControl:
		t.menu.Open(hit.SegmentID, clientX, clientY)
		return true
	}
	return false
}

// Click closes the context menu unless the click landed inside it.
func (t *Timeline) Click(insideMenu bool) {
	defer t.recoverEvent("click")
	if !t.mounted {
		return
	}
	if t.menu.Visible() && !insideMenu {
		t.menu.Close()
	}
}

func (t *Timeline) Menu() ContextMenuState { return t.menu.State() }

// RunMenuAction performs a context menu entry on the menu's target.
func (t *Timeline) RunMenuAction(action MenuAction) {
	defer t.recoverEvent("menu_action")
	if !t.mounted {
		return
	}
	seg, ok := t.menu.Target(t.displayed)
	t.menu.Close()
	if !ok {
		t.logger.Info("menu target gone", "action", action.String())
		return
	}
	switch action {
	case MenuEdit:
		t.emit(SegmentEdit{Segment: seg})
	case MenuDelete:
		t.emit(SegmentDelete{Segment: seg})
	case MenuPlay:
		t.emit(Seek{Time: seg.Start})
		t.emit(PlayPause{})
	}
}

// KeyDown handles the global delete binding. It reports whether the key was
// consumed.
func (t *Timeline) KeyDown(key string, focus Focus) bool {
	defer t.recoverEvent("key_down")
	if !t.mounted || focus.Editable() || !IsDeleteKey(key) {
		return false
	}
	if t.state.ActiveSegmentID == 0 {
		return false
	}
	t.requestDelete(t.state.ActiveSegmentID)
	return true
}

// DeleteSelected requests deletion of the active segment, if any.
func (t *Timeline) DeleteSelected() {
	defer t.recoverEvent("delete_selected")
	if !t.mounted || t.state.ActiveSegmentID == 0 {
		return
	}
	t.requestDelete(t.state.ActiveSegmentID)
}

// PlayPause forwards the toolbar play/pause control.
func (t *Timeline) PlayPause() {
	if !t.mounted {
		return
	}
	t.emit(PlayPause{})
}

func (t *Timeline) requestDelete(id int64) {
	seg, ok := findSegment(t.displayed, id)
	if !ok {
		t.logger.Info("delete ignored", "error", fmt.Errorf("id %d: %w", id, ErrUnresolvableSegmentID))
		return
	}
	t.emit(SegmentDelete{Segment: seg})
}

// Layout builds the render snapshot.
func (t *Timeline) Layout() Layout {
	l := Layout{
		Duration:      t.state.Duration,
		CurrentTime:   t.state.CurrentTime,
		TrackWidth:    t.trackWidth,
		Height:        t.metrics.TrackHeight(len(t.rows)),
		Zoom:          t.zoom.Level(),
		Playhead:      PlayheadPercent(t.state.CurrentTime, t.state.Duration),
		Markers:       t.markers.Markers(t.state.Duration, t.zoom.Level(), t.interval),
		Selection:     t.selection.State(),
		SelectionMode: t.state.SelectionMode,
		ShowWaveform:  t.state.ShowWaveform,
		SelectedLabel: t.selectedLabel,
		ActiveID:      t.state.ActiveSegmentID,
		Menu:          t.menu.State(),
		Rows:          make([]RowLayout, 0, len(t.rows)),
	}

	for _, row := range t.rows {
		rl := RowLayout{Key: row.Key, Label: row.Label, RowNumber: row.RowNumber}
		for _, s := range row.Segments {
			sl := SegmentLayout{Segment: s, Active: s.ID == t.state.ActiveSegmentID}
			sl.Left, _ = SegmentPosition(s.Start, t.state.Duration)
			sl.Width, _ = SegmentWidth(s.Start, s.End, t.state.Duration)
			if c, ok := t.bindings[s.ID]; ok && t.trackWidth > 0 {
				if d, ok := c.Draft(); ok {
					sl.Left = d.Left / t.trackWidth * 100
					sl.Width = d.Width / t.trackWidth * 100
					sl.Dragging = true
				}
			}
			rl.Segments = append(rl.Segments, sl)
		}
		l.Rows = append(l.Rows, rl)
	}
	return l
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
