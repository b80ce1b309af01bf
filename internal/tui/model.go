// Package tui is the terminal timeline editor. It drives a timeline.Timeline
// from bubbletea keyboard and mouse events and turns the resulting intents
// into store calls.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/playback"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

const (
	tickInterval = 150 * time.Millisecond
	seekStep     = 5.0
	pointerID    = 1
)

// Store is the part of the annotation service the editor needs.
type Store interface {
	GetVideo(ctx context.Context, id string) (*annotation.Video, error)
	GetSegments(ctx context.Context, videoID string) ([]*annotation.SegmentRecord, error)
	ApplyIntent(ctx context.Context, videoID string, in timeline.Intent, label string) (*annotation.IntentResult, error)
	RelabelSegment(ctx context.Context, id int64, label string) (*annotation.SegmentRecord, error)
}

// Committer persists queued jobs.
type Committer interface {
	Drain(ctx context.Context) int
}

type Palette interface {
	Color(label string) string
	DisplayName(label string) string
	Names() []string
}

type Options struct {
	VideoID   string
	Store     Store
	Committer Committer
	Palette   Palette
	Logger    *slog.Logger
	// Clock defaults to a fresh clock over the video duration.
	Clock          *playback.Clock
	MarkerInterval float64
	// DefaultLabel labels new selections without prompting when set.
	DefaultLabel string
}

// PaletteChangedMsg asks the editor to recolor after the label file changed.
type PaletteChangedMsg struct{}

type tickMsg time.Time

type loadedMsg struct {
	segments []timeline.Segment
	err      error
}

type appliedMsg struct {
	result *annotation.IntentResult
	err    error
}

type relabeledMsg struct {
	segment *annotation.SegmentRecord
	err     error
}

type committedMsg struct {
	processed int
}

type promptKind int

const (
	promptNone promptKind = iota
	promptCreate
	promptRelabel
)

type prompt struct {
	kind      promptKind
	selection timeline.TimeSelection
	segmentID int64
	input     textinput.Model
}

// Model is the bubbletea model of the editor.
type Model struct {
	ctx       context.Context
	video     *annotation.Video
	store     Store
	committer Committer
	palette   Palette
	logger    *slog.Logger
	defLabel  string

	tl      *timeline.Timeline
	clock   *playback.Clock
	status  *statusLine
	pending []timeline.Intent

	keys     keyMap
	help     help.Model
	prompt   prompt
	width    int
	height   int
	scroll   int
	pressed  bool
	quitting bool
}

// New loads the video and builds the editor. Segments are loaded by Init.
func New(ctx context.Context, opts Options) (*Model, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("editor needs a store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	video, err := opts.Store.GetVideo(ctx, opts.VideoID)
	if err != nil {
		return nil, fmt.Errorf("load video %s: %w", opts.VideoID, err)
	}

	m := &Model{
		ctx:       ctx,
		video:     video,
		store:     opts.Store,
		committer: opts.Committer,
		palette:   opts.Palette,
		logger:    logger.With("component", "tui", "video_id", video.ID),
		defLabel:  opts.DefaultLabel,
		clock:     opts.Clock,
		status:    newStatusLine(),
		keys:      defaultKeyMap,
		help:      help.New(),
		width:     80,
		height:    24,
	}
	if m.clock == nil {
		m.clock = playback.NewClock(video.Duration)
	} else {
		m.clock.SetDuration(video.Duration)
	}
	if n, ok := opts.Committer.(interface {
		SetNotifier(timeline.NotificationSink)
	}); ok {
		n.SetNotifier(m.status)
	}

	tlOpts := timeline.Options{
		Playback:       m.clock,
		Notify:         m.status,
		Intents:        timeline.IntentFunc(func(in timeline.Intent) { m.pending = append(m.pending, in) }),
		Logger:         m.logger,
		Metrics:        terminalMetrics(),
		MarkerInterval: opts.MarkerInterval,
	}
	if m.palette != nil {
		tlOpts.Color = m.palette.Color
	}
	m.tl = timeline.New(tlOpts)
	m.tl.SetState(timeline.State{Duration: video.Duration})
	m.resize(m.width, m.height)
	return m, nil
}

// Timeline exposes the underlying timeline.
func (m *Model) Timeline() *timeline.Timeline { return m.tl }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		records, err := m.store.GetSegments(m.ctx, m.video.ID)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{segments: annotation.TimelineSegments(records)}
	}
}

func (m *Model) drainCmd() tea.Cmd {
	if m.committer == nil {
		return m.loadCmd()
	}
	return func() tea.Msg {
		return committedMsg{processed: m.committer.Drain(m.ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		m.tl.SetCurrentTime(m.clock.Position())
		if m.quitting {
			return m, nil
		}
		return m, tick()

	case loadedMsg:
		if msg.err != nil {
			m.logger.Error("failed to load segments", "error", msg.err)
			m.status.Notify(timeline.NoticeError, "Could not load segments")
			return m, nil
		}
		m.setSegments(msg.segments)
		return m, nil

	case appliedMsg:
		return m, m.onApplied(msg)

	case relabeledMsg:
		if msg.err != nil {
			m.logger.Warn("relabel failed", "error", msg.err)
			m.status.Notify(timeline.NoticeError, "Could not relabel segment")
			return m, nil
		}
		m.status.Notify(timeline.NoticeSuccess, "Segment relabeled")
		return m, m.loadCmd()

	case committedMsg:
		if msg.processed > 0 {
			m.logger.Debug("commits drained", "count", msg.processed)
		}
		return m, m.loadCmd()

	case PaletteChangedMsg:
		m.status.Notify(timeline.NoticeInfo, "Labels reloaded")
		return m, m.loadCmd()

	case tea.MouseMsg:
		if m.prompt.kind != promptNone {
			return m, nil
		}
		m.handleMouse(msg)
		return m, m.flush()

	case tea.KeyMsg:
		if m.prompt.kind != promptNone {
			return m, m.updatePrompt(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setSegments(segs []timeline.Segment) {
	active := m.tl.Layout().ActiveID
	if active != 0 && !containsSegment(segs, active) {
		active = 0
	}
	m.tl.SetState(timeline.State{
		Duration:        m.video.Duration,
		CurrentTime:     m.clock.Position(),
		Segments:        segs,
		ActiveSegmentID: active,
		SelectionMode:   m.tl.SelectionMode(),
	})
	m.clampScroll()
}

func containsSegment(segs []timeline.Segment, id int64) bool {
	for _, s := range segs {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.tl.Menu().Visible {
		if i, ok := menuKeys[msg.String()]; ok {
			m.tl.RunMenuAction(timeline.MenuActions[i])
			return m.flush()
		}
		if key.Matches(msg, m.keys.Escape) {
			m.tl.Click(false)
			return nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.tl.Close()
		return tea.Sequence(m.drainCmd(), tea.Quit)

	case key.Matches(msg, m.keys.Escape):
		if m.pressed {
			m.tl.PointerCancel(timeline.PointerEvent{PointerID: pointerID})
			m.pressed = false
		}
		m.tl.SetActiveSegment(0)
		m.status.Clear()

	case key.Matches(msg, m.keys.PlayPause):
		m.tl.PlayPause()

	case key.Matches(msg, m.keys.Back):
		m.seekBy(-seekStep)

	case key.Matches(msg, m.keys.Forward):
		m.seekBy(seekStep)

	case key.Matches(msg, m.keys.Next):
		m.selectAdjacent(1)

	case key.Matches(msg, m.keys.Prev):
		m.selectAdjacent(-1)

	case key.Matches(msg, m.keys.Delete):
		m.tl.KeyDown(deleteKeyName(msg), timeline.Focus{})

	case key.Matches(msg, m.keys.Edit):
		if seg, ok := m.activeSegment(); ok {
			m.openPrompt(promptRelabel, timeline.TimeSelection{}, seg.ID, seg.Label)
		}

	case key.Matches(msg, m.keys.ZoomIn):
		m.tl.ZoomIn()

	case key.Matches(msg, m.keys.ZoomOut):
		m.tl.ZoomOut()

	case key.Matches(msg, m.keys.Selection):
		on := !m.tl.SelectionMode()
		m.tl.SetSelectionMode(on)
		if on {
			m.status.Notify(timeline.NoticeInfo, "Drag over the track to select a range")
		}

	case key.Matches(msg, m.keys.Commit):
		return m.drainCmd()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.clampScroll()
	}
	return m.flush()
}

func deleteKeyName(msg tea.KeyMsg) string {
	if msg.Type == tea.KeyBackspace {
		return "Backspace"
	}
	return "Delete"
}

func (m *Model) seekBy(delta float64) {
	m.clock.Seek(m.clock.Position() + delta)
	m.tl.SetCurrentTime(m.clock.Position())
}

// selectAdjacent walks the segments in start order from the active one.
func (m *Model) selectAdjacent(step int) {
	segs := sortedSegments(m.tl.Segments())
	if len(segs) == 0 {
		return
	}
	idx := -1
	active := m.tl.Layout().ActiveID
	for i, s := range segs {
		if s.ID == active {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && step > 0:
		idx = 0
	case idx < 0:
		idx = len(segs) - 1
	default:
		idx = (idx + step + len(segs)) % len(segs)
	}
	m.tl.SelectSegment(segs[idx].ID)
}

func (m *Model) activeSegment() (timeline.Segment, bool) {
	active := m.tl.Layout().ActiveID
	if active == 0 {
		return timeline.Segment{}, false
	}
	for _, s := range m.tl.Segments() {
		if s.ID == active {
			return s, true
		}
	}
	return timeline.Segment{}, false
}

// flush routes the intents the timeline emitted during the last event.
func (m *Model) flush() tea.Cmd {
	intents := m.pending
	m.pending = nil

	var cmds []tea.Cmd
	for _, in := range intents {
		switch v := in.(type) {
		case timeline.SegmentSelect:
			m.tl.SetActiveSegment(v.ID)

		case timeline.Seek:
			m.tl.SetCurrentTime(m.clock.Position())

		case timeline.SegmentResize:
			if v.Committed {
				cmds = append(cmds, m.applyCmd(v, ""))
			}

		case timeline.SegmentDelete:
			if m.tl.Layout().ActiveID == v.Segment.ID {
				m.tl.SetActiveSegment(0)
			}
			cmds = append(cmds, m.applyCmd(v, ""))

		case timeline.SegmentEdit:
			m.tl.SetActiveSegment(v.Segment.ID)
			m.openPrompt(promptRelabel, timeline.TimeSelection{}, v.Segment.ID, v.Segment.Label)

		case timeline.TimeSelection:
			if m.defLabel != "" {
				cmds = append(cmds, m.applyCmd(v, m.defLabel))
				continue
			}
			m.openPrompt(promptCreate, v, 0, "")
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) applyCmd(in timeline.Intent, label string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.store.ApplyIntent(m.ctx, m.video.ID, in, label)
		return appliedMsg{result: res, err: err}
	}
}

func (m *Model) onApplied(msg appliedMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Warn("intent rejected", "error", msg.err)
		m.status.Notify(timeline.NoticeError, "Change rejected: "+msg.err.Error())
		return m.loadCmd()
	}
	switch {
	case msg.result == nil:
		return nil
	case msg.result.Job != nil:
		return m.drainCmd()
	case msg.result.Segment != nil:
		m.status.Notify(timeline.NoticeSuccess, "Segment created")
		m.tl.SetActiveSegment(msg.result.Segment.ID)
		return m.loadCmd()
	}
	return nil
}

func (m *Model) openPrompt(kind promptKind, sel timeline.TimeSelection, segmentID int64, value string) {
	in := textinput.New()
	in.Prompt = "label> "
	in.CharLimit = 64
	in.SetValue(value)
	in.Focus()
	switch kind {
	case promptCreate:
		in.Placeholder = "label for " + timeline.FormatTime(sel.Start) + "-" + timeline.FormatTime(sel.End)
	case promptRelabel:
		in.Placeholder = "new label"
	}
	m.prompt = prompt{kind: kind, selection: sel, segmentID: segmentID, input: in}
}

func (m *Model) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.prompt = prompt{}
		return nil

	case tea.KeyTab:
		if match := m.completeLabel(m.prompt.input.Value()); match != "" {
			m.prompt.input.SetValue(match)
			m.prompt.input.CursorEnd()
		}
		return nil

	case tea.KeyEnter:
		label := m.resolveLabel(m.prompt.input.Value())
		if label == "" {
			m.status.Notify(timeline.NoticeWarning, "Label required")
			return nil
		}
		p := m.prompt
		m.prompt = prompt{}
		if p.kind == promptRelabel {
			return m.relabelCmd(p.segmentID, label)
		}
		return m.applyCmd(p.selection, label)
	}

	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return cmd
}

func (m *Model) relabelCmd(id int64, label string) tea.Cmd {
	return func() tea.Msg {
		seg, err := m.store.RelabelSegment(m.ctx, id, label)
		return relabeledMsg{segment: seg, err: err}
	}
}

// resolveLabel accepts a label name or its display name.
func (m *Model) resolveLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || m.palette == nil {
		return value
	}
	for _, name := range m.palette.Names() {
		if strings.EqualFold(name, value) || strings.EqualFold(m.palette.DisplayName(name), value) {
			return name
		}
	}
	return value
}

// completeLabel returns the only known label starting with prefix.
func (m *Model) completeLabel(prefix string) string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if m.palette == nil {
		return ""
	}
	match := ""
	for _, name := range m.palette.Names() {
		if strings.HasPrefix(name, prefix) {
			if match != "" {
				return ""
			}
			match = name
		}
	}
	return match
}
