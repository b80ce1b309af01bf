package tui

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/labels"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

type applied struct {
	intent timeline.Intent
	label  string
}

// fakeStore keeps segments in memory and applies queued jobs when drained.
type fakeStore struct {
	mu       sync.Mutex
	video    *annotation.Video
	segments []*annotation.SegmentRecord
	applied  []applied
	queue    []func()
	nextID   int64
	drains   int
	relabels map[int64]string
}

func newFakeStore(segs ...*annotation.SegmentRecord) *fakeStore {
	return &fakeStore{
		video:    &annotation.Video{ID: "vid-1", Filename: "colonoscopy.mp4", Duration: 100},
		segments: segs,
		nextID:   100,
		relabels: map[int64]string{},
	}
}

func (s *fakeStore) GetVideo(_ context.Context, id string) (*annotation.Video, error) {
	if id != s.video.ID {
		return nil, annotation.ErrNotFound
	}
	return s.video, nil
}

func (s *fakeStore) GetSegments(context.Context, string) ([]*annotation.SegmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*annotation.SegmentRecord, len(s.segments))
	copy(out, s.segments)
	return out, nil
}

func (s *fakeStore) ApplyIntent(_ context.Context, videoID string, in timeline.Intent, label string) (*annotation.IntentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, applied{intent: in, label: label})
	res := &annotation.IntentResult{Kind: in.Kind()}

	switch v := in.(type) {
	case timeline.SegmentResize:
		if !v.Committed {
			return res, nil
		}
		res.Job = &annotation.Job{ID: "job", SegmentID: v.ID}
		s.queue = append(s.queue, func() {
			for _, seg := range s.segments {
				if seg.ID == v.ID {
					seg.Start, seg.End = v.Start, v.End
				}
			}
		})
	case timeline.SegmentDelete:
		res.Job = &annotation.Job{ID: "job", SegmentID: v.Segment.ID}
		s.queue = append(s.queue, func() {
			kept := s.segments[:0]
			for _, seg := range s.segments {
				if seg.ID != v.Segment.ID {
					kept = append(kept, seg)
				}
			}
			s.segments = kept
		})
	case timeline.TimeSelection:
		seg := &annotation.SegmentRecord{ID: s.nextID, VideoID: videoID, Label: label, Start: v.Start, End: v.End}
		s.nextID++
		s.segments = append(s.segments, seg)
		res.Segment = seg
	}
	return res, nil
}

func (s *fakeStore) RelabelSegment(_ context.Context, id int64, label string) (*annotation.SegmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seg := range s.segments {
		if seg.ID == id {
			seg.Label = label
			s.relabels[id] = label
			return seg, nil
		}
	}
	return nil, annotation.ErrNotFound
}

func (s *fakeStore) Drain(context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drains++
	n := len(s.queue)
	for _, fn := range s.queue {
		fn()
	}
	s.queue = nil
	return n
}

func (s *fakeStore) intents() []applied {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]applied(nil), s.applied...)
}

func seg(id int64, label string, start, end float64) *annotation.SegmentRecord {
	return &annotation.SegmentRecord{ID: id, VideoID: "vid-1", Label: label, Start: start, End: end}
}

// newTestModel builds an editor 96 columns wide: 79 track cells, 316 layout
// units, so one cell is 4/316 of the 100s video.
func newTestModel(t *testing.T, store *fakeStore) *Model {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := New(context.Background(), Options{
		VideoID:   "vid-1",
		Store:     store,
		Committer: store,
		Palette:   labels.New(logger),
		Logger:    logger,
	})
	require.NoError(t, err)
	send(m, tea.WindowSizeMsg{Width: 96, Height: 24})
	send(m, m.loadCmd()())
	m.status.Clear()
	return m
}

// send feeds msg to the model and runs the resulting commands to
// completion, except ticks and quit.
func send(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	run(m, cmd, 0)
}

func run(m *Model, cmd tea.Cmd, depth int) {
	if cmd == nil || depth > 8 {
		return
	}
	switch msg := cmd().(type) {
	case nil, tickMsg, tea.QuitMsg:
	case tea.BatchMsg:
		for _, c := range msg {
			run(m, c, depth+1)
		}
	default:
		_, next := m.Update(msg)
		run(m, next, depth+1)
	}
}

func press(m *Model, x, y int, button tea.MouseButton) {
	send(m, tea.MouseMsg{X: x, Y: y, Button: button, Action: tea.MouseActionPress})
}

func motion(m *Model, x, y int) {
	send(m, tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
}

func release(m *Model, x, y int) {
	send(m, tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonNone, Action: tea.MouseActionRelease})
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
