package timeline

import (
	"io"
	"log/slog"
)

type recorder struct {
	intents []Intent
}

func (r *recorder) Emit(in Intent) { r.intents = append(r.intents, in) }

func (r *recorder) kinds() []IntentKind {
	out := make([]IntentKind, 0, len(r.intents))
	for _, in := range r.intents {
		out = append(out, in.Kind())
	}
	return out
}

func (r *recorder) ofKind(k IntentKind) []Intent {
	var out []Intent
	for _, in := range r.intents {
		if in.Kind() == k {
			out = append(out, in)
		}
	}
	return out
}

type fakePlayer struct {
	seeks   []float64
	toggles int
}

func (p *fakePlayer) Seek(s float64) { p.seeks = append(p.seeks, s) }
func (p *fakePlayer) TogglePlay()    { p.toggles++ }

type fakeNotifier struct {
	notices []string
}

func (n *fakeNotifier) Notify(level NoticeLevel, text string) {
	n.notices = append(n.notices, string(level)+":"+text)
}

type fixedTrack struct {
	width, duration float64
}

func (f fixedTrack) TrackWidth() float64 { return f.width }
func (f fixedTrack) Duration() float64   { return f.duration }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestTimeline returns a 1000px timeline over a 100s track.
func newTestTimeline(segs ...Segment) (*Timeline, *recorder, *fakePlayer) {
	rec := &recorder{}
	player := &fakePlayer{}
	tl := New(Options{Playback: player, Intents: rec, Logger: quietLogger()})
	tl.SetTrackWidth(1000)
	tl.SetState(State{Duration: 100, Segments: segs})
	return tl, rec, player
}

// rowY is a y coordinate inside row idx for the default metrics.
func rowY(idx int) float64 {
	m := DefaultMetrics()
	return m.MarkerHeight + float64(idx)*m.RowHeight + m.RowHeight/2
}
