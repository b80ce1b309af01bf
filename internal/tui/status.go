package tui

import (
	"sync"
	"time"

	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

const noticeTTL = 4 * time.Second

// statusLine is the editor's notification sink. The commit runner notifies
// from its own goroutine, so access is locked.
type statusLine struct {
	mu    sync.Mutex
	level timeline.NoticeLevel
	text  string
	at    time.Time
	now   func() time.Time
}

func newStatusLine() *statusLine {
	return &statusLine{now: time.Now}
}

func (s *statusLine) Notify(level timeline.NoticeLevel, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level, s.text, s.at = level, text, s.now()
}

// Current returns the latest notice while it is fresh. Errors stay until
// replaced.
func (s *statusLine) Current() (timeline.NoticeLevel, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.text == "" {
		return "", "", false
	}
	if s.level != timeline.NoticeError && s.now().Sub(s.at) > noticeTTL {
		return "", "", false
	}
	return s.level, s.text, true
}

func (s *statusLine) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = ""
}
