package playback

import "sync"

// Registry holds one Clock per video for clients that share a player
// position, such as successive HTTP requests.
type Registry struct {
	mu     sync.Mutex
	clocks map[string]*Clock
}

func NewRegistry() *Registry {
	return &Registry{clocks: make(map[string]*Clock)}
}

// Get returns the clock of videoID, creating it on first use. The duration
// is refreshed on every call.
func (r *Registry) Get(videoID string, duration float64) *Clock {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clocks[videoID]
	if !ok {
		c = NewClock(duration)
		r.clocks[videoID] = c
		return c
	}
	c.SetDuration(duration)
	return c
}

func (r *Registry) Drop(videoID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clocks, videoID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clocks)
}
