package timeline

import "math"

// MinSelectionSeconds is the shortest range that produces a time-selection
// intent. Shorter gestures are discarded silently.
const MinSelectionSeconds = 0.1

// SelectionState is the transient click-drag range over the empty track.
type SelectionState struct {
	IsSelecting  bool    `json:"is_selecting"`
	StartPercent float64 `json:"start_percent"`
	EndPercent   float64 `json:"end_percent"`
}

// SelectionTool tracks a range gesture in percent of the track. It makes no
// ordering assumption between start and end until End.
type SelectionTool struct {
	state SelectionState
}

func (s *SelectionTool) Begin(percent float64) {
	p := clampPercent(percent)
	s.state = SelectionState{IsSelecting: true, StartPercent: p, EndPercent: p}
}

func (s *SelectionTool) Move(percent float64) {
	if !s.state.IsSelecting {
		return
	}
	s.state.EndPercent = clampPercent(percent)
}

// End finishes the gesture. ok is false when the ordered range is not longer
// than MinSelectionSeconds or no gesture was active.
func (s *SelectionTool) End(duration float64) (sel TimeSelection, ok bool) {
	if !s.state.IsSelecting {
		return TimeSelection{}, false
	}
	lo := math.Min(s.state.StartPercent, s.state.EndPercent)
	hi := math.Max(s.state.StartPercent, s.state.EndPercent)
	s.state = SelectionState{}

	start := PercentToTime(lo, duration)
	end := PercentToTime(hi, duration)
	if end-start > MinSelectionSeconds {
		return TimeSelection{Start: start, End: end}, true
	}
	return TimeSelection{}, false
}

// Cancel drops the gesture without a result.
func (s *SelectionTool) Cancel() {
	s.state = SelectionState{}
}

func (s *SelectionTool) State() SelectionState {
	return s.state
}

func clampPercent(p float64) float64 {
	if !finite(p) {
		return 0
	}
	return clamp(p, 0, 100)
}
