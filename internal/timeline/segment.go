package timeline

import "math"

// Segment is a labeled time interval [Start, End) on the track. Segments are
// owned by the store; the timeline only holds a derived view of them.
type Segment struct {
	ID            int64   `json:"id"`
	Label         string  `json:"label"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Color         string  `json:"color,omitempty"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Overlaps reports whether s and o share any instant.
func (s Segment) Overlaps(o Segment) bool {
	return s.Start < o.End && o.Start < s.End
}

// Clamp forces 0 <= Start <= End <= duration. Non-finite bounds collapse to
// 0 and reversed bounds are swapped. A non-positive duration only clamps
// the lower bound.
func (s Segment) Clamp(duration float64) Segment {
	if !finite(s.Start) {
		s.Start = 0
	}
	if !finite(s.End) {
		s.End = s.Start
	}
	if s.End < s.Start {
		s.Start, s.End = s.End, s.Start
	}
	upper := math.Inf(1)
	if finite(duration) && duration > 0 {
		upper = duration
	}
	s.Start = clamp(s.Start, 0, upper)
	s.End = clamp(s.End, 0, upper)
	return s
}

// findSegment resolves an id against the current segment list. Ids are
// always looked up at use time so a deleted segment can never be acted on.
func findSegment(segments []Segment, id int64) (Segment, bool) {
	if id == 0 {
		return Segment{}, false
	}
	for _, s := range segments {
		if s.ID == id {
			return s, true
		}
	}
	return Segment{}, false
}
