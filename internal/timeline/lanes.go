package timeline

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// laneEpsilon absorbs floating noise when deciding whether a segment starts
// before the running end of its row.
const laneEpsilon = 1e-4

// Row is one horizontal lane: same-label segments that never overlap. Rows
// are a projection of the segment set and are never persisted.
type Row struct {
	Key        string    `json:"key"`
	Label      string    `json:"label"`
	RowNumber  int       `json:"row_number"`
	Segments   []Segment `json:"segments"`
	MaxEndTime float64   `json:"max_end_time"`
}

// LabelOrder returns the distinct non-empty labels of segments, sorted.
func LabelOrder(segments []Segment) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, s := range segments {
		if s.Label == "" || seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		labels = append(labels, s.Label)
	}
	sort.Strings(labels)
	return labels
}

// PackLanes assigns segments to rows with a greedy next-fit sweep per label.
// Rows of selectedLabel come first, then labelOrder; labels absent from
// labelOrder follow in sorted order. A row is never reopened once a later
// row for the same label has been started.
func PackLanes(segments []Segment, selectedLabel string, labelOrder []string) []Row {
	buckets := make(map[string][]Segment)
	for _, s := range segments {
		if s.Label == "" {
			continue
		}
		buckets[s.Label] = append(buckets[s.Label], s)
	}

	rows := make([]Row, 0, len(buckets))
	for _, label := range orderLabels(buckets, selectedLabel, labelOrder) {
		segs := buckets[label]
		sort.Slice(segs, func(i, j int) bool {
			if segs[i].Start != segs[j].Start {
				return segs[i].Start < segs[j].Start
			}
			if segs[i].End != segs[j].End {
				return segs[i].End < segs[j].End
			}
			return segs[i].ID < segs[j].ID
		})

		physical := 0
		current := newRow(label, physical, len(rows))
		for _, seg := range segs {
			if len(current.Segments) > 0 && seg.Start < current.MaxEndTime-laneEpsilon {
				rows = append(rows, current)
				physical++
				current = newRow(label, physical, len(rows))
			}
			current.Segments = append(current.Segments, seg)
			current.MaxEndTime = math.Max(current.MaxEndTime, seg.End)
		}
		rows = append(rows, current)
	}
	return rows
}

func newRow(label string, physical, number int) Row {
	return Row{
		Key:       fmt.Sprintf("%s-%d", label, physical),
		Label:     label,
		RowNumber: number,
	}
}

func orderLabels(buckets map[string][]Segment, selected string, order []string) []string {
	out := make([]string, 0, len(buckets))
	used := make(map[string]bool, len(buckets))
	add := func(label string) {
		if used[label] {
			return
		}
		if _, ok := buckets[label]; !ok {
			return
		}
		used[label] = true
		out = append(out, label)
	}

	if selected != "" {
		add(selected)
	}
	for _, l := range order {
		add(l)
	}

	var rest []string
	for l := range buckets {
		if !used[l] {
			rest = append(rest, l)
		}
	}
	sort.Strings(rest)
	for _, l := range rest {
		add(l)
	}
	return out
}

// LaneCache memoises PackLanes on (segments, selected label, label order).
type LaneCache struct {
	segments []Segment
	selected string
	order    []string
	rows     []Row
	valid    bool
}

// Rows returns the packed rows for the inputs, recomputing only when one of
// them differs from the previous call. changed reports a recomputation.
func (c *LaneCache) Rows(segments []Segment, selected string, order []string) (rows []Row, changed bool) {
	if c.valid && c.selected == selected && slices.Equal(c.segments, segments) && slices.Equal(c.order, order) {
		return c.rows, false
	}
	c.segments = slices.Clone(segments)
	c.selected = selected
	c.order = slices.Clone(order)
	c.rows = PackLanes(c.segments, selected, c.order)
	c.valid = true
	return c.rows, true
}

// Invalidate forces the next Rows call to recompute.
func (c *LaneCache) Invalidate() {
	c.valid = false
}
