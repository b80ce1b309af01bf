package timeline

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackLanes_PolypScenario(t *testing.T) {
	segs := []Segment{
		{ID: 1, Label: "polyp", Start: 0, End: 10},
		{ID: 2, Label: "polyp", Start: 5, End: 15},
		{ID: 3, Label: "polyp", Start: 12, End: 20},
	}
	rows := PackLanes(segs, "", LabelOrder(segs))
	require.Len(t, rows, 3)

	// [5,15] and [12,20] overlap, so the third segment opens its own row.
	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, fmt.Sprintf("polyp-%d", i), rows[i].Key)
		assert.Equal(t, []int64{want}, ids(rows[i]))
	}
	assertNoRowOverlap(t, rows)
}

func TestPackLanes_ReusesRowAfterGap(t *testing.T) {
	segs := []Segment{
		{ID: 1, Label: "polyp", Start: 0, End: 10},
		{ID: 3, Label: "polyp", Start: 12, End: 20},
	}
	rows := PackLanes(segs, "", nil)
	require.Len(t, rows, 1)
	assert.Equal(t, []int64{1, 3}, ids(rows[0]))
	assert.Equal(t, 20.0, rows[0].MaxEndTime)
}

func TestPackLanes_EpsilonTolerance(t *testing.T) {
	segs := []Segment{
		{ID: 1, Label: "blood", Start: 0, End: 10},
		{ID: 2, Label: "blood", Start: 10 - 5e-5, End: 12},
	}
	rows := PackLanes(segs, "", nil)
	assert.Len(t, rows, 1)
}

func TestPackLanes_GreedyNeverReclaimsRow(t *testing.T) {
	// [0,10] [5,30] [12,14]: next-fit puts the third segment in row 1
	// even though row 0 is free again at t=10.
	segs := []Segment{
		{ID: 1, Label: "a", Start: 0, End: 10},
		{ID: 2, Label: "a", Start: 5, End: 30},
		{ID: 3, Label: "a", Start: 12, End: 14},
	}
	rows := PackLanes(segs, "", nil)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{3}, ids(rows[2]))
}

func TestPackLanes_SelectedLabelFirst(t *testing.T) {
	segs := []Segment{
		{ID: 1, Label: "appendix", Start: 0, End: 5},
		{ID: 2, Label: "polyp", Start: 0, End: 5},
		{ID: 3, Label: "blood", Start: 0, End: 5},
	}
	rows := PackLanes(segs, "polyp", LabelOrder(segs))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"polyp", "appendix", "blood"}, labels(rows))
	for i, r := range rows {
		assert.Equal(t, i, r.RowNumber)
	}
}

func TestPackLanes_SkipsUnlabeled(t *testing.T) {
	rows := PackLanes([]Segment{{ID: 1, Start: 0, End: 1}}, "", nil)
	assert.Empty(t, rows)
}

func TestPackLanes_NoOverlapAndDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	labelsPool := []string{"polyp", "blood", "snare"}
	var segs []Segment
	for i := 1; i <= 200; i++ {
		start := rng.Float64() * 500
		segs = append(segs, Segment{
			ID:    int64(i),
			Label: labelsPool[rng.Intn(len(labelsPool))],
			Start: start,
			End:   start + 0.5 + rng.Float64()*40,
		})
	}

	want := PackLanes(segs, "", LabelOrder(segs))
	assertNoRowOverlap(t, want)

	for n := 0; n < 5; n++ {
		shuffled := append([]Segment(nil), segs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, PackLanes(shuffled, "", LabelOrder(shuffled)))
	}
}

func TestLaneCache_RecomputesOnlyOnChange(t *testing.T) {
	var c LaneCache
	segs := []Segment{{ID: 1, Label: "a", Start: 0, End: 1}}

	_, changed := c.Rows(segs, "", []string{"a"})
	assert.True(t, changed)
	_, changed = c.Rows(segs, "", []string{"a"})
	assert.False(t, changed)

	segs[0].End = 2
	rows, changed := c.Rows(segs, "", []string{"a"})
	assert.True(t, changed)
	assert.Equal(t, 2.0, rows[0].MaxEndTime)

	_, changed = c.Rows(segs, "a", []string{"a"})
	assert.True(t, changed)
}

func TestMetrics_TrackHeight(t *testing.T) {
	m := DefaultMetrics()
	assert.Equal(t, 36.0+3*56+12, m.TrackHeight(3))
	assert.Equal(t, 36.0+56+12, m.TrackHeight(0))
	assert.Equal(t, 36.0+56+12, m.ViewportHeight(3))
}

func assertNoRowOverlap(t *testing.T, rows []Row) {
	t.Helper()
	for _, row := range rows {
		for i := range row.Segments {
			for j := i + 1; j < len(row.Segments); j++ {
				a, b := row.Segments[i], row.Segments[j]
				assert.False(t, a.Start < b.End-laneEpsilon && b.Start < a.End-laneEpsilon,
					"row %s: %d and %d overlap", row.Key, a.ID, b.ID)
			}
		}
	}
}

func ids(r Row) []int64 {
	out := make([]int64, 0, len(r.Segments))
	for _, s := range r.Segments {
		out = append(out, s.ID)
	}
	return out
}

func labels(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Label)
	}
	return out
}
