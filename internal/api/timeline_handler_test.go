package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

func TestTimelineLayout(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVideo(t, 100)
	env.addSegment(t, v.ID, "polyp", 10, 20)
	env.addSegment(t, v.ID, "polyp", 15, 25)
	needle := env.addSegment(t, v.ID, "needle", 50, 60)

	rr := env.do(t, http.MethodGet, "/videos/"+v.ID+"/timeline?width=1000&zoom=2&selected_label=needle&current_time=50&active_segment_id="+itoa(needle.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var layout timeline.Layout
	decodeInto(t, rr, &layout)
	assert.Equal(t, 100.0, layout.Duration)
	assert.Equal(t, 1000.0, layout.TrackWidth)
	assert.Equal(t, 2.0, layout.Zoom)
	assert.Equal(t, 50.0, layout.Playhead)
	assert.Len(t, layout.Markers, 21)
	assert.Equal(t, needle.ID, layout.ActiveID)

	require.Len(t, layout.Rows, 3, "overlapping polyp segments need two lanes")
	assert.Equal(t, "needle", layout.Rows[0].Label, "selected label comes first")
	require.Len(t, layout.Rows[0].Segments, 1)
	first := layout.Rows[0].Segments[0]
	assert.True(t, first.Active)
	assert.Equal(t, 50.0, first.Left)
	assert.Equal(t, 10.0, first.Width)
	assert.Equal(t, "#3498db", first.Color)
}

func TestTimelineLayout_UsesClockPosition(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVideo(t, 100)

	env.do(t, http.MethodPost, "/videos/"+v.ID+"/intents", IntentRequest{Kind: timeline.KindSeek, Time: 25})

	var layout timeline.Layout
	decodeInto(t, env.do(t, http.MethodGet, "/videos/"+v.ID+"/timeline", nil), &layout)
	assert.Equal(t, 25.0, layout.CurrentTime)
	assert.Equal(t, 25.0, layout.Playhead)
	assert.Equal(t, float64(defaultTrackWidth), layout.TrackWidth)
}

func TestTimelineLayout_BadParams(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVideo(t, 100)

	for _, q := range []string{"width=-5", "width=wide", "zoom=x", "current_time=now", "active_segment_id=seven", "active_segment_id=-2", "active_segment_id=1.5"} {
		rr := env.do(t, http.MethodGet, "/videos/"+v.ID+"/timeline?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/videos/missing/timeline", nil).Code)
}

func TestIntents_Playback(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVideo(t, 100)
	path := "/videos/" + v.ID + "/intents"

	var resp IntentResponse
	rr := env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindSeek, Time: 130})
	require.Equal(t, http.StatusOK, rr.Code)
	decodeInto(t, rr, &resp)
	require.NotNil(t, resp.Playback)
	assert.Equal(t, 100.0, resp.Playback.Position, "seek is clamped to the duration")

	rr = env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindSeek, Time: 30})
	decodeInto(t, rr, &resp)
	assert.Equal(t, 30.0, resp.Playback.Position)

	rr = env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindPlayPause})
	decodeInto(t, rr, &resp)
	assert.True(t, resp.Playback.Playing)

	body := decodeJSONBody(t, env.do(t, http.MethodGet, "/videos/"+v.ID+"/playback", nil))
	assert.Equal(t, true, body["playing"])
	assert.Equal(t, 100.0, body["duration"])
}

func TestIntents_ResizeCommitsThroughRunner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.addVideo(t, 100)
	seg := env.addSegment(t, v.ID, "polyp", 10, 20)
	path := "/videos/" + v.ID + "/intents"

	rr := env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindSegmentResize, SegmentID: seg.ID, Start: 10, End: 30, Edge: timeline.EdgeEnd})
	require.Equal(t, http.StatusOK, rr.Code, "uncommitted resize is a preview")
	assert.Empty(t, decodeJSONBody(t, rr)["job"])

	rr = env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindSegmentMove, SegmentID: seg.ID, Start: 15, End: 25})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindSegmentResize, SegmentID: seg.ID, Start: 15, End: 25, Committed: true})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	var resp IntentResponse
	decodeInto(t, rr, &resp)
	require.NotNil(t, resp.Job)
	assert.Equal(t, annotation.JobTypeSegmentUpdate, resp.Job.Type)

	stored, err := env.svc.GetSegment(ctx, seg.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.Start, "not applied before the runner drains")

	assert.Equal(t, 1, env.runner.Drain(ctx))
	stored, err = env.svc.GetSegment(ctx, seg.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, stored.Start)
	assert.Equal(t, 25.0, stored.End)
}

func TestIntents_DeleteCommitsThroughRunner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	v := env.addVideo(t, 100)
	seg := env.addSegment(t, v.ID, "polyp", 10, 20)

	rr := env.do(t, http.MethodPost, "/videos/"+v.ID+"/intents", IntentRequest{Kind: timeline.KindSegmentDelete, SegmentID: seg.ID})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	assert.Equal(t, 1, env.runner.Drain(ctx))
	_, err := env.svc.GetSegment(ctx, seg.ID)
	assert.ErrorIs(t, err, annotation.ErrNotFound)
}

func TestIntents_TimeSelection(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVideo(t, 100)
	path := "/videos/" + v.ID + "/intents"

	rr := env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindTimeSelection, Start: 40, End: 30, Label: "snare"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp IntentResponse
	decodeInto(t, rr, &resp)
	require.NotNil(t, resp.Segment)
	assert.Equal(t, 30.0, resp.Segment.Start)
	assert.Equal(t, 40.0, resp.Segment.End)
	assert.Equal(t, "snare", resp.Segment.Label)

	rr = env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindTimeSelection, Start: 1, End: 2})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "a selection needs a label")
}

func TestIntents_SelectAndEdit(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVideo(t, 100)
	seg := env.addSegment(t, v.ID, "polyp", 10, 20)
	path := "/videos/" + v.ID + "/intents"

	var resp IntentResponse
	rr := env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindSegmentSelect, SegmentID: seg.ID})
	require.Equal(t, http.StatusOK, rr.Code)
	decodeInto(t, rr, &resp)
	assert.Equal(t, seg.ID, resp.Segment.ID)

	rr = env.do(t, http.MethodPost, path, IntentRequest{Kind: timeline.KindSegmentEdit, SegmentID: seg.ID, Label: "wound"})
	require.Equal(t, http.StatusOK, rr.Code)
	decodeInto(t, rr, &resp)
	assert.Equal(t, "wound", resp.Segment.Label)
	assert.Equal(t, "Wunde", resp.Segment.DisplayName)
}

func TestIntents_Rejected(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVideo(t, 100)
	other := env.addVideo(t, 50)
	foreign := env.addSegment(t, other.ID, "polyp", 1, 2)
	path := "/videos/" + v.ID + "/intents"

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "unknown kind", body: IntentRequest{Kind: "zoom"}, want: http.StatusBadRequest},
		{name: "bad edge", body: IntentRequest{Kind: timeline.KindSegmentResize, SegmentID: foreign.ID, Edge: "middle"}, want: http.StatusBadRequest},
		{name: "foreign segment", body: IntentRequest{Kind: timeline.KindSegmentDelete, SegmentID: foreign.ID}, want: http.StatusNotFound},
		{name: "foreign resize", body: IntentRequest{Kind: timeline.KindSegmentResize, SegmentID: foreign.ID, Start: 1, End: 3, Committed: true}, want: http.StatusNotFound},
		{name: "missing segment", body: IntentRequest{Kind: timeline.KindSegmentSelect, SegmentID: 999}, want: http.StatusNotFound},
		{name: "id zero resize", body: IntentRequest{Kind: timeline.KindSegmentResize, Start: 1, End: 3, Committed: true}, want: http.StatusBadRequest},
		{name: "bad json", body: "not an object", want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, path, tc.body)
			assert.Equal(t, tc.want, rr.Code, rr.Body.String())
		})
	}
}
