package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

const defaultTrackWidth = 1000

// timelineHandler computes the render layout of a video's timeline for a
// track of the given width, so that thin clients only draw boxes.
func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		video, err := cfg.Service.GetVideo(ctx, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		segs, err := cfg.Service.GetSegments(ctx, video.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		q := r.URL.Query()
		width, err := floatParam(q.Get("width"), defaultTrackWidth)
		if err != nil || width < 0 {
			WriteError(w, http.StatusBadRequest, "width must be a non-negative number", "BAD_REQUEST")
			return
		}
		zoom, err := floatParam(q.Get("zoom"), timeline.MinZoom)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "zoom must be a number", "BAD_REQUEST")
			return
		}
		clock := cfg.Clocks.Get(video.ID, video.Duration)
		current, err := floatParam(q.Get("current_time"), clock.Position())
		if err != nil {
			WriteError(w, http.StatusBadRequest, "current_time must be a number", "BAD_REQUEST")
			return
		}
		var active int64
		if raw := q.Get("active_segment_id"); raw != "" {
			active, err = strconv.ParseInt(raw, 10, 64)
			if err != nil || active < 0 {
				WriteError(w, http.StatusBadRequest, "active_segment_id must be a segment id", "BAD_REQUEST")
				return
			}
		}

		tl := timeline.New(timeline.Options{
			Playback:       clock,
			Logger:         cfg.Logger,
			MarkerInterval: cfg.MarkerInterval,
			Color:          cfg.Palette.Color,
		})
		defer tl.Close()

		tl.SetState(timeline.State{
			Duration:        video.Duration,
			CurrentTime:     current,
			Segments:        annotation.TimelineSegments(segs),
			ActiveSegmentID: active,
			SelectionMode:   q.Get("selection_mode") == "true",
		})
		tl.SetTrackWidth(width)
		tl.SetZoom(zoom)
		if label := q.Get("selected_label"); label != "" {
			tl.SelectLabel(label)
		}

		WriteJSON(w, http.StatusOK, tl.Layout())
	}
}

func intentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		video, err := cfg.Service.GetVideo(ctx, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		var req IntentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var seg *annotation.SegmentRecord
		switch req.Kind {
		case timeline.KindSegmentSelect, timeline.KindSegmentDelete, timeline.KindSegmentEdit:
			seg, err = cfg.Service.GetSegment(ctx, req.SegmentID)
			if err == nil && seg.VideoID != video.ID {
				err = fmt.Errorf("segment %d of video %s: %w", req.SegmentID, video.ID, annotation.ErrNotFound)
			}
			if err != nil {
				writeServiceError(w, err)
				return
			}
		}

		var tseg timeline.Segment
		if seg != nil {
			tseg = seg.Timeline()
		}
		in, err := req.Intent(tseg)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		resp := IntentResponse{Kind: in.Kind()}
		clock := cfg.Clocks.Get(video.ID, video.Duration)

		switch v := in.(type) {
		case timeline.Seek:
			clock.Seek(v.Time)
			state := clock.State()
			resp.Playback = &state
			WriteJSON(w, http.StatusOK, resp)
			return
		case timeline.PlayPause:
			clock.TogglePlay()
			state := clock.State()
			resp.Playback = &state
			WriteJSON(w, http.StatusOK, resp)
			return
		case timeline.SegmentSelect:
			sr := cfg.segmentResponse(seg)
			resp.Segment = &sr
			WriteJSON(w, http.StatusOK, resp)
			return
		case timeline.SegmentEdit:
			if req.Label != "" {
				if seg, err = cfg.Service.RelabelSegment(ctx, seg.ID, req.Label); err != nil {
					writeServiceError(w, err)
					return
				}
			}
			sr := cfg.segmentResponse(seg)
			resp.Segment = &sr
			WriteJSON(w, http.StatusOK, resp)
			return
		}

		result, err := cfg.Service.ApplyIntent(ctx, video.ID, in, req.Label)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		status := http.StatusOK
		if result.Job != nil {
			jr := JobToResponse(result.Job)
			resp.Job = &jr
			status = http.StatusAccepted
		}
		if result.Segment != nil {
			sr := cfg.segmentResponse(result.Segment)
			resp.Segment = &sr
			status = http.StatusCreated
		}
		WriteJSON(w, status, resp)
	}
}

func playbackStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video, err := cfg.Service.GetVideo(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Clocks.Get(video.ID, video.Duration).State())
	}
}

func floatParam(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseFloat(s, 64)
}
