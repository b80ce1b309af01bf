package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	cfg.setDefaults()
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))
		}

		r.Get("/status", statusHandler(cfg))
		r.Get("/labels", listLabelsHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", listVideosHandler(cfg))
			r.Post("/", addVideoHandler(cfg))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", getVideoHandler(cfg))
				r.Delete("/", deleteVideoHandler(cfg))
				r.Get("/segments", listSegmentsHandler(cfg))
				r.Post("/segments", createSegmentHandler(cfg))
				r.Get("/timeline", timelineHandler(cfg))
				r.Post("/intents", intentHandler(cfg))
				r.Get("/playback", playbackStateHandler(cfg))
				r.Post("/export", exportHandler(cfg))
			})
		})

		r.Patch("/segments/{id}", updateSegmentHandler(cfg))
		r.Delete("/segments/{id}", deleteSegmentHandler(cfg))

		r.Group(func(r chi.Router) {
			r.Use(LoopbackGuard())
			r.Get("/playback/{id}", mediaHandler(cfg))
			r.Head("/playback/{id}", mediaHandler(cfg))
		})
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := cfg.Version
		if version == "" {
			version = "dev"
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		videos, _ := cfg.Service.GetVideos(ctx)
		resp := StatusResponse{State: "idle", VideosCount: len(videos)}

		if cfg.Repository != nil {
			jobs, _ := cfg.Repository.ListJobs(ctx, 10)
			for _, j := range jobs {
				switch j.Status {
				case annotation.JobStatusPending, annotation.JobStatusRunning:
					resp.JobsPending++
					resp.State = "committing"
				case annotation.JobStatusFailed:
					if resp.LastError == "" {
						resp.LastError = j.Error
					}
				}
			}
		}
		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			resp.Paused = true
			resp.State = "paused"
		}
		if resp.LastError != "" && resp.State == "idle" {
			resp.State = "error"
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listLabelsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := cfg.Palette.Entries()
		resp := LabelsResponse{Labels: make([]LabelResponse, len(entries))}
		for i, e := range entries {
			resp.Labels[i] = LabelResponse{Name: e.Name, DisplayName: e.DisplayName, Color: cfg.Palette.Color(e.Name)}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Repository == nil {
			WriteJSON(w, http.StatusOK, JobsResponse{Jobs: []JobResponse{}})
			return
		}
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := cfg.Service.GetVideos(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list videos", "INTERNAL_ERROR")
			return
		}

		resp := VideosResponse{Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = VideoToResponse(v)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func addVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		if req.Duration <= 0 && cfg.Prober != nil {
			res, err := cfg.Prober.Probe(r.Context(), req.Path)
			if err != nil {
				cfg.Logger.Warn("probe failed, registering without duration", "error", err)
			} else {
				req.Duration = res.Duration
				if req.FrameRate <= 0 {
					req.FrameRate = res.FrameRate
				}
			}
		}

		video, err := cfg.Service.AddVideo(r.Context(), req.Path, req.Duration, req.FrameRate)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, VideoToResponse(video))
	}
}

func getVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video, err := cfg.Service.GetVideo(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, VideoToResponse(video))
	}
}

func deleteVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Service.RemoveVideo(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		cfg.Clocks.Drop(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func listSegmentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segs, err := cfg.Service.GetSegments(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := SegmentsResponse{Segments: make([]SegmentResponse, len(segs))}
		for i, s := range segs {
			resp.Segments[i] = cfg.segmentResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSegmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		seg, err := cfg.Service.CreateSegment(r.Context(), annotation.SegmentInput{
			VideoID:       chi.URLParam(r, "id"),
			Label:         req.Label,
			Start:         req.Start,
			End:           req.End,
			AvgConfidence: req.AvgConfidence,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, cfg.segmentResponse(seg))
	}
}

func updateSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := segmentIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateSegmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if (req.Start == nil) != (req.End == nil) {
			WriteError(w, http.StatusBadRequest, "start_time and end_time must be given together", "BAD_REQUEST")
			return
		}
		if req.Start == nil && req.Label == nil {
			WriteError(w, http.StatusBadRequest, "nothing to update", "BAD_REQUEST")
			return
		}

		var seg *annotation.SegmentRecord
		var err error
		if req.Start != nil {
			if seg, err = cfg.Service.UpdateSegment(r.Context(), id, *req.Start, *req.End); err != nil {
				writeServiceError(w, err)
				return
			}
		}
		if req.Label != nil {
			if seg, err = cfg.Service.RelabelSegment(r.Context(), id, *req.Label); err != nil {
				writeServiceError(w, err)
				return
			}
		}
		WriteJSON(w, http.StatusOK, cfg.segmentResponse(seg))
	}
}

func deleteSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := segmentIDParam(w, r)
		if !ok {
			return
		}
		if err := cfg.Service.DeleteSegment(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		video, err := cfg.Service.GetVideo(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if err := cfg.Media.ServeFile(w, r, video.Path); err != nil {
			cfg.Logger.Error("playback error", "error", err, "video_id", id)
		}
	}
}

func segmentIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "segment id must be a positive integer", "BAD_REQUEST")
		return 0, false
	}
	return id, true
}

func (cfg ServerConfig) segmentResponse(s *annotation.SegmentRecord) SegmentResponse {
	return SegmentResponse{
		ID:            s.ID,
		VideoID:       s.VideoID,
		Label:         s.Label,
		DisplayName:   cfg.Palette.DisplayName(s.Label),
		Color:         cfg.Palette.Color(s.Label),
		Start:         s.Start,
		End:           s.End,
		AvgConfidence: s.AvgConfidence,
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
}

// writeServiceError maps store errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, annotation.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, annotation.ErrInvalidSegment),
		errors.Is(err, annotation.ErrLabelRequired),
		errors.Is(err, annotation.ErrNotVideo),
		errors.Is(err, timeline.ErrUnresolvableSegmentID):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
