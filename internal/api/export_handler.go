package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-annotate/internal/export"
)

// exportHandler renders a video's segments as an EDL. With output_dir the
// file is written there; otherwise the list is returned inline.
func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

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

		clips := export.ClipsFromSegments(video, segs, req.Labels, cfg.Palette.DisplayName)
		if len(clips) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no segments to export", "NOTHING_TO_EXPORT")
			return
		}

		title := req.Title
		if title == "" {
			title = video.Filename
		}
		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = video.FrameRate
		}
		edl := export.GenerateEDL(clips, title, frameRate)

		resp := export.Response{Status: "ok", Format: export.FormatEDL, ClipCount: len(clips)}
		if req.OutputDir == "" {
			resp.EDL = edl
			WriteJSON(w, http.StatusOK, resp)
			return
		}

		path, err := export.WriteEDL(req.OutputDir, title, edl)
		if err != nil {
			if errors.Is(err, export.ErrInvalidOutputDir) {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
			cfg.Logger.Error("export failed", "error", err, "video_id", video.ID)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}
		resp.OutputPath = path
		WriteJSON(w, http.StatusOK, resp)
	}
}
