package api

import (
	"fmt"
	"time"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/playback"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State       string `json:"state"`
	LastError   string `json:"last_error,omitempty"`
	VideosCount int    `json:"videos_count"`
	JobsPending int    `json:"jobs_pending"`
	Paused      bool   `json:"paused"`
}

type AddVideoRequest struct {
	Path      string  `json:"path"`
	Duration  float64 `json:"duration,omitempty"`
	FrameRate float64 `json:"frame_rate,omitempty"`
}

type VideoResponse struct {
	ID        string  `json:"id"`
	Path      string  `json:"path"`
	Filename  string  `json:"filename"`
	Duration  float64 `json:"duration"`
	FrameRate float64 `json:"frame_rate,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

type CreateSegmentRequest struct {
	Label         string   `json:"label"`
	Start         float64  `json:"start_time"`
	End           float64  `json:"end_time"`
	AvgConfidence *float64 `json:"avg_confidence,omitempty"`
}

// UpdateSegmentRequest changes bounds, label or both. Bounds must be given
// together.
type UpdateSegmentRequest struct {
	Start *float64 `json:"start_time,omitempty"`
	End   *float64 `json:"end_time,omitempty"`
	Label *string  `json:"label,omitempty"`
}

type SegmentResponse struct {
	ID            int64    `json:"id"`
	VideoID       string   `json:"video_id"`
	Label         string   `json:"label"`
	DisplayName   string   `json:"display_name,omitempty"`
	Color         string   `json:"color,omitempty"`
	Start         float64  `json:"start_time"`
	End           float64  `json:"end_time"`
	AvgConfidence *float64 `json:"avg_confidence,omitempty"`
	UpdatedAt     string   `json:"updated_at"`
}

type SegmentsResponse struct {
	Segments []SegmentResponse `json:"segments"`
}

type LabelResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
}

type LabelsResponse struct {
	Labels []LabelResponse `json:"labels"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	VideoID   string `json:"video_id,omitempty"`
	SegmentID int64  `json:"segment_id,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// IntentRequest is the wire form of a timeline intent. Which fields apply
// depends on Kind.
type IntentRequest struct {
	Kind      timeline.IntentKind `json:"kind"`
	Time      float64             `json:"time,omitempty"`
	SegmentID int64               `json:"segment_id,omitempty"`
	Start     float64             `json:"start_time,omitempty"`
	End       float64             `json:"end_time,omitempty"`
	Edge      timeline.Edge       `json:"edge,omitempty"`
	Committed bool                `json:"committed,omitempty"`
	Label     string              `json:"label,omitempty"`
}

type IntentResponse struct {
	Kind     timeline.IntentKind  `json:"kind"`
	Job      *JobResponse         `json:"job,omitempty"`
	Segment  *SegmentResponse     `json:"segment,omitempty"`
	Playback *playback.ClockState `json:"playback,omitempty"`
}

type ExportRequest struct {
	Title     string   `json:"title,omitempty"`
	FrameRate float64  `json:"frame_rate,omitempty"`
	OutputDir string   `json:"output_dir,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Intent converts the request to a timeline intent. Segment ids are
// resolved by the caller against the store.
func (r IntentRequest) Intent(seg timeline.Segment) (timeline.Intent, error) {
	switch r.Kind {
	case timeline.KindSeek:
		return timeline.Seek{Time: r.Time}, nil
	case timeline.KindPlayPause:
		return timeline.PlayPause{}, nil
	case timeline.KindSegmentSelect:
		return timeline.SegmentSelect{ID: r.SegmentID}, nil
	case timeline.KindSegmentMove:
		return timeline.SegmentMove{ID: r.SegmentID, Start: r.Start, End: r.End}, nil
	case timeline.KindSegmentResize:
		if r.Edge != timeline.EdgeNone && r.Edge != timeline.EdgeStart && r.Edge != timeline.EdgeEnd {
			return nil, fmt.Errorf("unknown edge %q", r.Edge)
		}
		return timeline.SegmentResize{ID: r.SegmentID, Start: r.Start, End: r.End, Edge: r.Edge, Committed: r.Committed}, nil
	case timeline.KindSegmentDelete:
		return timeline.SegmentDelete{Segment: seg}, nil
	case timeline.KindSegmentEdit:
		return timeline.SegmentEdit{Segment: seg}, nil
	case timeline.KindTimeSelection:
		return timeline.TimeSelection{Start: r.Start, End: r.End}, nil
	}
	return nil, fmt.Errorf("unknown intent kind %q", r.Kind)
}

func VideoToResponse(v *annotation.Video) VideoResponse {
	return VideoResponse{
		ID:        v.ID,
		Path:      v.Path,
		Filename:  v.Filename,
		Duration:  v.Duration,
		FrameRate: v.FrameRate,
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *annotation.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		VideoID:   j.VideoID,
		SegmentID: j.SegmentID,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}
