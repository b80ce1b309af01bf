package annotation

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

// MinSegmentDuration is the shortest segment the store accepts, one frame
// at 50 fps.
const MinSegmentDuration = 1.0 / 50

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidSegment = errors.New("invalid segment")
	ErrLabelRequired  = errors.New("label required")
	ErrNotVideo       = errors.New("not a video file")
)

type Video struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Filename  string    `json:"filename"`
	Duration  float64   `json:"duration"`
	FrameRate float64   `json:"frame_rate,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Label struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Color       string `json:"color,omitempty"`
	Position    int    `json:"position"`
}

// SegmentRecord is a persisted labeled interval of a video.
type SegmentRecord struct {
	ID            int64     `json:"id"`
	VideoID       string    `json:"video_id"`
	Label         string    `json:"label"`
	Start         float64   `json:"start_time"`
	End           float64   `json:"end_time"`
	AvgConfidence *float64  `json:"avg_confidence,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Timeline converts the record to the editor's segment type.
func (s *SegmentRecord) Timeline() timeline.Segment {
	seg := timeline.Segment{ID: s.ID, Label: s.Label, Start: s.Start, End: s.End}
	if s.AvgConfidence != nil {
		seg.AvgConfidence = *s.AvgConfidence
	}
	return seg
}

// TimelineSegments converts records for the editor.
func TimelineSegments(records []*SegmentRecord) []timeline.Segment {
	out := make([]timeline.Segment, 0, len(records))
	for _, r := range records {
		out = append(out, r.Timeline())
	}
	return out
}

const (
	JobTypeSegmentUpdate = "segment_update"
	JobTypeSegmentDelete = "segment_delete"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is a queued persistence commit.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	VideoID   string    `json:"video_id,omitempty"`
	SegmentID int64     `json:"segment_id,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoundsPayload is the payload of a segment_update job.
type BoundsPayload struct {
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
	Edge  string  `json:"edge,omitempty"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
}

func NewID() string {
	return uuid.NewString()
}

func IsVideoFile(filename string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(filename))]
}
