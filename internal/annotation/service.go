package annotation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

type AnnotationService interface {
	AddVideo(ctx context.Context, path string, duration, frameRate float64) (*Video, error)
	GetVideos(ctx context.Context) ([]*Video, error)
	GetVideo(ctx context.Context, id string) (*Video, error)
	RemoveVideo(ctx context.Context, id string) error
	GetLabels(ctx context.Context) ([]*Label, error)
	GetSegments(ctx context.Context, videoID string) ([]*SegmentRecord, error)
	GetSegment(ctx context.Context, id int64) (*SegmentRecord, error)
	CreateSegment(ctx context.Context, in SegmentInput) (*SegmentRecord, error)
	UpdateSegment(ctx context.Context, id int64, start, end float64) (*SegmentRecord, error)
	RelabelSegment(ctx context.Context, id int64, label string) (*SegmentRecord, error)
	DeleteSegment(ctx context.Context, id int64) error
	ImportSegments(ctx context.Context, videoID string, in []SegmentInput) (int, error)
	ApplyIntent(ctx context.Context, videoID string, in timeline.Intent, label string) (*IntentResult, error)
}

// SegmentInput is a segment to create.
type SegmentInput struct {
	VideoID       string   `json:"video_id" yaml:"video_id"`
	Label         string   `json:"label" yaml:"label"`
	Start         float64  `json:"start_time" yaml:"start_time"`
	End           float64  `json:"end_time" yaml:"end_time"`
	AvgConfidence *float64 `json:"avg_confidence,omitempty" yaml:"avg_confidence,omitempty"`
}

// IntentResult is what the store did with an intent. Intents that only
// concern the player or the editor come back with neither field set.
type IntentResult struct {
	Kind    timeline.IntentKind `json:"kind"`
	Job     *Job                `json:"job,omitempty"`
	Segment *SegmentRecord      `json:"segment,omitempty"`
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) AddVideo(ctx context.Context, path string, duration, frameRate float64) (*Video, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() || !IsVideoFile(absPath) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(absPath), ErrNotVideo)
	}
	if !finite(duration) || duration < 0 {
		return nil, fmt.Errorf("invalid duration %v", duration)
	}

	existing, err := s.repo.GetVideoByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if duration > 0 && duration != existing.Duration {
			if err := s.repo.UpdateVideoDuration(ctx, existing.ID, duration, frameRate); err != nil {
				return nil, err
			}
			existing.Duration, existing.FrameRate = duration, frameRate
		}
		return existing, nil
	}

	video := &Video{
		ID:        NewID(),
		Path:      absPath,
		Filename:  filepath.Base(absPath),
		Duration:  duration,
		FrameRate: frameRate,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateVideo(ctx, video); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("video added", "video_id", video.ID, "path", absPath, "duration", duration)
	}
	return video, nil
}

func (s *Service) GetVideos(ctx context.Context) ([]*Video, error) {
	return s.repo.ListVideos(ctx)
}

func (s *Service) GetVideo(ctx context.Context, id string) (*Video, error) {
	v, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return v, nil
}

func (s *Service) RemoveVideo(ctx context.Context, id string) error {
	if _, err := s.GetVideo(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteVideo(ctx, id)
}

func (s *Service) GetLabels(ctx context.Context) ([]*Label, error) {
	return s.repo.ListLabels(ctx)
}

// SyncLabels stores the palette so API clients see the same label order.
func (s *Service) SyncLabels(ctx context.Context, labels []*Label) error {
	for _, l := range labels {
		if err := s.repo.UpsertLabel(ctx, l); err != nil {
			return fmt.Errorf("store label %s: %w", l.Name, err)
		}
	}
	return nil
}

func (s *Service) GetSegments(ctx context.Context, videoID string) ([]*SegmentRecord, error) {
	if _, err := s.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}
	return s.repo.ListSegments(ctx, videoID)
}

func (s *Service) GetSegment(ctx context.Context, id int64) (*SegmentRecord, error) {
	seg, err := s.repo.GetSegment(ctx, id)
	if err != nil {
		return nil, err
	}
	if seg == nil {
		return nil, fmt.Errorf("segment %d: %w", id, ErrNotFound)
	}
	return seg, nil
}

func (s *Service) CreateSegment(ctx context.Context, in SegmentInput) (*SegmentRecord, error) {
	video, err := s.GetVideo(ctx, in.VideoID)
	if err != nil {
		return nil, err
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, ErrLabelRequired
	}
	start, end, err := normalizeBounds(in.Start, in.End, video.Duration)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	seg := &SegmentRecord{
		VideoID:       video.ID,
		Label:         label,
		Start:         start,
		End:           end,
		AvgConfidence: in.AvgConfidence,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateSegment(ctx, seg); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("segment created", "video_id", video.ID, "segment_id", seg.ID, "label", label, "start", start, "end", end)
	}
	return seg, nil
}

func (s *Service) UpdateSegment(ctx context.Context, id int64, start, end float64) (*SegmentRecord, error) {
	seg, err := s.GetSegment(ctx, id)
	if err != nil {
		return nil, err
	}
	video, err := s.GetVideo(ctx, seg.VideoID)
	if err != nil {
		return nil, err
	}
	start, end, err = normalizeBounds(start, end, video.Duration)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSegmentBounds(ctx, id, start, end); err != nil {
		return nil, err
	}
	seg.Start, seg.End = start, end
	seg.UpdatedAt = time.Now()
	return seg, nil
}

func (s *Service) RelabelSegment(ctx context.Context, id int64, label string) (*SegmentRecord, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrLabelRequired
	}
	seg, err := s.GetSegment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSegmentLabel(ctx, id, label); err != nil {
		return nil, err
	}
	seg.Label = label
	seg.UpdatedAt = time.Now()
	return seg, nil
}

func (s *Service) DeleteSegment(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSegment(ctx, id); err != nil {
		return fmt.Errorf("segment %d: %w", id, err)
	}
	if s.logger != nil {
		s.logger.Info("segment deleted", "segment_id", id)
	}
	return nil
}

// ImportSegments creates every valid input and skips the rest. It returns
// the number created.
func (s *Service) ImportSegments(ctx context.Context, videoID string, in []SegmentInput) (int, error) {
	if _, err := s.GetVideo(ctx, videoID); err != nil {
		return 0, err
	}
	created := 0
	for i, item := range in {
		item.VideoID = videoID
		if _, err := s.CreateSegment(ctx, item); err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping imported segment", "index", i, "label", item.Label, "error", err)
			}
			continue
		}
		created++
	}
	return created, nil
}

// ApplyIntent routes an editor intent to the store. Committed resizes and
// deletes are queued as jobs for the commit runner; a time selection
// creates a segment with label right away.
func (s *Service) ApplyIntent(ctx context.Context, videoID string, in timeline.Intent, label string) (*IntentResult, error) {
	if in == nil {
		return nil, fmt.Errorf("empty intent")
	}
	result := &IntentResult{Kind: in.Kind()}

	switch v := in.(type) {
	case timeline.SegmentResize:
		if !v.Committed {
			return result, nil
		}
		job, err := s.enqueueUpdate(ctx, videoID, v)
		if err != nil {
			return nil, err
		}
		result.Job = job

	case timeline.SegmentDelete:
		job, err := s.enqueueDelete(ctx, videoID, v.Segment.ID)
		if err != nil {
			return nil, err
		}
		result.Job = job

	case timeline.TimeSelection:
		seg, err := s.CreateSegment(ctx, SegmentInput{VideoID: videoID, Label: label, Start: v.Start, End: v.End})
		if err != nil {
			return nil, err
		}
		result.Segment = seg
	}
	return result, nil
}

func (s *Service) enqueueUpdate(ctx context.Context, videoID string, v timeline.SegmentResize) (*Job, error) {
	if err := s.checkOwner(ctx, videoID, v.ID); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(BoundsPayload{Start: v.Start, End: v.End, Edge: string(v.Edge)})
	if err != nil {
		return nil, err
	}
	return s.enqueue(ctx, JobTypeSegmentUpdate, videoID, v.ID, string(payload))
}

func (s *Service) enqueueDelete(ctx context.Context, videoID string, id int64) (*Job, error) {
	if err := s.checkOwner(ctx, videoID, id); err != nil {
		return nil, err
	}
	return s.enqueue(ctx, JobTypeSegmentDelete, videoID, id, "")
}

func (s *Service) checkOwner(ctx context.Context, videoID string, id int64) error {
	if id == 0 {
		return fmt.Errorf("segment id 0: %w", timeline.ErrUnresolvableSegmentID)
	}
	seg, err := s.GetSegment(ctx, id)
	if err != nil {
		return err
	}
	if seg.VideoID != videoID {
		return fmt.Errorf("segment %d of video %s: %w", id, videoID, ErrNotFound)
	}
	return nil
}

func (s *Service) enqueue(ctx context.Context, jobType, videoID string, segmentID int64, payload string) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      jobType,
		Status:    JobStatusPending,
		VideoID:   videoID,
		SegmentID: segmentID,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Debug("commit job queued", "job_id", job.ID, "type", jobType, "segment_id", segmentID)
	}
	return job, nil
}

// normalizeBounds clamps [start, end] into the video and enforces the
// minimum duration. A zero duration means unknown and skips the upper clamp.
func normalizeBounds(start, end, duration float64) (float64, float64, error) {
	if !finite(start) || !finite(end) {
		return 0, 0, fmt.Errorf("bounds [%v, %v]: %w", start, end, ErrInvalidSegment)
	}
	if end < start {
		start, end = end, start
	}
	start = math.Max(0, start)
	if duration > 0 {
		end = math.Min(end, duration)
	}
	if end-start < MinSegmentDuration {
		return 0, 0, fmt.Errorf("bounds [%v, %v] shorter than %v s: %w", start, end, MinSegmentDuration, ErrInvalidSegment)
	}
	return start, end, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
