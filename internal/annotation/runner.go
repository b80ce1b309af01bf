package annotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/heimdex/heimdex-annotate/internal/logging"
	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

// Runner applies queued segment commits in submission order. A failed
// commit is reported through the notifier and is not retried; the edit it
// carried stays only in the editor that produced it.
type Runner struct {
	service      *Service
	repo         Repository
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool

	mu       sync.Mutex
	notify   timeline.NotificationSink
	onCommit func(*Job)
}

func NewRunner(service *Service, repo Repository, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		logger:       logger,
		pollInterval: 500 * time.Millisecond,
	}
}

func (r *Runner) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

// SetNotifier sets where commit outcomes are reported.
func (r *Runner) SetNotifier(n timeline.NotificationSink) {
	r.mu.Lock()
	r.notify = n
	r.mu.Unlock()
}

// OnCommit registers fn to run after each job finishes, failed or not. fn
// runs on the draining goroutine and must not call back into the Runner.
func (r *Runner) OnCommit(fn func(*Job)) {
	r.mu.Lock()
	r.onCommit = fn
	r.mu.Unlock()
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("commit runner started", "poll_interval", r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("commit runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("commit runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("commit runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Drain processes every pending job now unless the runner is paused. It
// returns the number of jobs processed.
func (r *Runner) Drain(ctx context.Context) int {
	if r.paused.Load() {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return 0
	}

	processed := 0
	for _, job := range jobs {
		if ctx.Err() != nil || r.paused.Load() {
			break
		}
		r.process(ctx, job)
		processed++
	}
	return processed
}

func (r *Runner) process(ctx context.Context, job *Job) {
	logger := logging.WithJobID(r.logger, job.ID).With("segment_id", job.SegmentID)
	logger.Debug("processing commit", "type", job.Type)

	if err := r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, ""); err != nil {
		logger.Error("failed to mark job running", "error", err)
		return
	}

	err := r.apply(ctx, job)
	if err != nil {
		job.Status, job.Error = JobStatusFailed, err.Error()
		logger.Warn("commit failed", "type", job.Type, "error", err)
		r.notifyLocked(timeline.NoticeError, fmt.Sprintf("Failed to save segment %d: %v", job.SegmentID, err))
	} else {
		job.Status = JobStatusCompleted
		logger.Info("commit applied", "type", job.Type)
	}
	if err := r.repo.UpdateJobStatus(ctx, job.ID, job.Status, job.Error); err != nil {
		logger.Error("failed to record job status", "error", err)
	}
	if r.onCommit != nil {
		r.onCommit(job)
	}
}

func (r *Runner) apply(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeSegmentUpdate:
		var p BoundsPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		_, err := r.service.UpdateSegment(ctx, job.SegmentID, p.Start, p.End)
		return err

	case JobTypeSegmentDelete:
		err := r.service.DeleteSegment(ctx, job.SegmentID)
		if errors.Is(err, ErrNotFound) {
			// Deleted twice; the segment is gone either way.
			return nil
		}
		if err == nil {
			r.notifyLocked(timeline.NoticeSuccess, fmt.Sprintf("Segment %d deleted", job.SegmentID))
		}
		return err

	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

func (r *Runner) notifyLocked(level timeline.NoticeLevel, text string) {
	if r.notify != nil {
		r.notify.Notify(level, text)
	}
}

// ActiveJobCount is the number of commits waiting or in progress.
func (r *Runner) ActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning || j.Status == JobStatusPending {
			count++
		}
	}
	return count
}
