package annotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

type noticeLog struct {
	levels []timeline.NoticeLevel
	texts  []string
}

func (n *noticeLog) Notify(level timeline.NoticeLevel, text string) {
	n.levels = append(n.levels, level)
	n.texts = append(n.texts, text)
}

func TestRunner_AppliesCommitsInOrder(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	v := addVideo(t, svc, 100)
	seg, err := svc.CreateSegment(ctx, SegmentInput{VideoID: v.ID, Label: "polyp", Start: 10, End: 20})
	require.NoError(t, err)

	for _, end := range []float64{30, 40, 25} {
		_, err := svc.ApplyIntent(ctx, v.ID, timeline.SegmentResize{ID: seg.ID, Start: 10, End: end, Edge: timeline.EdgeEnd, Committed: true}, "")
		require.NoError(t, err)
	}

	var done []*Job
	runner := NewRunner(svc, repo, svc.logger)
	runner.OnCommit(func(j *Job) { done = append(done, j) })
	assert.Equal(t, 3, runner.ActiveJobCount(ctx))

	assert.Equal(t, 3, runner.Drain(ctx))
	require.Len(t, done, 3)
	for _, j := range done {
		assert.Equal(t, JobStatusCompleted, j.Status)
	}

	got, err := svc.GetSegment(ctx, seg.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, got.End, "last commit wins")
	assert.Equal(t, 0, runner.ActiveJobCount(ctx))
}

func TestRunner_FailureNotifies(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	v := addVideo(t, svc, 100)
	seg, err := svc.CreateSegment(ctx, SegmentInput{VideoID: v.ID, Label: "polyp", Start: 10, End: 20})
	require.NoError(t, err)

	res, err := svc.ApplyIntent(ctx, v.ID, timeline.SegmentResize{ID: seg.ID, Start: 10, End: 30, Committed: true}, "")
	require.NoError(t, err)
	// The segment disappears before the commit lands.
	require.NoError(t, repo.DeleteSegment(ctx, seg.ID))

	notes := &noticeLog{}
	runner := NewRunner(svc, repo, svc.logger)
	runner.SetNotifier(notes)
	runner.Drain(ctx)

	job, err := repo.GetJob(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "not found")
	require.Len(t, notes.levels, 1)
	assert.Equal(t, timeline.NoticeError, notes.levels[0])
}

func TestRunner_DeleteTwiceSucceeds(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	v := addVideo(t, svc, 100)
	seg, err := svc.CreateSegment(ctx, SegmentInput{VideoID: v.ID, Label: "polyp", Start: 10, End: 20})
	require.NoError(t, err)

	_, err = svc.ApplyIntent(ctx, v.ID, timeline.SegmentDelete{Segment: seg.Timeline()}, "")
	require.NoError(t, err)
	_, err = svc.ApplyIntent(ctx, v.ID, timeline.SegmentDelete{Segment: seg.Timeline()}, "")
	require.NoError(t, err)

	notes := &noticeLog{}
	runner := NewRunner(svc, repo, svc.logger)
	runner.SetNotifier(notes)
	assert.Equal(t, 2, runner.Drain(ctx))

	jobs, err := repo.ListJobs(ctx, 10)
	require.NoError(t, err)
	for _, j := range jobs {
		assert.Equal(t, JobStatusCompleted, j.Status)
	}
	assert.Equal(t, []timeline.NoticeLevel{timeline.NoticeSuccess}, notes.levels)
}

func TestRunner_PauseSkipsDrain(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	v := addVideo(t, svc, 100)
	seg, err := svc.CreateSegment(ctx, SegmentInput{VideoID: v.ID, Label: "polyp", Start: 10, End: 20})
	require.NoError(t, err)
	_, err = svc.ApplyIntent(ctx, v.ID, timeline.SegmentDelete{Segment: seg.Timeline()}, "")
	require.NoError(t, err)

	runner := NewRunner(svc, repo, svc.logger)
	runner.Pause()
	assert.True(t, runner.IsPaused())
	assert.Equal(t, 0, runner.Drain(ctx))
	runner.Resume()
	assert.Equal(t, 1, runner.Drain(ctx))
}

func TestRunner_StartStops(t *testing.T) {
	svc, repo := setupService(t)
	runner := NewRunner(svc, repo, svc.logger)
	runner.SetPollInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	require.Eventually(t, runner.IsRunning, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
	assert.False(t, runner.IsRunning())
}
