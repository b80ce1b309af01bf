package annotation

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateVideo(ctx context.Context, video *Video) error
	GetVideo(ctx context.Context, id string) (*Video, error)
	GetVideoByPath(ctx context.Context, path string) (*Video, error)
	ListVideos(ctx context.Context) ([]*Video, error)
	UpdateVideoDuration(ctx context.Context, id string, duration, frameRate float64) error
	DeleteVideo(ctx context.Context, id string) error

	UpsertLabel(ctx context.Context, label *Label) error
	ListLabels(ctx context.Context) ([]*Label, error)

	CreateSegment(ctx context.Context, seg *SegmentRecord) error
	GetSegment(ctx context.Context, id int64) (*SegmentRecord, error)
	ListSegments(ctx context.Context, videoID string) ([]*SegmentRecord, error)
	UpdateSegmentBounds(ctx context.Context, id int64, start, end float64) error
	UpdateSegmentLabel(ctx context.Context, id int64, label string) error
	DeleteSegment(ctx context.Context, id int64) error
	CountSegments(ctx context.Context, videoID string) (int, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateVideo(ctx context.Context, v *Video) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (id, path, filename, duration, frame_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, v.ID, v.Path, v.Filename, v.Duration, v.FrameRate, formatTime(v.CreatedAt))
	return err
}

func (r *SQLiteRepository) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, path, filename, duration, frame_rate, created_at
		FROM videos WHERE id = ?
	`, id)
	return scanVideo(row)
}

func (r *SQLiteRepository) GetVideoByPath(ctx context.Context, path string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, path, filename, duration, frame_rate, created_at
		FROM videos WHERE path = ?
	`, path)
	return scanVideo(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*Video, error) {
	var v Video
	var createdAt string
	err := row.Scan(&v.ID, &v.Path, &v.Filename, &v.Duration, &v.FrameRate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.CreatedAt = parseTime(createdAt)
	return &v, nil
}

func (r *SQLiteRepository) ListVideos(ctx context.Context) ([]*Video, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, path, filename, duration, frame_rate, created_at
		FROM videos ORDER BY created_at DESC, filename
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (r *SQLiteRepository) UpdateVideoDuration(ctx context.Context, id string, duration, frameRate float64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE videos SET duration = ?, frame_rate = ? WHERE id = ?", duration, frameRate, id)
	return err
}

func (r *SQLiteRepository) DeleteVideo(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) UpsertLabel(ctx context.Context, l *Label) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO labels (name, display_name, color, position) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			display_name = excluded.display_name,
			color = excluded.color,
			position = excluded.position
	`, l.Name, l.DisplayName, l.Color, l.Position)
	return err
}

func (r *SQLiteRepository) ListLabels(ctx context.Context) ([]*Label, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name, display_name, color, position FROM labels ORDER BY position, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []*Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.Name, &l.DisplayName, &l.Color, &l.Position); err != nil {
			return nil, err
		}
		labels = append(labels, &l)
	}
	return labels, rows.Err()
}

func (r *SQLiteRepository) CreateSegment(ctx context.Context, s *SegmentRecord) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO segments (video_id, label, start_time, end_time, avg_confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.VideoID, s.Label, s.Start, s.End, nullFloat(s.AvgConfidence), formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

const segmentColumns = "id, video_id, label, start_time, end_time, avg_confidence, created_at, updated_at"

func (r *SQLiteRepository) GetSegment(ctx context.Context, id int64) (*SegmentRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+segmentColumns+" FROM segments WHERE id = ?", id)
	return scanSegment(row)
}

func scanSegment(row scanner) (*SegmentRecord, error) {
	var s SegmentRecord
	var confidence sql.NullFloat64
	var createdAt, updatedAt string
	err := row.Scan(&s.ID, &s.VideoID, &s.Label, &s.Start, &s.End, &confidence, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if confidence.Valid {
		c := confidence.Float64
		s.AvgConfidence = &c
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

func (r *SQLiteRepository) ListSegments(ctx context.Context, videoID string) ([]*SegmentRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+segmentColumns+`
		FROM segments WHERE video_id = ? ORDER BY label, start_time, end_time, id
	`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []*SegmentRecord
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (r *SQLiteRepository) UpdateSegmentBounds(ctx context.Context, id int64, start, end float64) error {
	return r.execOne(ctx, `
		UPDATE segments SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?
	`, start, end, formatTime(time.Now()), id)
}

func (r *SQLiteRepository) UpdateSegmentLabel(ctx context.Context, id int64, label string) error {
	return r.execOne(ctx, `
		UPDATE segments SET label = ?, updated_at = ? WHERE id = ?
	`, label, formatTime(time.Now()), id)
}

func (r *SQLiteRepository) DeleteSegment(ctx context.Context, id int64) error {
	return r.execOne(ctx, "DELETE FROM segments WHERE id = ?", id)
}

func (r *SQLiteRepository) CountSegments(ctx context.Context, videoID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM segments WHERE video_id = ?", videoID).Scan(&count)
	return count, err
}

// execOne runs a statement that must touch exactly one row.
func (r *SQLiteRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, video_id, segment_id, payload, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.VideoID), nullInt(j.SegmentID),
		nullString(j.Payload), nullString(j.Error),
		formatTime(j.CreatedAt), formatTime(j.UpdatedAt))
	return err
}

const jobColumns = "id, type, status, video_id, segment_id, payload, error, created_at, updated_at"

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	return scanJob(row)
}

func scanJob(row scanner) (*Job, error) {
	var j Job
	var videoID, payload, errMsg sql.NullString
	var segmentID sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &j.Status, &videoID, &segmentID, &payload, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.VideoID = videoID.String
	j.SegmentID = segmentID.Int64
	j.Payload = payload.String
	j.Error = errMsg.String
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+jobColumns+`
		FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

// ListPendingJobs returns pending jobs in submission order.
func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+jobColumns+`
		FROM jobs WHERE status = 'pending' ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Rows written by SQL defaults use datetime('now').
		t, _ = time.Parse(time.DateTime, s)
	}
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(i int64) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: i, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
