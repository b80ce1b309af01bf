package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/db"
	"github.com/heimdex/heimdex-annotate/internal/probe"
)

type testEnv struct {
	cfg     ServerConfig
	svc     *annotation.Service
	repo    *annotation.SQLiteRepository
	runner  *annotation.Runner
	handler http.Handler
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger := quietLogger()
	repo := annotation.NewRepository(database.Conn())
	svc := annotation.NewService(repo, logger)
	runner := annotation.NewRunner(svc, repo, logger)

	env := &testEnv{
		cfg: ServerConfig{
			Service:    svc,
			Repository: repo,
			Runner:     runner,
			Logger:     logger,
			StartTime:  time.Now(),
		},
		svc:    svc,
		repo:   repo,
		runner: runner,
	}
	env.handler = NewRouter(env.cfg)
	return env
}

// rebuild re-creates the router after cfg was changed.
func (e *testEnv) rebuild() {
	e.handler = NewRouter(e.cfg)
}

func (e *testEnv) addVideo(t *testing.T, duration float64) *annotation.Video {
	t.Helper()
	path := filepath.Join(t.TempDir(), "match.mp4")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))
	v, err := e.svc.AddVideo(context.Background(), path, duration, 25)
	require.NoError(t, err)
	return v
}

func (e *testEnv) addSegment(t *testing.T, videoID, label string, start, end float64) *annotation.SegmentRecord {
	t.Helper()
	seg, err := e.svc.CreateSegment(context.Background(), annotation.SegmentInput{VideoID: videoID, Label: label, Start: start, End: end})
	require.NoError(t, err)
	return seg
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "127.0.0.1:40000"
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "body: %s", rr.Body.String())
	return body
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), "body: %s", rr.Body.String())
}

type fakeProber struct {
	res *probe.Result
	err error
}

func (f *fakeProber) Probe(ctx context.Context, path string) (*probe.Result, error) {
	return f.res, f.err
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
