package playback

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))
	return path
}

func TestServeFile_Full(t *testing.T) {
	s := NewServer(nil)
	rec := httptest.NewRecorder()
	require.NoError(t, s.ServeFile(rec, httptest.NewRequest(http.MethodGet, "/", nil), writeVideo(t)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "0123456789", rec.Body.String())
}

func TestServeFile_Partial(t *testing.T) {
	s := NewServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	require.NoError(t, s.ServeFile(rec, req, writeVideo(t)))

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 2-5/10", rec.Header().Get("Content-Range"))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "2345", string(body))
}

func TestServeFile_Unsatisfiable(t *testing.T) {
	s := NewServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Range", "bytes=50-")
	rec := httptest.NewRecorder()
	require.NoError(t, s.ServeFile(rec, req, writeVideo(t)))

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */10", rec.Header().Get("Content-Range"))
}

func TestServeFile_Missing(t *testing.T) {
	s := NewServer(nil)
	rec := httptest.NewRecorder()
	require.NoError(t, s.ServeFile(rec, httptest.NewRequest(http.MethodGet, "/", nil), filepath.Join(t.TempDir(), "gone.mp4")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
