package probe

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "streams": [
    {"codec_type": "audio", "codec_name": "aac"},
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
     "avg_frame_rate": "30000/1001", "r_frame_rate": "30/1", "duration": "12.0"}
  ],
  "format": {"duration": "125.480000"}
}`

func TestParse(t *testing.T) {
	res, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.InDelta(t, 125.48, res.Duration, 1e-9)
	assert.InDelta(t, 29.97, res.FrameRate, 0.01)
	assert.Equal(t, "h264", res.Codec)
	assert.Equal(t, 1920, res.Width)
}

func TestParse_StreamDurationFallback(t *testing.T) {
	res, err := Parse([]byte(`{"streams":[{"codec_type":"video","avg_frame_rate":"0/0","r_frame_rate":"25/1","duration":"8.5"}],"format":{}}`))
	require.NoError(t, err)
	assert.Equal(t, 8.5, res.Duration)
	assert.Equal(t, 25.0, res.FrameRate)
}

func TestParse_NoDuration(t *testing.T) {
	_, err := Parse([]byte(`{"streams":[],"format":{}}`))
	assert.ErrorIs(t, err, ErrNoDuration)

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	assert.Equal(t, 25.0, parseRate("25/1"))
	assert.Equal(t, 24.0, parseRate("24"))
	assert.Equal(t, 0.0, parseRate("1/0"))
	assert.Equal(t, 0.0, parseRate(""))
}

func TestTailWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &tailWriter{buf: &buf, limit: 4}
	n, err := w.Write([]byte("abcdefgh"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "efgh", buf.String())
}

func fakeFFprobe(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestFFprobe_Probe(t *testing.T) {
	bin := fakeFFprobe(t, "cat <<'JSON'\n"+sample+"\nJSON\n")
	res, err := NewFFprobe(bin, nil).Probe(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.InDelta(t, 125.48, res.Duration, 1e-9)
}

func TestFFprobe_Failure(t *testing.T) {
	bin := fakeFFprobe(t, "echo 'clip.mp4: Invalid data' >&2\nexit 1\n")
	_, err := NewFFprobe(bin, nil).Probe(context.Background(), "clip.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited 1")
}

func TestFFprobe_Available(t *testing.T) {
	assert.False(t, NewFFprobe(filepath.Join(t.TempDir(), "missing"), nil).Available())
}
