// Package probe reads media metadata with ffprobe.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	maxStderrBytes = 4 * 1024
	defaultTimeout = 30 * time.Second
)

var ErrNoDuration = errors.New("media has no duration")

// Prober reads the metadata the editor needs from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*Result, error)
}

type Result struct {
	Duration  float64 `json:"duration"`
	FrameRate float64 `json:"frame_rate,omitempty"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Codec     string  `json:"codec,omitempty"`
}

// FFprobe runs the ffprobe executable as a subprocess.
type FFprobe struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewFFprobe(binary string, logger *slog.Logger) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary, timeout: defaultTimeout, logger: logger}
}

// Available reports whether the ffprobe binary can be found.
func (f *FFprobe) Available() bool {
	_, err := exec.LookPath(f.binary)
	return err == nil
}

func (f *FFprobe) Probe(ctx context.Context, path string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &tailWriter{buf: &stderr, limit: maxStderrBytes}

	start := time.Now()
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if f.logger != nil {
			f.logger.Warn("ffprobe failed", "exit_code", exitCode, "stderr_tail", strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("ffprobe exited %d: %w", exitCode, err)
	}

	res, err := Parse(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	if f.logger != nil {
		f.logger.Debug("ffprobe succeeded", "duration", res.Duration, "frame_rate", res.FrameRate, "elapsed_ms", time.Since(start).Milliseconds())
	}
	return res, nil
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// Parse decodes ffprobe's JSON output. The container duration is preferred;
// the video stream's is the fallback.
func Parse(data []byte) (*Result, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe JSON: %w", err)
	}

	res := &Result{}
	res.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		res.Codec = s.CodecName
		res.Width, res.Height = s.Width, s.Height
		res.FrameRate = parseRate(s.AvgFrameRate)
		if res.FrameRate == 0 {
			res.FrameRate = parseRate(s.RFrameRate)
		}
		if res.Duration <= 0 {
			res.Duration, _ = strconv.ParseFloat(s.Duration, 64)
		}
		break
	}
	if res.Duration <= 0 {
		return nil, ErrNoDuration
	}
	return res, nil
}

// parseRate parses "num/den" or a plain number. Invalid input yields 0.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// tailWriter keeps only the last limit bytes written.
type tailWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	w.buf.Write(p)
	if w.buf.Len() > w.limit {
		tail := append([]byte(nil), w.buf.Bytes()[w.buf.Len()-w.limit:]...)
		w.buf.Reset()
		w.buf.Write(tail)
	}
	return n, nil
}
