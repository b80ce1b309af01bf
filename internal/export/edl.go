package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
)

const (
	FormatEDL        = "edl"
	defaultFrameRate = 25.0
	maxNameLen       = 64
)

// ClipsFromSegments turns a video's segments into EDL clips ordered by start
// time. When labels is non-empty only those labels are kept. displayName maps
// a label to its clip name and may be nil.
func ClipsFromSegments(video *annotation.Video, segments []*annotation.SegmentRecord, labels []string, displayName func(string) string) []Clip {
	clips := make([]Clip, 0, len(segments))
	for _, s := range segments {
		if len(labels) > 0 && !slices.Contains(labels, s.Label) {
			continue
		}
		name := s.Label
		if displayName != nil {
			name = displayName(s.Label)
		}
		clips = append(clips, Clip{
			Name:      SanitizeName(name, maxNameLen),
			Label:     s.Label,
			MediaPath: video.Path,
			Start:     s.Start,
			End:       s.End,
			SegmentID: s.ID,
		})
	}
	slices.SortStableFunc(clips, func(a, b Clip) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return int(a.SegmentID - b.SegmentID)
	})
	return clips
}

// GenerateEDL renders clips as a CMX3600 edit list. Record time runs
// contiguously from zero.
func GenerateEDL(clips []Clip, title string, frameRate float64) string {
	if frameRate <= 0 {
		frameRate = defaultFrameRate
	}
	fps := int(math.Round(frameRate))

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(title, maxNameLen))}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordOffset := 0
	for i, clip := range clips {
		startMs := secondsToMs(clip.Start)
		endMs := secondsToMs(clip.End)
		durationMs := endMs - startMs

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				msToTimecode(startMs, fps), msToTimecode(endMs, fps),
				msToTimecode(recordOffset, fps), msToTimecode(recordOffset+durationMs, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clip.Name),
			fmt.Sprintf("* MEDIA PATH:  %s", clip.MediaPath),
		)
		if clip.Label != "" && clip.Label != clip.Name {
			lines = append(lines, fmt.Sprintf("* LABEL:  %s", clip.Label))
		}

		recordOffset += durationMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// WriteEDL writes the list to dir/<title>.edl via a temp file and rename.
func WriteEDL(dir, title, content string) (string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		return "", err
	}
	name := SanitizeName(title, maxNameLen)
	if name == "" || strings.Trim(name, ".") == "" {
		name = "export"
	}
	path := filepath.Join(dir, name+".edl")

	tmp, err := os.CreateTemp(dir, ".edl-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write EDL: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write EDL: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move EDL into place: %w", err)
	}
	return path, nil
}

func secondsToMs(s float64) int {
	return int(math.Round(s * 1000))
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
