package export

// Request selects the segments of one video to export.
type Request struct {
	VideoID   string   `json:"video_id"`
	Title     string   `json:"title,omitempty"`
	FrameRate float64  `json:"frame_rate,omitempty"`
	OutputDir string   `json:"output_dir,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

// Clip is one EDL event, in seconds of source media time.
type Clip struct {
	Name      string
	Label     string
	MediaPath string
	Start     float64
	End       float64
	SegmentID int64
}

type Response struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path,omitempty"`
	ClipCount  int    `json:"clip_count"`
	EDL        string `json:"edl,omitempty"`
}
