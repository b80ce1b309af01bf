package timeline

// Metrics are the layout units of a rendering target. A browser uses
// pixels; a terminal uses cells.
type Metrics struct {
	MarkerHeight     float64
	RowHeight        float64
	RowContentHeight float64
	Padding          float64
	HandleWidth      float64
	DeleteWidth      float64
	VisibleRows      int
}

// DefaultMetrics are the pixel metrics of the browser timeline.
func DefaultMetrics() Metrics {
	return Metrics{
		MarkerHeight:     36,
		RowHeight:        56,
		RowContentHeight: 48,
		Padding:          12,
		HandleWidth:      6,
		DeleteWidth:      14,
		VisibleRows:      1,
	}
}

// TrackHeight is the full height of the track for rowCount rows.
func (m Metrics) TrackHeight(rowCount int) float64 {
	if rowCount < 1 {
		rowCount = 1
	}
	return m.MarkerHeight + float64(rowCount)*m.RowHeight + m.Padding
}

// ViewportHeight is the height of the scrolled viewport, showing at most
// VisibleRows rows and never fewer than one.
func (m Metrics) ViewportHeight(rowCount int) float64 {
	visible := rowCount
	if m.VisibleRows > 0 && visible > m.VisibleRows {
		visible = m.VisibleRows
	}
	if visible < 1 {
		visible = 1
	}
	return m.MarkerHeight + float64(visible)*m.RowHeight + m.Padding
}

// Hit is the result of hit-testing a pointer position.
type Hit struct {
	Zone      HitZone
	SegmentID int64
	Row       int
	Geometry  Geometry
}

// SegmentLayout is a segment ready to draw. Left and Width are percent of
// the track; during a drag they reflect the draft geometry.
type SegmentLayout struct {
	Segment
	Left     float64 `json:"left"`
	Width    float64 `json:"width"`
	Active   bool    `json:"active"`
	Dragging bool    `json:"dragging"`
}

type RowLayout struct {
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	RowNumber int             `json:"row_number"`
	Segments  []SegmentLayout `json:"segments"`
}

// Layout is the render-ready snapshot of the timeline.
type Layout struct {
	Duration      float64          `json:"duration"`
	CurrentTime   float64          `json:"current_time"`
	TrackWidth    float64          `json:"track_width"`
	Height        float64          `json:"height"`
	Zoom          float64          `json:"zoom"`
	Playhead      float64          `json:"playhead"`
	Markers       []Marker         `json:"markers"`
	Rows          []RowLayout      `json:"rows"`
	Selection     SelectionState   `json:"selection"`
	SelectionMode bool             `json:"selection_mode"`
	ShowWaveform  bool             `json:"show_waveform"`
	SelectedLabel string           `json:"selected_label,omitempty"`
	ActiveID      int64            `json:"active_segment_id,omitempty"`
	Menu          ContextMenuState `json:"context_menu"`
}
