package tui

import (
	"math"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

const (
	// cellPx is the layout width of one terminal column. It keeps the
	// 10px minimum segment width at a few cells.
	cellPx = 4.0

	gutterWidth = 16
	// headerLines are the title and the two ruler lines above the rows.
	headerLines = 3
	// footerLines are the menu/prompt line and the status line; help comes
	// after them.
	footerLines = 2
)

// terminalMetrics describe a track where one row is one terminal line and
// one column is cellPx layout units.
func terminalMetrics() timeline.Metrics {
	return timeline.Metrics{
		MarkerHeight:     2,
		RowHeight:        1,
		RowContentHeight: 1,
		Padding:          0,
		HandleWidth:      cellPx,
		DeleteWidth:      cellPx,
		VisibleRows:      0,
	}
}

func (m *Model) resize(width, height int) {
	if width < gutterWidth+10 {
		width = gutterWidth + 10
	}
	if height < headerLines+footerLines+2 {
		height = headerLines + footerLines + 2
	}
	m.width, m.height = width, height
	m.help.Width = width
	m.tl.SetTrackWidth(float64(m.trackCells()) * cellPx)
	m.clampScroll()
}

func (m *Model) trackCells() int {
	return m.width - gutterWidth - 1
}

// visibleRows is the number of lane lines that fit between header and
// footer.
func (m *Model) visibleRows() int {
	helpLines := lipgloss.Height(m.help.View(m.keys))
	n := m.height - headerLines - footerLines - helpLines
	if n < 1 {
		n = 1
	}
	return n
}

func (m *Model) clampScroll() {
	maxScroll := len(m.tl.Rows()) - m.visibleRows()
	if maxScroll < 0 {
		maxScroll = 0
	}
	m.scroll = max(0, min(m.scroll, maxScroll))
}

// columnToPx maps a screen column to the layout x at the column's centre.
func columnToPx(col int) float64 {
	return float64(col-gutterWidth)*cellPx + cellPx/2
}

// pxToColumn maps a layout x to the track cell holding it.
func pxToColumn(px float64) int {
	return int(math.Floor(px / cellPx))
}

// lineToY maps a screen line to the layout y at the line's centre, or false
// when the line is outside the ruler and the visible rows.
func (m *Model) lineToY(line int) (float64, bool) {
	metrics := terminalMetrics()
	switch {
	case line < 1:
		return 0, false
	case line < headerLines:
		return float64(line-1) + 0.5, true
	case line < headerLines+m.visibleRows():
		return metrics.MarkerHeight + float64(m.scroll+line-headerLines) + 0.5, true
	}
	return 0, false
}

func (m *Model) menuLine() int {
	return headerLines + m.visibleRows()
}

func (m *Model) pointer(msg tea.MouseMsg, y float64) timeline.PointerEvent {
	x := columnToPx(msg.X)
	x = math.Max(0, math.Min(x, m.tl.TrackWidth()))
	return timeline.PointerEvent{PointerID: pointerID, X: x, Y: y}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll--
		m.clampScroll()
		return
	case tea.MouseButtonWheelDown:
		m.scroll++
		m.clampScroll()
		return
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		if m.pressed {
			y, _ := m.lineToY(msg.Y)
			m.tl.PointerMove(m.pointer(msg, y))
		}
		return

	case tea.MouseActionRelease:
		if !m.pressed {
			return
		}
		m.pressed = false
		y, _ := m.lineToY(msg.Y)
		m.tl.PointerUp(m.pointer(msg, y))
		return
	}

	if msg.Action != tea.MouseActionPress {
		return
	}

	menu := m.tl.Menu()
	if menu.Visible && msg.Y == m.menuLine() {
		if action, ok := m.menuActionAt(menu, msg.X); ok {
			m.tl.RunMenuAction(action)
			return
		}
		m.tl.Click(true)
		return
	}
	m.tl.Click(false)

	y, ok := m.lineToY(msg.Y)
	if !ok || msg.X < gutterWidth || msg.X >= gutterWidth+m.trackCells() {
		if msg.X < gutterWidth && ok {
			m.selectGutterRow(msg.Y)
		}
		return
	}
	ev := m.pointer(msg, y)

	switch msg.Button {
	case tea.MouseButtonLeft:
		m.pressed = true
		m.tl.PointerDown(ev)
	case tea.MouseButtonRight:
		m.tl.OpenContextMenu(ev, msg.X, msg.Y)
	}
}

// selectGutterRow moves the clicked row's label to the top.
func (m *Model) selectGutterRow(line int) {
	idx := m.scroll + line - headerLines
	rows := m.tl.Rows()
	if line < headerLines || idx >= len(rows) {
		return
	}
	m.tl.SelectLabel(rows[idx].Label)
}
