package tui

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/heimdex/heimdex-annotate/internal/timeline"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	playheadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c")).Bold(true)
	selectionStyle = lipgloss.NewStyle().Background(lipgloss.Color("#34495e")).Foreground(lipgloss.Color("#ecf0f1"))
	menuStyle      = lipgloss.NewStyle().Reverse(true)
	modeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#f1c40f")).Bold(true)

	noticeStyles = map[timeline.NoticeLevel]lipgloss.Style{
		timeline.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#3498db")),
		timeline.NoticeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#2ecc71")),
		timeline.NoticeWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#f39c12")),
		timeline.NoticeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c")).Bold(true),
	}
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	l := m.tl.Layout()

	lines := []string{
		m.titleLine(l),
		strings.Repeat(" ", gutterWidth) + m.rulerLabels(l),
		dimStyle.Render(padRight("time", gutterWidth)) + m.rulerTicks(l),
	}
	lines = append(lines, m.rowLines(l)...)
	lines = append(lines, m.menuOrPrompt(l), m.statusView(l), m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func (m *Model) titleLine(l timeline.Layout) string {
	state := "⏸"
	if m.clock.Playing() {
		state = "▶"
	}
	parts := []string{
		titleStyle.Render(m.video.Filename),
		state + " " + timeline.FormatTime(l.CurrentTime) + " / " + timeline.FormatTime(l.Duration),
		fmt.Sprintf("zoom %.1fx", l.Zoom),
	}
	if l.SelectionMode {
		parts = append(parts, modeStyle.Render("SELECT"))
	}
	if l.SelectedLabel != "" {
		parts = append(parts, "label: "+m.displayName(l.SelectedLabel))
	}
	return truncate(strings.Join(parts, "  "), m.width)
}

// cellOf maps a track percentage to a track cell.
func (m *Model) cellOf(percent float64) int {
	cells := m.trackCells()
	c := pxToColumn(percent / 100 * float64(cells) * cellPx)
	return max(0, min(c, cells-1))
}

func (m *Model) rulerLabels(l timeline.Layout) string {
	cells := m.trackCells()
	buf := []rune(strings.Repeat(" ", cells))
	next := 0
	for _, mk := range l.Markers {
		col := m.cellOf(mk.Position)
		label := []rune(mk.Label)
		if col < next || col+len(label) > cells {
			continue
		}
		copy(buf[col:], label)
		next = col + len(label) + 1
	}
	return dimStyle.Render(string(buf))
}

func (m *Model) rulerTicks(l timeline.Layout) string {
	cells := m.trackCells()
	out := make([]string, cells)
	for i := range out {
		out[i] = dimStyle.Render("─")
	}
	for _, mk := range l.Markers {
		out[m.cellOf(mk.Position)] = dimStyle.Render("┬")
	}
	if sel := l.Selection; sel.IsSelecting {
		lo, hi := m.cellOf(math.Min(sel.StartPercent, sel.EndPercent)), m.cellOf(math.Max(sel.StartPercent, sel.EndPercent))
		for c := lo; c <= hi; c++ {
			out[c] = selectionStyle.Render("═")
		}
	}
	if l.Duration > 0 {
		out[m.cellOf(l.Playhead)] = playheadStyle.Render("▼")
	}
	return strings.Join(out, "")
}

func (m *Model) rowLines(l timeline.Layout) []string {
	visible := m.visibleRows()
	lines := make([]string, 0, visible)
	for i := m.scroll; i < m.scroll+visible; i++ {
		if i >= len(l.Rows) {
			gutter := ""
			if len(l.Rows) == 0 && i == 0 {
				gutter = "(no segments)"
			}
			lines = append(lines, dimStyle.Render(padRight(gutter, gutterWidth))+m.emptyTrack(l))
			continue
		}
		lines = append(lines, m.rowLine(l, l.Rows[i]))
	}
	return lines
}

func (m *Model) emptyTrack(l timeline.Layout) string {
	out := m.baseCells(l)
	return strings.Join(out, "")
}

func (m *Model) baseCells(l timeline.Layout) []string {
	out := make([]string, m.trackCells())
	for i := range out {
		out[i] = " "
	}
	if sel := l.Selection; sel.IsSelecting {
		lo, hi := m.cellOf(math.Min(sel.StartPercent, sel.EndPercent)), m.cellOf(math.Max(sel.StartPercent, sel.EndPercent))
		for c := lo; c <= hi; c++ {
			out[c] = selectionStyle.Render(" ")
		}
	}
	if l.Duration > 0 {
		out[m.cellOf(l.Playhead)] = playheadStyle.Render("│")
	}
	return out
}

func (m *Model) rowLine(l timeline.Layout, row timeline.RowLayout) string {
	name := truncate(m.displayName(row.Label), gutterWidth-5)
	gutter := fmt.Sprintf("%-*s %2d  ", gutterWidth-5, name, row.RowNumber)
	if row.Label == l.SelectedLabel {
		gutter = titleStyle.Render(gutter)
	}

	out := m.baseCells(l)
	for _, s := range row.Segments {
		m.paintSegment(out, s)
	}
	return gutter + strings.Join(out, "")
}

// segmentCells returns the cell span [from, to) of a segment layout.
func (m *Model) segmentCells(s timeline.SegmentLayout) (int, int) {
	cells := m.trackCells()
	tw := float64(cells) * cellPx
	from := pxToColumn(s.Left / 100 * tw)
	to := int(math.Ceil((s.Left + s.Width) / 100 * tw / cellPx))
	from = max(0, min(from, cells-1))
	to = max(from+1, min(to, cells))
	return from, to
}

func (m *Model) paintSegment(out []string, s timeline.SegmentLayout) {
	from, to := m.segmentCells(s)
	style := lipgloss.NewStyle().
		Background(lipgloss.Color(s.Color)).
		Foreground(lipgloss.Color("#000000"))
	if s.Active {
		style = style.Bold(true).Underline(true)
	}
	if s.Dragging {
		style = style.Reverse(true)
	}

	width := to - from
	text := []rune(m.displayName(s.Label))
	for i := 0; i < width; i++ {
		ch := " "
		switch {
		case width == 1:
			ch = "█"
		case i == 0:
			ch = "▌"
		case i == width-1:
			ch = "▐"
		case i == width-2 && width >= 4:
			ch = "×"
		case i-1 < len(text) && i < width-2:
			ch = string(text[i-1])
		}
		out[from+i] = style.Render(ch)
	}
}

func (m *Model) menuOrPrompt(l timeline.Layout) string {
	if m.prompt.kind != promptNone {
		hint := ""
		if m.palette != nil {
			hint = dimStyle.Render("  tab completes · " + strings.Join(m.palette.Names(), " "))
		}
		return truncate(m.prompt.input.View()+hint, m.width)
	}
	if !l.Menu.Visible {
		return ""
	}
	start := m.menuStart(l.Menu)
	items := make([]string, 0, len(timeline.MenuActions))
	for _, e := range menuEntries() {
		items = append(items, menuStyle.Render(e))
	}
	return strings.Repeat(" ", start) + strings.Join(items, " ")
}

func menuEntries() []string {
	keys := map[int]string{}
	for k, i := range menuKeys {
		keys[i] = k
	}
	out := make([]string, len(timeline.MenuActions))
	for i, a := range timeline.MenuActions {
		out[i] = fmt.Sprintf(" %s %s ", keys[i], a.String())
	}
	return out
}

func menuWidth() int {
	w := 0
	for _, e := range menuEntries() {
		w += len([]rune(e)) + 1
	}
	return w - 1
}

func (m *Model) menuStart(menu timeline.ContextMenuState) int {
	return max(0, min(menu.X, m.width-menuWidth()))
}

// menuActionAt resolves a click on the menu line to an entry.
func (m *Model) menuActionAt(menu timeline.ContextMenuState, x int) (timeline.MenuAction, bool) {
	pos := m.menuStart(menu)
	for i, e := range menuEntries() {
		w := len([]rune(e))
		if x >= pos && x < pos+w {
			return timeline.MenuActions[i], true
		}
		pos += w + 1
	}
	return 0, false
}

func (m *Model) statusView(l timeline.Layout) string {
	if level, text, ok := m.status.Current(); ok {
		return truncate(noticeStyles[level].Render(text), m.width)
	}
	summary := fmt.Sprintf("%d segments · %d rows", len(m.tl.Segments()), len(l.Rows))
	if len(l.Rows) > m.visibleRows() {
		summary += fmt.Sprintf(" · rows %d-%d (wheel scrolls)", m.scroll+1, min(m.scroll+m.visibleRows(), len(l.Rows)))
	}
	if id, mode, ok := m.tl.Dragging(); ok {
		summary += fmt.Sprintf(" · %s #%d", mode, id)
	}
	return dimStyle.Render(summary)
}

func (m *Model) displayName(label string) string {
	if m.palette == nil {
		return label
	}
	return m.palette.DisplayName(label)
}

func sortedSegments(segs []timeline.Segment) []timeline.Segment {
	out := slices.Clone(segs)
	slices.SortFunc(out, func(a, b timeline.Segment) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func padRight(s string, width int) string {
	s = truncate(s, width)
	if n := lipgloss.Width(s); n < width {
		s += strings.Repeat(" ", width-n)
	}
	return s
}

// truncate cuts plain text to width runes. Styled text is cut by lipgloss.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if strings.Contains(s, "\x1b") {
		return lipgloss.NewStyle().MaxWidth(width).Render(s)
	}
	r := []rune(s)
	if width <= 1 {
		return string(r[:max(0, width)])
	}
	return string(r[:width-1]) + "…"
}
