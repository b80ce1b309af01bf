package timeline

import "strings"

// ContextMenuState is the right-click menu. It stores the target's id, never
// the segment itself, so a deleted segment cannot be acted upon.
type ContextMenuState struct {
	Visible  bool  `json:"visible"`
	X        int   `json:"x"`
	Y        int   `json:"y"`
	TargetID int64 `json:"target_id,omitempty"`
}

// MenuAction is an entry of the segment context menu.
type MenuAction int

const (
	MenuEdit MenuAction = iota
	MenuDelete
	MenuPlay
)

// MenuActions lists the entries in display order.
var MenuActions = []MenuAction{MenuEdit, MenuDelete, MenuPlay}

func (a MenuAction) String() string {
	switch a {
	case MenuEdit:
		return "Edit"
	case MenuDelete:
		return "Delete"
	case MenuPlay:
		return "Play"
	default:
		return "unknown"
	}
}

type ContextMenu struct {
	state ContextMenuState
}

func (m *ContextMenu) Open(targetID int64, x, y int) {
	m.state = ContextMenuState{Visible: true, X: x, Y: y, TargetID: targetID}
}

func (m *ContextMenu) Close() {
	m.state = ContextMenuState{}
}

func (m *ContextMenu) Visible() bool { return m.state.Visible }

func (m *ContextMenu) State() ContextMenuState { return m.state }

// Target resolves the menu's segment against segments.
func (m *ContextMenu) Target(segments []Segment) (Segment, bool) {
	if !m.state.Visible {
		return Segment{}, false
	}
	return findSegment(segments, m.state.TargetID)
}

// Focus describes the element holding keyboard focus when a key arrives.
type Focus struct {
	Tag             string
	ContentEditable bool
}

// Editable reports whether keys belong to a text control rather than the
// timeline.
func (f Focus) Editable() bool {
	if f.ContentEditable {
		return true
	}
	switch strings.ToLower(f.Tag) {
	case "input", "textarea", "select":
		return true
	}
	return false
}

// IsDeleteKey reports whether key requests deletion of the active segment.
func IsDeleteKey(key string) bool {
	switch strings.ToLower(key) {
	case "delete", "backspace":
		return true
	}
	return false
}
