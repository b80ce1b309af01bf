package timeline

// IntentKind names an intent on the wire and in logs.
type IntentKind string

const (
	KindSeek          IntentKind = "seek"
	KindPlayPause     IntentKind = "play-pause"
	KindSegmentSelect IntentKind = "segment-select"
	KindSegmentMove   IntentKind = "segment-move"
	KindSegmentResize IntentKind = "segment-resize"
	KindSegmentDelete IntentKind = "segment-delete"
	KindSegmentEdit   IntentKind = "segment-edit"
	KindTimeSelection IntentKind = "time-selection"
)

// Edge identifies which side of a segment a resize moved.
type Edge string

const (
	EdgeNone  Edge = ""
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

// Intent is a request emitted upward to the store or player. The timeline
// performs no further processing once an intent is emitted.
type Intent interface {
	Kind() IntentKind
}

type Seek struct {
	Time float64
}

type PlayPause struct{}

type SegmentSelect struct {
	ID int64
}

type SegmentMove struct {
	ID         int64
	Start, End float64
}

// SegmentResize is emitted for resize gestures and, with Committed set, as
// the final commit of every drag or resize session.
type SegmentResize struct {
	ID         int64
	Start, End float64
	Edge       Edge
	Committed  bool
}

type SegmentDelete struct {
	Segment Segment
}

type SegmentEdit struct {
	Segment Segment
}

type TimeSelection struct {
	Start, End float64
}

func (Seek) Kind() IntentKind          { return KindSeek }
func (PlayPause) Kind() IntentKind     { return KindPlayPause }
func (SegmentSelect) Kind() IntentKind { return KindSegmentSelect }
func (SegmentMove) Kind() IntentKind   { return KindSegmentMove }
func (SegmentResize) Kind() IntentKind { return KindSegmentResize }
func (SegmentDelete) Kind() IntentKind { return KindSegmentDelete }
func (SegmentEdit) Kind() IntentKind   { return KindSegmentEdit }
func (TimeSelection) Kind() IntentKind { return KindTimeSelection }

// IntentSink receives intents.
type IntentSink interface {
	Emit(Intent)
}

// IntentFunc adapts a function to IntentSink.
type IntentFunc func(Intent)

func (f IntentFunc) Emit(in Intent) { f(in) }

// PlaybackController is the player the timeline drives for seek and
// play/pause.
type PlaybackController interface {
	Seek(seconds float64)
	TogglePlay()
}

// NoticeLevel grades a user-facing notification.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// NotificationSink shows short messages to the user.
type NotificationSink interface {
	Notify(level NoticeLevel, text string)
}
