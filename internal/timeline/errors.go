package timeline

import "errors"

// Diagnostics raised inside interaction callbacks. They are logged and
// recovered locally; none of them is ever returned to a toolkit event loop.
var (
	// ErrInvalidGeometry marks a computed position or width that is
	// non-finite or negative. The value is clamped to 0.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrUnresolvableSegmentID marks an id that cannot be correlated back
	// to a segment. The dependent operation is aborted without intents.
	ErrUnresolvableSegmentID = errors.New("unresolvable segment id")

	// ErrMissingInteractionTarget marks a segment whose rendering target
	// cannot be located. Initialisation for it is skipped.
	ErrMissingInteractionTarget = errors.New("missing interaction target")

	// ErrSurfaceBusy is returned when a surface is already captured by
	// another pointer.
	ErrSurfaceBusy = errors.New("interaction surface busy")
)
