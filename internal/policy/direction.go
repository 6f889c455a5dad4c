package policy

import (
	"time"

	"github.com/banshee-data/ltr11/internal/radar"
)

// DirectionWatch reports changes of the detected motion direction. The
// detector latches the direction of the last edge, so the reading is
// compared on every tick whether or not motion is currently flagged.
type DirectionWatch struct {
	report func(now time.Time, d radar.Detection)

	seen          bool
	last          radar.Direction
	lastDetection time.Time
	lastChange    time.Time
}

var _ Policy = (*DirectionWatch)(nil)

// NewDirectionWatch returns a watch calling report on the first tick and on
// every tick whose direction differs from the previous one.
func NewDirectionWatch(report func(now time.Time, d radar.Detection)) *DirectionWatch {
	return &DirectionWatch{report: report}
}

// Tick implements Policy. It never fails.
func (w *DirectionWatch) Tick(now time.Time, d radar.Detection) error {
	if d.Motion {
		w.lastDetection = now
	}
	if w.seen && d.Direction == w.last {
		return nil
	}
	w.seen = true
	w.last = d.Direction
	w.lastChange = now
	if w.report != nil {
		w.report(now, d)
	}
	return nil
}

// Snapshot implements Policy.
func (w *DirectionWatch) Snapshot() Snapshot {
	state := "unknown"
	if w.seen {
		state = w.last.String()
	}
	return Snapshot{
		State:          state,
		LastDetection:  w.lastDetection,
		LastTransition: w.lastChange,
	}
}
