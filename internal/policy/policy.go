// Package policy holds the presence policies driven by detector polls: the
// display blanking countdown, the sensitivity escalation and the direction
// watch. Policies keep their state explicitly and advance only when ticked;
// Runner supplies the ticks.
package policy

import (
	"time"

	"github.com/banshee-data/ltr11/internal/monitoring"
	"github.com/banshee-data/ltr11/internal/radar"
)

var logf = monitoring.Named("policy")

// Policy reacts to one detector reading per tick.
type Policy interface {
	// Tick advances the policy with the detection observed at now. An error
	// leaves the policy in the state it had before the tick.
	Tick(now time.Time, d radar.Detection) error
	Snapshot() Snapshot
}

// Snapshot is a copy of a policy's state for logging and tests.
type Snapshot struct {
	State          string    `json:"state"`
	Countdown      int       `json:"countdown,omitempty"`
	Threshold      uint8     `json:"threshold"`
	LastDetection  time.Time `json:"last_detection"`
	LastTransition time.Time `json:"last_transition"`
}

// DisplayActions turns the display off and on again.
type DisplayActions interface {
	Blank() error
	Wake() error
}

// Reconfigurer restarts acquisition with a new configuration.
// acquisition.Engine implements it.
type Reconfigurer interface {
	Reconfigure(cfg radar.Configuration) error
}
