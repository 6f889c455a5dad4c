package policy

import (
	"fmt"
	"time"

	"github.com/banshee-data/ltr11/internal/radar"
)

// BlankingState is a state of the Blanking policy.
type BlankingState int

const (
	Active BlankingState = iota
	CountingDown
	Blanked
)

func (s BlankingState) String() string {
	switch s {
	case Active:
		return "awake-active"
	case CountingDown:
		return "awake-counting-down"
	case Blanked:
		return "blanked"
	}
	return fmt.Sprintf("BlankingState(%d)", int(s))
}

// DefaultCountdown is the number of motionless ticks before blanking.
const DefaultCountdown = 10

// BlankingConfig configures a Blanking policy.
type BlankingConfig struct {
	// Countdown is the number of consecutive ticks without motion after
	// which the display is blanked. Values below 1 select DefaultCountdown.
	Countdown int
	// Threshold is only reported in snapshots; the detector is configured
	// by the caller before the policy runs.
	Threshold uint8
}

// Blanking blanks the display once no motion was seen for Countdown ticks
// and wakes it on the first motion afterwards.
type Blanking struct {
	cfg     BlankingConfig
	actions DisplayActions

	state          BlankingState
	countdown      int
	lastDetection  time.Time
	lastTransition time.Time
}

var _ Policy = (*Blanking)(nil)

// NewBlanking returns an awake policy with a full countdown.
func NewBlanking(cfg BlankingConfig, actions DisplayActions) *Blanking {
	if cfg.Countdown < 1 {
		cfg.Countdown = DefaultCountdown
	}
	return &Blanking{
		cfg:       cfg,
		actions:   actions,
		state:     Active,
		countdown: cfg.Countdown,
	}
}

// State returns the current state.
func (b *Blanking) State() BlankingState { return b.state }

// Countdown returns the remaining motionless ticks before blanking.
func (b *Blanking) Countdown() int { return b.countdown }

// Tick implements Policy. The first motionless tick after motion already
// counts, so with a countdown of 10 the display blanks on the 10th tick.
func (b *Blanking) Tick(now time.Time, d radar.Detection) error {
	if d.Motion {
		b.lastDetection = now
	}

	switch b.state {
	case Active, CountingDown:
		if d.Motion {
			b.countdown = b.cfg.Countdown
			b.transition(now, Active)
			return nil
		}
		if b.countdown-1 > 0 {
			b.countdown--
			b.transition(now, CountingDown)
			return nil
		}
		if err := b.actions.Blank(); err != nil {
			return fmt.Errorf("blank display: %w", err)
		}
		b.countdown = 0
		b.transition(now, Blanked)

	case Blanked:
		if !d.Motion {
			return nil
		}
		if err := b.actions.Wake(); err != nil {
			return fmt.Errorf("wake display: %w", err)
		}
		b.countdown = b.cfg.Countdown
		b.transition(now, Active)
	}
	return nil
}

func (b *Blanking) transition(now time.Time, to BlankingState) {
	if b.state == to {
		return
	}
	logf("blanking: %s -> %s", b.state, to)
	b.state = to
	b.lastTransition = now
}

// Snapshot implements Policy.
func (b *Blanking) Snapshot() Snapshot {
	return Snapshot{
		State:          b.state.String(),
		Countdown:      b.countdown,
		Threshold:      b.cfg.Threshold,
		LastDetection:  b.lastDetection,
		LastTransition: b.lastTransition,
	}
}
