package policy

import (
	"fmt"
	"time"

	"github.com/banshee-data/ltr11/internal/radar"
)

// EscalationState is a state of the Escalation policy.
type EscalationState int

const (
	// FarSensitive listens at maximum sensitivity for distant motion.
	FarSensitive EscalationState = iota
	// NearDesensitized ignores everything but nearby motion.
	NearDesensitized
)

func (s EscalationState) String() string {
	if s == NearDesensitized {
		return "near-desensitized"
	}
	return "far-sensitive"
}

// DefaultWaitTime is how long the escalated state is held without motion.
const DefaultWaitTime = 3 * time.Second

// EscalationConfig configures an Escalation policy.
type EscalationConfig struct {
	// Base is the configuration applied on every switch; only the detection
	// threshold changes between the two states.
	Base          radar.Configuration
	WaitTime      time.Duration
	NearThreshold uint8
	FarThreshold  uint8
}

// DefaultEscalationConfig returns the pulsed-mode setup the escalation demo
// runs with.
func DefaultEscalationConfig() EscalationConfig {
	base := radar.DefaultConfiguration()
	base.Mode = radar.ModePulsed
	return EscalationConfig{
		Base:          base,
		WaitTime:      DefaultWaitTime,
		NearThreshold: radar.LeastSensitive,
		FarThreshold:  radar.MostSensitive,
	}
}

// Escalation desensitizes the detector as soon as anything moves, so only
// nearby targets keep it triggered, and returns to full sensitivity once no
// motion was seen for longer than WaitTime.
type Escalation struct {
	cfg EscalationConfig
	r   Reconfigurer

	state          EscalationState
	lastDetection  time.Time
	lastTransition time.Time
}

var _ Policy = (*Escalation)(nil)

// NewEscalation returns a policy in the far-sensitive state. The caller is
// expected to have applied FarConfiguration before the first tick.
func NewEscalation(cfg EscalationConfig, r Reconfigurer) *Escalation {
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = DefaultWaitTime
	}
	return &Escalation{cfg: cfg, r: r, state: FarSensitive}
}

// FarConfiguration is the configuration of the far-sensitive state.
func (e *Escalation) FarConfiguration() radar.Configuration {
	return e.cfg.Base.WithThreshold(e.cfg.FarThreshold)
}

// NearConfiguration is the configuration of the near-desensitized state.
func (e *Escalation) NearConfiguration() radar.Configuration {
	return e.cfg.Base.WithThreshold(e.cfg.NearThreshold)
}

// State returns the current state.
func (e *Escalation) State() EscalationState { return e.state }

// Tick implements Policy. The wait counts from the last tick that saw motion
// and must be exceeded, not just reached, before reverting.
func (e *Escalation) Tick(now time.Time, d radar.Detection) error {
	switch e.state {
	case FarSensitive:
		if !d.Motion {
			return nil
		}
		if err := e.r.Reconfigure(e.NearConfiguration()); err != nil {
			return fmt.Errorf("desensitize: %w", err)
		}
		e.lastDetection = now
		e.transition(now, NearDesensitized)

	case NearDesensitized:
		if d.Motion {
			e.lastDetection = now
			return nil
		}
		if now.Sub(e.lastDetection) <= e.cfg.WaitTime {
			return nil
		}
		if err := e.r.Reconfigure(e.FarConfiguration()); err != nil {
			return fmt.Errorf("resensitize: %w", err)
		}
		e.transition(now, FarSensitive)
	}
	return nil
}

func (e *Escalation) transition(now time.Time, to EscalationState) {
	logf("escalation: %s -> %s", e.state, to)
	e.state = to
	e.lastTransition = now
}

func (e *Escalation) threshold() uint8 {
	if e.state == NearDesensitized {
		return e.cfg.NearThreshold
	}
	return e.cfg.FarThreshold
}

// Snapshot implements Policy.
func (e *Escalation) Snapshot() Snapshot {
	return Snapshot{
		State:          e.state.String(),
		Threshold:      e.threshold(),
		LastDetection:  e.lastDetection,
		LastTransition: e.lastTransition,
	}
}
