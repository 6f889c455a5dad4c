package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/ltr11/internal/radar"
	"github.com/banshee-data/ltr11/internal/timeutil"
)

// Nominal tick intervals of the bundled policies.
const (
	BlankingInterval   = time.Second
	EscalationInterval = 100 * time.Millisecond
)

// Poller reads one detector state. detection.Monitor implements it.
type Poller interface {
	Poll() (radar.Detection, error)
}

// Runner ticks a policy at a fixed interval with fresh detector readings.
type Runner struct {
	poller   Poller
	policy   Policy
	interval time.Duration
	clock    timeutil.Clock
	onTick   func(now time.Time, d radar.Detection, s Snapshot)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock sets the clock that drives the ticker and timestamps.
func WithClock(c timeutil.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithTickHook calls fn after every successful tick.
func WithTickHook(fn func(now time.Time, d radar.Detection, s Snapshot)) RunnerOption {
	return func(r *Runner) { r.onTick = fn }
}

// NewRunner returns a runner polling p's detector every interval.
func NewRunner(poller Poller, p Policy, interval time.Duration, opts ...RunnerOption) *Runner {
	r := &Runner{
		poller:   poller,
		policy:   p,
		interval: interval,
		clock:    timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Step polls the detector once and ticks the policy.
func (r *Runner) Step(now time.Time) error {
	d, err := r.poller.Poll()
	if err != nil {
		return err
	}
	if err := r.policy.Tick(now, d); err != nil {
		return err
	}
	if r.onTick != nil {
		r.onTick(now, d, r.policy.Snapshot())
	}
	return nil
}

// Run ticks until ctx is done or a poll or tick fails. The first tick happens
// one interval after Run is called.
func (r *Runner) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("invalid tick interval %v", r.interval)
	}
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if err := r.Step(r.clock.Now()); err != nil {
				return err
			}
		}
	}
}
