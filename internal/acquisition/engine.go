// Package acquisition streams I/Q samples out of the radar's sample FIFO.
//
// The engine tracks whether the device is streaming because the native
// start/stop calls are not idempotent. Fetches are split into chunks that fit
// the baseboard FIFO, and any overflow inside a fetch fails the whole fetch.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/ltr11/internal/device"
	"github.com/banshee-data/ltr11/internal/driver"
	"github.com/banshee-data/ltr11/internal/monitoring"
	"github.com/banshee-data/ltr11/internal/radar"
	"github.com/banshee-data/ltr11/internal/timeutil"
)

const (
	// ChunkPairs is the largest number of pairs requested in one FIFO read
	// by Fetch. Larger requests risk FIFO overflows.
	ChunkPairs = 1024
	// DrainPairs is the upper bound used when reading whatever is available.
	DrainPairs = driver.MaxRawPairs
	// DefaultPollInterval is the wait between two empty FIFO reads.
	DefaultPollInterval = 20 * time.Millisecond
)

var (
	// ErrAcquisition is returned when the device refuses to start or stop
	// streaming or a raw-data read fails.
	ErrAcquisition = errors.New("acquisition failed")
	// ErrFifoOverflow is returned by Fetch when the FIFO dropped samples
	// during the fetch.
	ErrFifoOverflow = errors.New("FIFO overflow")
	// ErrInvalidCount is returned for sample counts out of range.
	ErrInvalidCount = errors.New("invalid sample count")
)

var logf = monitoring.Named("acquisition")

// State of the acquisition engine.
type State int

const (
	Idle State = iota
	Streaming
)

func (s State) String() string {
	if s == Streaming {
		return "streaming"
	}
	return "idle"
}

// Engine streams samples from one session. It is not safe for concurrent use.
type Engine struct {
	session      *device.Session
	clock        timeutil.Clock
	pollInterval time.Duration
	state        State
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for the polling wait.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPollInterval overrides the wait between two empty FIFO reads.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// New returns an idle engine over s.
func New(s *device.Session, opts ...Option) *Engine {
	e := &Engine{
		session:      s,
		clock:        timeutil.RealClock{},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the tracked streaming state.
func (e *Engine) State() State { return e.state }

// Streaming reports whether the engine is streaming.
func (e *Engine) Streaming() bool { return e.state == Streaming }

// Start begins data acquisition. Starting an engine that is already
// streaming fails without contacting the device.
func (e *Engine) Start() error {
	if e.state == Streaming {
		return fmt.Errorf("%w: already streaming", ErrAcquisition)
	}
	h, err := e.session.Handle()
	if err != nil {
		return err
	}
	if err := e.session.Driver().StartAcquisition(h); err != nil {
		return fmt.Errorf("%w: could not start data acquisition: %w", ErrAcquisition, err)
	}
	e.state = Streaming
	logf("session %s streaming", e.session.ID())
	return nil
}

// Stop ends data acquisition. Stopping an idle engine fails without
// contacting the device.
func (e *Engine) Stop() error {
	if e.state == Idle {
		return fmt.Errorf("%w: not streaming", ErrAcquisition)
	}
	h, err := e.session.Handle()
	if err != nil {
		return err
	}
	if err := e.session.Driver().StopAcquisition(h); err != nil {
		return fmt.Errorf("%w: could not stop data acquisition: %w", ErrAcquisition, err)
	}
	e.state = Idle
	logf("session %s idle", e.session.ID())
	return nil
}

// FetchRaw reads one block of interleaved samples.
//
// A positive count requests exactly count pairs. When none are buffered yet
// FetchRaw sleeps for the poll interval and asks again until samples arrive,
// the driver fails, or ctx is done; there is no timeout of its own.
//
// A zero count drains whatever is buffered (up to DrainPairs pairs) and
// returns at once, possibly with an empty block.
//
// The overflow flag is passed through; FetchRaw never discards data.
func (e *Engine) FetchRaw(ctx context.Context, count int) (radar.RawBlock, error) {
	if count < 0 || count > DrainPairs {
		return radar.RawBlock{}, fmt.Errorf("%w: %d pairs (max %d)", ErrInvalidCount, count, DrainPairs)
	}
	h, err := e.session.Handle()
	if err != nil {
		return radar.RawBlock{}, err
	}

	lo, hi := uint16(count), uint16(count)
	if count == 0 {
		lo, hi = 0, DrainPairs
	}

	drv := e.session.Driver()
	for {
		samples, overflow, err := drv.RawData(h, lo, hi)
		if err != nil {
			return radar.RawBlock{}, fmt.Errorf("%w: could not get raw data: %w", ErrAcquisition, err)
		}
		if len(samples) > 0 || count == 0 {
			if overflow {
				logf("session %s FIFO overflow, older samples lost", e.session.ID())
			}
			return radar.RawBlock{Samples: samples, Overflow: overflow}, nil
		}

		select {
		case <-ctx.Done():
			return radar.RawBlock{}, ctx.Err()
		default:
		}
		e.clock.Sleep(e.pollInterval)
	}
}

// Fetch reads exactly n I/Q pairs and returns the I and Q channels.
//
// The request is split into reads of at most ChunkPairs pairs. If any read
// reports a FIFO overflow the whole fetch fails with ErrFifoOverflow and the
// samples read so far are discarded: a batch with a gap is not returned.
func (e *Engine) Fetch(ctx context.Context, n int) (ifi, ifq []float64, err error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}

	raw := make([]float64, 0, 2*n)
	for remaining := n; remaining > 0; {
		chunk := min(remaining, ChunkPairs)
		block, err := e.FetchRaw(ctx, chunk)
		if err != nil {
			return nil, nil, err
		}
		if block.Overflow {
			return nil, nil, fmt.Errorf("%w: after %d of %d samples", ErrFifoOverflow, n-remaining, n)
		}
		raw = append(raw, block.Samples...)
		remaining -= block.Pairs()
	}

	ifi, ifq = radar.Deinterleave(raw[:2*n])
	return ifi, ifq, nil
}

// Discard fetches and drops n pairs, typically right after Start to skip
// the transient while the front end settles.
func (e *Engine) Discard(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	_, _, err := e.Fetch(ctx, n)
	return err
}

// Reconfigure soft-resets the device, applies cfg and starts streaming
// again. The reset stops acquisition, so the engine is idle between the
// reset and a successful start.
func (e *Engine) Reconfigure(cfg radar.Configuration) error {
	if err := e.session.SoftReset(); err != nil {
		return err
	}
	e.state = Idle
	if err := device.Apply(e.session, cfg); err != nil {
		return err
	}
	return e.Start()
}
