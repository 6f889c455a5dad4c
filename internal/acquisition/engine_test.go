package acquisition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ltr11/internal/device"
	"github.com/banshee-data/ltr11/internal/driver/sim"
	"github.com/banshee-data/ltr11/internal/monitoring"
	"github.com/banshee-data/ltr11/internal/radar"
	"github.com/banshee-data/ltr11/internal/timeutil"
)

const port = "/dev/ttyACM0"

func init() {
	monitoring.SetLogger(nil)
}

type fixture struct {
	drv     *sim.Driver
	session *device.Session
	clock   *timeutil.MockClock
	engine  *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	drv := sim.New(port)
	s, err := device.Open(drv, port)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return &fixture{
		drv:     drv,
		session: s,
		clock:   clock,
		engine:  New(s, WithClock(clock)),
	}
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.engine.Start())
}

// expectedChannels is what a single unchunked read of n pairs from a fresh
// simulated FIFO de-interleaves to.
func expectedChannels(n int) (ifi, ifq []float64) {
	raw := make([]float64, 2*n)
	for i := range raw {
		raw[i] = sim.SampleValue(uint64(i))
	}
	return radar.Deinterleave(raw)
}

func TestFetch_ExactLength(t *testing.T) {
	for _, n := range []int{1, 100, 512, 1023, 1024, 1025, 2048, 2500, 5000} {
		f := newFixture(t)
		f.start(t)

		ifi, ifq, err := f.engine.Fetch(context.Background(), n)
		require.NoError(t, err, "n=%d", n)
		assert.Len(t, ifi, n, "n=%d", n)
		assert.Len(t, ifq, n, "n=%d", n)
	}
}

func TestFetch_ChunkingIsTransparent(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	ifi, ifq, err := f.engine.Fetch(context.Background(), 2500)
	require.NoError(t, err)

	var total int
	for _, r := range f.drv.Requests(port) {
		assert.LessOrEqual(t, int(r.Max), ChunkPairs)
		assert.Equal(t, r.Min, r.Max, "definite requests ask for exactly the chunk size")
		total += r.Pairs
	}
	assert.Equal(t, 2500, total)

	reqs := f.drv.Requests(port)
	require.Len(t, reqs, 3)
	assert.Equal(t, []int{1024, 1024, 452}, []int{reqs[0].Pairs, reqs[1].Pairs, reqs[2].Pairs})

	wantI, wantQ := expectedChannels(2500)
	assert.Equal(t, wantI, ifi)
	assert.Equal(t, wantQ, ifq)
}

func TestFetch_OverflowDiscardsEverything(t *testing.T) {
	for delivery := 0; delivery < 3; delivery++ {
		f := newFixture(t)
		f.drv.InjectOverflow(port, delivery)
		f.start(t)

		ifi, ifq, err := f.engine.Fetch(context.Background(), 2500)
		assert.ErrorIs(t, err, ErrFifoOverflow, "overflow on chunk %d", delivery)
		assert.Nil(t, ifi)
		assert.Nil(t, ifq)
		assert.Len(t, f.drv.Requests(port), delivery+1, "fetch stops at the overflowing chunk")
	}
}

func TestFetch_InvalidCount(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, _, err := f.engine.Fetch(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, _, err = f.engine.Fetch(context.Background(), -5)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestFetchRaw_DefiniteCount(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	block, err := f.engine.FetchRaw(context.Background(), 16)
	require.NoError(t, err)
	assert.Equal(t, 16, block.Pairs())
	assert.Len(t, block.Samples, 32)
	assert.False(t, block.Overflow)

	reqs := f.drv.Requests(port)
	require.Len(t, reqs, 1)
	assert.Equal(t, uint16(16), reqs[0].Min)
	assert.Equal(t, uint16(16), reqs[0].Max)
}

func TestFetchRaw_DrainDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.drv.SetProduceRate(port, 0)
	f.start(t)

	block, err := f.engine.FetchRaw(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, block.Samples)
	assert.Empty(t, f.clock.Sleeps(), "a drain never sleeps")

	reqs := f.drv.Requests(port)
	require.Len(t, reqs, 1)
	assert.Equal(t, uint16(0), reqs[0].Min)
	assert.Equal(t, uint16(DrainPairs), reqs[0].Max)
}

func TestFetchRaw_DrainReturnsAvailable(t *testing.T) {
	f := newFixture(t)
	f.drv.SetProduceRate(port, 300)
	f.start(t)

	block, err := f.engine.FetchRaw(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 300, block.Pairs())
}

func TestFetchRaw_SpinWaitsUntilData(t *testing.T) {
	f := newFixture(t)
	f.drv.SetProduceRate(port, 100)
	f.start(t)

	block, err := f.engine.FetchRaw(context.Background(), 1024)
	require.NoError(t, err)
	assert.Equal(t, 1024, block.Pairs())

	sleeps := f.clock.Sleeps()
	require.Len(t, sleeps, 10, "ten empty polls before 1024 pairs are buffered")
	for _, d := range sleeps {
		assert.Equal(t, DefaultPollInterval, d)
	}
}

func TestFetchRaw_StalledDelivery(t *testing.T) {
	f := newFixture(t)
	f.drv.Stall(port, 3)
	f.start(t)

	block, err := f.engine.FetchRaw(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, 8, block.Pairs())
	assert.Len(t, f.clock.Sleeps(), 3)
}

func TestFetchRaw_PassesOverflowThrough(t *testing.T) {
	f := newFixture(t)
	f.drv.InjectOverflow(port, 0)
	f.start(t)

	block, err := f.engine.FetchRaw(context.Background(), 8)
	require.NoError(t, err, "FetchRaw reports overflow but does not fail")
	assert.True(t, block.Overflow)
	assert.Equal(t, 8, block.Pairs())
}

func TestFetchRaw_CallerCancels(t *testing.T) {
	f := newFixture(t)
	f.drv.Stall(port, 1_000_000)
	f.start(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.FetchRaw(ctx, 8)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.clock.Sleeps())
}

func TestFetchRaw_TransportError(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.drv.FailNext(port, sim.OpRawData, errors.New("usb reset"))

	_, err := f.engine.FetchRaw(context.Background(), 8)
	assert.ErrorIs(t, err, ErrAcquisition)
}

func TestFetchRaw_InvalidCount(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, err := f.engine.FetchRaw(context.Background(), DrainPairs+1)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = f.engine.FetchRaw(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestStartStop_TracksState(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, Idle, f.engine.State())

	err := f.engine.Stop()
	assert.ErrorIs(t, err, ErrAcquisition)
	assert.Equal(t, 0, f.drv.Stats(port).Stops, "stop while idle must not reach the device")

	require.NoError(t, f.engine.Start())
	assert.True(t, f.engine.Streaming())

	err = f.engine.Start()
	assert.ErrorIs(t, err, ErrAcquisition)
	assert.Equal(t, 1, f.drv.Stats(port).Starts, "second start must not reach the device")

	require.NoError(t, f.engine.Stop())
	assert.Equal(t, Idle, f.engine.State())
	assert.False(t, f.drv.Streaming(port))
}

func TestStart_DeviceRefuses(t *testing.T) {
	f := newFixture(t)
	f.drv.FailNext(port, sim.OpStartAcquisition, errors.New("busy"))

	err := f.engine.Start()
	assert.ErrorIs(t, err, ErrAcquisition)
	assert.Equal(t, Idle, f.engine.State())
}

func TestStop_DeviceRefuses(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.drv.FailNext(port, sim.OpStopAcquisition, errors.New("busy"))

	err := f.engine.Stop()
	assert.ErrorIs(t, err, ErrAcquisition)
	assert.Equal(t, Streaming, f.engine.State())
}

func TestEngine_ClosedSession(t *testing.T) {
	f := newFixture(t)
	f.session.Close()

	assert.ErrorIs(t, f.engine.Start(), device.ErrClosed)
	_, err := f.engine.FetchRaw(context.Background(), 1)
	assert.ErrorIs(t, err, device.ErrClosed)
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	require.NoError(t, f.engine.Discard(context.Background(), 1000))
	require.NoError(t, f.engine.Discard(context.Background(), 0))

	ifi, _, err := f.engine.Fetch(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, sim.SampleValue(2001), ifi[0], "fetch continues after the discarded samples")
}

func TestReconfigure(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	cfg := radar.DefaultConfiguration().WithThreshold(radar.LeastSensitive)
	require.NoError(t, f.engine.Reconfigure(cfg))

	assert.True(t, f.engine.Streaming())
	assert.True(t, f.drv.Streaming(port))
	assert.Equal(t, radar.LeastSensitive, f.drv.StoredConfiguration(port).DetectionThreshold)

	stats := f.drv.Stats(port)
	assert.Equal(t, 1, stats.SoftResets)
	assert.Equal(t, 2, stats.Starts)
}

func TestReconfigure_FromIdle(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.Reconfigure(radar.DefaultConfiguration()))
	assert.True(t, f.engine.Streaming())
}

func TestReconfigure_ApplyFailureLeavesIdle(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.drv.FailNext(port, sim.OpSetConfiguration, errors.New("nak"))

	err := f.engine.Reconfigure(radar.DefaultConfiguration())
	assert.ErrorIs(t, err, device.ErrConfiguration)
	assert.Equal(t, Idle, f.engine.State())
	assert.False(t, f.drv.Streaming(port))
}
