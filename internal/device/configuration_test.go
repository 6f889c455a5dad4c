package device

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ltr11/internal/driver/sim"
	"github.com/banshee-data/ltr11/internal/radar"
)

func openSim(t *testing.T) (*sim.Driver, *Session) {
	t.Helper()
	drv := sim.New("COM3")
	s, err := Open(drv, "COM3")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return drv, s
}

func TestApply_RoundTrip(t *testing.T) {
	_, s := openSim(t)

	cfg := radar.Configuration{
		Mode:                radar.ModeContinuous,
		PulseWidth:          1,
		PulseRepetition:     2,
		HoldTime:            9,
		DetectionThreshold:  7,
		TXPowerLevel:        5,
		RXIFGain:            6,
		ADC:                 radar.ADCBaseboard,
		SamplingFrequencyHz: 2500,
		RFCenterFreqIndex:   3,
	}
	require.NoError(t, Apply(s, cfg))

	got, err := ReadConfiguration(s)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("configuration mismatch (-set +get):\n%s", diff)
	}
}

func TestApply_PulsedIgnoresSamplingFrequency(t *testing.T) {
	_, s := openSim(t)

	cfg := radar.DefaultConfiguration()
	cfg.Mode = radar.ModePulsed
	cfg.SamplingFrequencyHz = 2999
	require.NoError(t, Apply(s, cfg))

	got, err := ReadConfiguration(s)
	require.NoError(t, err)
	assert.True(t, cfg.Equivalent(got), "only mode-ignored fields may differ: %s vs %s", cfg, got)
}

func TestApply_RefusedByDevice(t *testing.T) {
	drv, s := openSim(t)
	before := drv.StoredConfiguration("COM3")

	cfg := radar.DefaultConfiguration()
	cfg.RXIFGain = 12
	err := Apply(s, cfg)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.False(t, s.Closed())
	assert.Equal(t, before, drv.StoredConfiguration("COM3"))
}

func TestReadConfiguration_TransportFailure(t *testing.T) {
	drv, s := openSim(t)
	drv.FailNext("COM3", sim.OpConfiguration, errors.New("crc"))

	_, err := ReadConfiguration(s)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestApply_ClosedSession(t *testing.T) {
	_, s := openSim(t)
	s.Close()

	assert.ErrorIs(t, Apply(s, radar.DefaultConfiguration()), ErrClosed)
	_, err := ReadConfiguration(s)
	assert.ErrorIs(t, err, ErrClosed)
}
