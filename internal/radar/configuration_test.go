package radar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfiguration_Valid(t *testing.T) {
	cfg := DefaultConfiguration()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ModeContinuous, cfg.Mode)
	assert.Equal(t, uint8(7), cfg.TXPowerLevel)
	assert.Equal(t, uint8(8), cfg.RXIFGain)
	assert.Equal(t, uint32(2000), cfg.SamplingFrequencyHz)
}

func TestConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
		ok     bool
	}{
		{"defaults", func(*Configuration) {}, true},
		{"threshold max", func(c *Configuration) { c.DetectionThreshold = 15 }, true},
		{"threshold too high", func(c *Configuration) { c.DetectionThreshold = 16 }, false},
		{"tx too high", func(c *Configuration) { c.TXPowerLevel = 8 }, false},
		{"rx gain too high", func(c *Configuration) { c.RXIFGain = 9 }, false},
		{"sampling too high", func(c *Configuration) { c.SamplingFrequencyHz = 3001 }, false},
		{"sampling zero in cw", func(c *Configuration) { c.SamplingFrequencyHz = 0 }, false},
		{"sampling ignored in pulsed", func(c *Configuration) {
			c.Mode = ModePulsed
			c.SamplingFrequencyHz = 99999
		}, true},
		{"bad mode", func(c *Configuration) { c.Mode = Mode(7) }, false},
		{"bad adc", func(c *Configuration) { c.ADC = ADCSource(3) }, false},
		{"hold time negative", func(c *Configuration) { c.HoldTime = -1 }, false},
		{"pulse width too high", func(c *Configuration) { c.PulseWidth = 4 }, false},
		{"rf index too high", func(c *Configuration) { c.RFCenterFreqIndex = 15 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestConfiguration_WithThreshold(t *testing.T) {
	base := DefaultConfiguration()
	near := base.WithThreshold(LeastSensitive)

	assert.Equal(t, LeastSensitive, near.DetectionThreshold)
	assert.Equal(t, MostSensitive, base.DetectionThreshold, "receiver must not be modified")
}

func TestConfiguration_Equivalent(t *testing.T) {
	a := DefaultConfiguration()
	a.Mode = ModePulsed
	b := a
	b.SamplingFrequencyHz = 1000
	assert.True(t, a.Equivalent(b), "sampling frequency is ignored in pulsed mode")

	b.HoldTime = 9
	assert.False(t, a.Equivalent(b))

	c := DefaultConfiguration()
	d := c
	d.PulseWidth = 2
	assert.True(t, c.Equivalent(d), "pulse width is ignored in continuous mode")
	d.SamplingFrequencyHz = 1500
	assert.False(t, c.Equivalent(d))
}

func TestConfiguration_JSON(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Mode = ModePulsed
	cfg.ADC = ADCBaseboard

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"pulsed"`)
	assert.Contains(t, string(data), `"adc":"baseboard"`)

	var back Configuration
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cfg, back)
}

func TestMode_UnmarshalText(t *testing.T) {
	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("CW")))
	assert.Equal(t, ModeContinuous, m)
	require.NoError(t, m.UnmarshalText([]byte("pulse")))
	assert.Equal(t, ModePulsed, m)
	assert.Error(t, m.UnmarshalText([]byte("fmcw")))

	var a ADCSource
	require.NoError(t, a.UnmarshalText([]byte("baseboard")))
	assert.Equal(t, ADCBaseboard, a)
	assert.Error(t, a.UnmarshalText([]byte("external")))
}
