// Package radar holds the data model shared by the BGT60LTR11AIP session,
// acquisition and policy layers.
package radar

import (
	"fmt"
	"strings"
)

// Mode selects continuous-wave or pulsed operation.
type Mode int

const (
	ModeContinuous Mode = iota
	ModePulsed
)

func (m Mode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModePulsed:
		return "pulsed"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeContinuous && m != ModePulsed {
		return nil, fmt.Errorf("unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText accepts "continuous"/"cw" and "pulsed"/"pulse".
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "continuous", "cw", "0":
		*m = ModeContinuous
	case "pulsed", "pulse", "1":
		*m = ModePulsed
	default:
		return fmt.Errorf("unsupported mode %q: expected continuous or pulsed", text)
	}
	return nil
}

// ADCSource selects which ADCs digitise the IF signal.
type ADCSource int

const (
	// ADCInternal uses the ADCs of the BGT60LTR11 itself.
	ADCInternal ADCSource = iota
	// ADCBaseboard uses the ADCs of the RadarBaseboardMCU7.
	ADCBaseboard
)

func (a ADCSource) String() string {
	switch a {
	case ADCInternal:
		return "internal"
	case ADCBaseboard:
		return "baseboard"
	default:
		return fmt.Sprintf("adc(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a ADCSource) MarshalText() ([]byte, error) {
	if a != ADCInternal && a != ADCBaseboard {
		return nil, fmt.Errorf("unknown adc source %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ADCSource) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "internal", "0":
		*a = ADCInternal
	case "baseboard", "mcu7", "1":
		*a = ADCBaseboard
	default:
		return fmt.Errorf("unsupported adc source %q: expected internal or baseboard", text)
	}
	return nil
}

// Limits of the configuration fields as documented for the BGT60LTR11AIP.
const (
	MaxPulseWidth         = 3
	MaxPulseRepetition    = 3
	MaxHoldTime           = 15
	MaxDetectionThreshold = 15
	MaxTXPowerLevel       = 7
	MaxRXIFGain           = 8
	MaxSamplingFrequency  = 3000
	MaxRFCenterFreqIndex  = 14

	// MostSensitive and LeastSensitive are the threshold extremes; lower
	// thresholds detect weaker (farther) targets.
	MostSensitive  uint8 = 0
	LeastSensitive uint8 = MaxDetectionThreshold
)

// Configuration is the device configuration record. Field order matches the
// native configuration structure.
type Configuration struct {
	Mode                Mode      `json:"mode" yaml:"mode"`
	PulseWidth          int       `json:"pulse_width" yaml:"pulse_width"`
	PulseRepetition     int       `json:"pulse_repetition" yaml:"pulse_repetition"`
	HoldTime            int       `json:"hold_time" yaml:"hold_time"`
	DetectionThreshold  uint8     `json:"detection_threshold" yaml:"detection_threshold"`
	TXPowerLevel        uint8     `json:"tx_power_level" yaml:"tx_power_level"`
	RXIFGain            uint8     `json:"rx_if_gain" yaml:"rx_if_gain"`
	ADC                 ADCSource `json:"adc" yaml:"adc"`
	SamplingFrequencyHz uint32    `json:"sampling_frequency_hz" yaml:"sampling_frequency_hz"`
	RFCenterFreqIndex   uint8     `json:"rf_center_freq_index" yaml:"rf_center_freq_index"`
}

// DefaultConfiguration returns the defaults the native library documents for
// set_configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		Mode:                ModeContinuous,
		PulseWidth:          0,
		PulseRepetition:     1,
		HoldTime:            4,
		DetectionThreshold:  MostSensitive,
		TXPowerLevel:        7,
		RXIFGain:            8,
		ADC:                 ADCInternal,
		SamplingFrequencyHz: 2000,
		RFCenterFreqIndex:   1,
	}
}

// WithThreshold returns a copy of c using the given detection threshold.
func (c Configuration) WithThreshold(threshold uint8) Configuration {
	c.DetectionThreshold = threshold
	return c
}

// Validate checks every field against its documented range. The device
// performs its own validation; this is only used for configuration files.
func (c Configuration) Validate() error {
	if c.Mode != ModeContinuous && c.Mode != ModePulsed {
		return fmt.Errorf("invalid mode %d", int(c.Mode))
	}
	if c.PulseWidth < 0 || c.PulseWidth > MaxPulseWidth {
		return fmt.Errorf("invalid pulse_width %d: must be between 0 and %d", c.PulseWidth, MaxPulseWidth)
	}
	if c.PulseRepetition < 0 || c.PulseRepetition > MaxPulseRepetition {
		return fmt.Errorf("invalid pulse_repetition %d: must be between 0 and %d", c.PulseRepetition, MaxPulseRepetition)
	}
	if c.HoldTime < 0 || c.HoldTime > MaxHoldTime {
		return fmt.Errorf("invalid hold_time %d: must be between 0 and %d", c.HoldTime, MaxHoldTime)
	}
	if c.DetectionThreshold > MaxDetectionThreshold {
		return fmt.Errorf("invalid detection_threshold %d: must be between 0 and %d", c.DetectionThreshold, MaxDetectionThreshold)
	}
	if c.TXPowerLevel > MaxTXPowerLevel {
		return fmt.Errorf("invalid tx_power_level %d: must be between 0 and %d", c.TXPowerLevel, MaxTXPowerLevel)
	}
	if c.RXIFGain > MaxRXIFGain {
		return fmt.Errorf("invalid rx_if_gain %d: must be between 0 and %d", c.RXIFGain, MaxRXIFGain)
	}
	if c.ADC != ADCInternal && c.ADC != ADCBaseboard {
		return fmt.Errorf("invalid adc source %d", int(c.ADC))
	}
	// Pulsed mode derives its rate from the pulse repetition time.
	if c.Mode == ModeContinuous && (c.SamplingFrequencyHz == 0 || c.SamplingFrequencyHz > MaxSamplingFrequency) {
		return fmt.Errorf("invalid sampling_frequency_hz %d: must be between 1 and %d", c.SamplingFrequencyHz, MaxSamplingFrequency)
	}
	if c.RFCenterFreqIndex > MaxRFCenterFreqIndex {
		return fmt.Errorf("invalid rf_center_freq_index %d: must be between 0 and %d", c.RFCenterFreqIndex, MaxRFCenterFreqIndex)
	}
	return nil
}

// Equivalent reports whether two configurations agree on every field that
// the given mode does not ignore. Sampling frequency is ignored in pulsed
// mode; pulse width and repetition are ignored in continuous mode.
func (c Configuration) Equivalent(other Configuration) bool {
	a, b := c, other
	if a.Mode == ModePulsed {
		a.SamplingFrequencyHz, b.SamplingFrequencyHz = 0, 0
	} else {
		a.PulseWidth, b.PulseWidth = 0, 0
		a.PulseRepetition, b.PulseRepetition = 0, 0
	}
	return a == b
}

func (c Configuration) String() string {
	return fmt.Sprintf("mode=%s pulse_width=%d pulse_repetition=%d hold_time=%d threshold=%d tx=%d rx_gain=%d adc=%s fs=%dHz rf=%d",
		c.Mode, c.PulseWidth, c.PulseRepetition, c.HoldTime, c.DetectionThreshold,
		c.TXPowerLevel, c.RXIFGain, c.ADC, c.SamplingFrequencyHz, c.RFCenterFreqIndex)
}
