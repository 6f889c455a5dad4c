// Package config loads the ltr11 configuration file.
//
// The file is YAML or JSON, chosen by extension. Every field is optional:
// values missing from the file keep the defaults returned by Defaults, so a
// file only needs to list what it changes.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/ltr11/internal/radar"
)

// ExampleConfigPath is the annotated example shipped with the repository.
const ExampleConfigPath = "config/ltr11.example.yaml"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Duration is a time.Duration written as a string like "100ms" in files.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Blank modes.
const (
	BlankModeOff  = "off"
	BlankModeLock = "lock"
)

// Config is the root of the configuration file.
type Config struct {
	Device      DeviceConfig        `json:"device" yaml:"device"`
	Radar       radar.Configuration `json:"radar" yaml:"radar"`
	Acquisition AcquisitionConfig   `json:"acquisition" yaml:"acquisition"`
	Blanking    BlankingConfig      `json:"blanking" yaml:"blanking"`
	Escalation  EscalationConfig    `json:"escalation" yaml:"escalation"`
}

// DeviceConfig selects the device.
type DeviceConfig struct {
	// Port is the serial port of the baseboard; empty opens the first
	// device found.
	Port        string                `json:"port" yaml:"port"`
	MinFirmware radar.FirmwareVersion `json:"min_firmware" yaml:"min_firmware"`
	// Simulate uses the built-in simulated device instead of the native
	// library.
	Simulate bool `json:"simulate" yaml:"simulate"`
}

// AcquisitionConfig tunes raw-data capture.
type AcquisitionConfig struct {
	PollInterval Duration `json:"poll_interval" yaml:"poll_interval"`
	// WarmupSamples are read and dropped after every start.
	WarmupSamples int `json:"warmup_samples" yaml:"warmup_samples"`
	// Samples is the number of I/Q pairs captured per frame.
	Samples int `json:"samples" yaml:"samples"`
}

// BlankingConfig tunes the display blanking policy.
type BlankingConfig struct {
	Interval  Duration `json:"interval" yaml:"interval"`
	Countdown int      `json:"countdown" yaml:"countdown"`
	// Mode is "off" to power the screen down or "lock" to lock the session.
	Mode string `json:"mode" yaml:"mode"`
	// BlankCommand and WakeCommand override the commands implied by Mode.
	BlankCommand []string `json:"blank_command,omitempty" yaml:"blank_command,omitempty"`
	WakeCommand  []string `json:"wake_command,omitempty" yaml:"wake_command,omitempty"`
	Sensitivity  uint8    `json:"sensitivity" yaml:"sensitivity"`
}

// EscalationConfig tunes the sensitivity escalation policy.
type EscalationConfig struct {
	Interval      Duration `json:"interval" yaml:"interval"`
	WaitTime      Duration `json:"wait_time" yaml:"wait_time"`
	NearThreshold uint8    `json:"near_threshold" yaml:"near_threshold"`
	FarThreshold  uint8    `json:"far_threshold" yaml:"far_threshold"`
}

// Defaults returns the configuration used when no file is given. The radar
// section is the pulsed-mode setup both presence demos run with.
func Defaults() *Config {
	r := radar.DefaultConfiguration()
	r.Mode = radar.ModePulsed
	r.ADC = radar.ADCBaseboard

	return &Config{
		Device: DeviceConfig{
			MinFirmware: radar.MinimumFirmware,
		},
		Radar: r,
		Acquisition: AcquisitionConfig{
			PollInterval:  Duration(20 * time.Millisecond),
			WarmupSamples: 0,
			Samples:       1024,
		},
		Blanking: BlankingConfig{
			Interval:    Duration(time.Second),
			Countdown:   10,
			Mode:        BlankModeOff,
			Sensitivity: 7,
		},
		Escalation: EscalationConfig{
			Interval:      Duration(100 * time.Millisecond),
			WaitTime:      Duration(3 * time.Second),
			NearThreshold: radar.LeastSensitive,
			FarThreshold:  radar.MostSensitive,
		},
	}
}

// Load reads the file at path on top of Defaults and validates the result.
// The file must end in .yaml, .yml or .json and be at most 1MB. Unknown
// keys are rejected.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("config file must have .yaml, .yml or .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if err := c.Radar.Validate(); err != nil {
		return fmt.Errorf("radar: %w", err)
	}

	if c.Acquisition.PollInterval <= 0 {
		return fmt.Errorf("acquisition.poll_interval must be positive, got %s", c.Acquisition.PollInterval.D())
	}
	if c.Acquisition.WarmupSamples < 0 {
		return fmt.Errorf("acquisition.warmup_samples must be non-negative, got %d", c.Acquisition.WarmupSamples)
	}
	if c.Acquisition.Samples < 1 {
		return fmt.Errorf("acquisition.samples must be at least 1, got %d", c.Acquisition.Samples)
	}

	if c.Blanking.Interval <= 0 {
		return fmt.Errorf("blanking.interval must be positive, got %s", c.Blanking.Interval.D())
	}
	if c.Blanking.Countdown < 1 {
		return fmt.Errorf("blanking.countdown must be at least 1, got %d", c.Blanking.Countdown)
	}
	if c.Blanking.Mode != BlankModeOff && c.Blanking.Mode != BlankModeLock {
		return fmt.Errorf("blanking.mode must be %q or %q, got %q", BlankModeOff, BlankModeLock, c.Blanking.Mode)
	}
	if c.Blanking.Sensitivity > radar.MaxDetectionThreshold {
		return fmt.Errorf("blanking.sensitivity must be between 0 and %d, got %d", radar.MaxDetectionThreshold, c.Blanking.Sensitivity)
	}

	if c.Escalation.Interval <= 0 {
		return fmt.Errorf("escalation.interval must be positive, got %s", c.Escalation.Interval.D())
	}
	if c.Escalation.WaitTime <= 0 {
		return fmt.Errorf("escalation.wait_time must be positive, got %s", c.Escalation.WaitTime.D())
	}
	if c.Escalation.NearThreshold > radar.MaxDetectionThreshold {
		return fmt.Errorf("escalation.near_threshold must be between 0 and %d, got %d", radar.MaxDetectionThreshold, c.Escalation.NearThreshold)
	}
	if c.Escalation.FarThreshold > radar.MaxDetectionThreshold {
		return fmt.Errorf("escalation.far_threshold must be between 0 and %d, got %d", radar.MaxDetectionThreshold, c.Escalation.FarThreshold)
	}
	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
