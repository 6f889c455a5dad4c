// Package device manages the connection to one BGT60LTR11AIP radar: opening
// and closing the session, firmware gating, register access and device
// configuration.
//
// A Session is not safe for concurrent use. Exactly one caller may operate
// it at a time; the embedding application is responsible for that.
package device

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/ltr11/internal/driver"
	"github.com/banshee-data/ltr11/internal/monitoring"
	"github.com/banshee-data/ltr11/internal/radar"
)

var logf = monitoring.Named("device")

// Session owns the driver handle of one open device.
type Session struct {
	id       string
	drv      driver.Driver
	handle   driver.Handle
	port     string
	firmware radar.FirmwareVersion
}

type options struct {
	minFirmware radar.FirmwareVersion
}

// Option configures Open.
type Option func(*options)

// WithMinimumFirmware overrides the minimum firmware version accepted by Open.
func WithMinimumFirmware(v radar.FirmwareVersion) Option {
	return func(o *options) { o.minFirmware = v }
}

// Open connects to the device at port, or to the first device found when port
// is empty, and checks its firmware version. The handle is released again on
// every failure, so a failed Open leaves nothing to close.
func Open(drv driver.Driver, port string, opts ...Option) (*Session, error) {
	o := options{minFirmware: radar.MinimumFirmware}
	for _, opt := range opts {
		opt(&o)
	}

	h, err := drv.Open(port)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if h == 0 {
		return nil, ErrOpen
	}

	s := &Session{
		id:     uuid.NewString(),
		drv:    drv,
		handle: h,
		port:   port,
	}

	fw, err := drv.FirmwareVersion(h)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: could not get firmware version: %w", ErrOpen, err)
	}
	if !fw.AtLeast(o.minFirmware) {
		s.Close()
		return nil, fmt.Errorf("%w: need at least firmware version %s; actual version is %s",
			ErrIncompatibleFirmware, o.minFirmware, fw)
	}
	s.firmware = fw

	name := port
	if name == "" {
		name = "(first available)"
	}
	logf("session %s opened %s, firmware %s", s.id, name, fw)
	return s, nil
}

// ListAvailablePorts returns the ports of devices not held open by any
// session. Enumeration failures are logged and yield an empty list.
func ListAvailablePorts(drv driver.Driver) []string {
	ports, err := drv.Enumerate()
	if err != nil {
		logf("port enumeration failed: %v", err)
		return []string{}
	}
	if ports == nil {
		return []string{}
	}
	return ports
}

// ID returns the session identifier used in log messages.
func (s *Session) ID() string { return s.id }

// Port returns the port passed to Open; empty when the first device was used.
func (s *Session) Port() string { return s.port }

// Firmware returns the firmware version read when the session was opened.
func (s *Session) Firmware() radar.FirmwareVersion { return s.firmware }

// Driver returns the driver the session was opened with.
func (s *Session) Driver() driver.Driver { return s.drv }

// Handle returns the driver handle, or an error once the session is closed.
// Packages layered on the session use it to call the driver directly.
func (s *Session) Handle() (driver.Handle, error) {
	if s.handle == 0 {
		return 0, ErrClosed
	}
	return s.handle, nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.handle == 0 }

// Close releases the device. It is safe to call more than once; the handle is
// released only the first time.
func (s *Session) Close() error {
	if s.handle == 0 {
		return nil
	}
	s.drv.Close(s.handle)
	s.handle = 0
	logf("session %s closed", s.id)
	return nil
}

// ReadRegister reads the 16-bit register at addr. Failures are not retried.
func (s *Session) ReadRegister(addr uint8) (uint16, error) {
	h, err := s.Handle()
	if err != nil {
		return 0, err
	}
	v, err := s.drv.ReadRegister(h, addr)
	if err != nil {
		return 0, fmt.Errorf("%w: read 0x%02x: %w", ErrRegisterIO, addr, err)
	}
	return v, nil
}

// WriteRegister writes value to the register at addr. Failures are not retried.
func (s *Session) WriteRegister(addr uint8, value uint16) error {
	h, err := s.Handle()
	if err != nil {
		return err
	}
	if err := s.drv.WriteRegister(h, addr, value); err != nil {
		return fmt.Errorf("%w: write 0x%02x=0x%04x: %w", ErrRegisterIO, addr, value, err)
	}
	return nil
}

// SoftReset resets the internal detector state without closing the
// connection. Acquisition is stopped by the reset.
func (s *Session) SoftReset() error {
	h, err := s.Handle()
	if err != nil {
		return err
	}
	if err := s.drv.SoftReset(h); err != nil {
		return fmt.Errorf("%w: %w", ErrReset, err)
	}
	logf("session %s soft reset", s.id)
	return nil
}

// FirmwareVersion queries the firmware version from the device.
func (s *Session) FirmwareVersion() (radar.FirmwareVersion, error) {
	h, err := s.Handle()
	if err != nil {
		return radar.FirmwareVersion{}, err
	}
	v, err := s.drv.FirmwareVersion(h)
	if err != nil {
		return radar.FirmwareVersion{}, fmt.Errorf("could not get firmware version: %w", err)
	}
	return v, nil
}

// DeviceInfo returns the radar front-end description.
func (s *Session) DeviceInfo() (radar.DeviceInfo, error) {
	h, err := s.Handle()
	if err != nil {
		return radar.DeviceInfo{}, err
	}
	info, err := s.drv.DeviceInfo(h)
	if err != nil {
		return radar.DeviceInfo{}, fmt.Errorf("could not get device information: %w", err)
	}
	return info, nil
}
