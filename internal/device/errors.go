package device

import "errors"

var (
	// ErrOpen is returned when no device could be found or opened.
	ErrOpen = errors.New("cannot open device")
	// ErrIncompatibleFirmware is returned when the baseboard firmware is
	// older than the required minimum.
	ErrIncompatibleFirmware = errors.New("incompatible firmware")
	// ErrRegisterIO is returned when a register read or write fails.
	ErrRegisterIO = errors.New("register i/o failed")
	// ErrConfiguration is returned when the device refuses or cannot
	// report a configuration.
	ErrConfiguration = errors.New("configuration failed")
	// ErrReset is returned when a soft reset fails.
	ErrReset = errors.New("soft reset failed")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
)
