// Package driver defines the boundary between the session layer and the
// native BGT60LTR11 library. The native library owns the USB/serial transport
// and firmware handshake; this package only describes its contract so the
// core can run against the real binding or the simulator.
package driver

import (
	"errors"
	"strings"

	"github.com/banshee-data/ltr11/internal/radar"
)

// Handle is an opaque reference to an open device. The zero Handle is never
// a valid open device.
type Handle uintptr

// ErrNoDevice is returned by Open when no device could be opened.
var ErrNoDevice = errors.New("no device found")

// MaxRawPairs is the largest number of sample pairs a single raw-data
// request may ask for.
const MaxRawPairs = 4096

// Driver is the narrow contract of the native library. Implementations are
// not required to be safe for concurrent use.
type Driver interface {
	// Open opens the device at port, or the first device found when port
	// is empty. It never blocks waiting for a device to appear.
	Open(port string) (Handle, error)
	// Close releases the handle.
	Close(h Handle)
	// Enumerate lists ports that are not currently held open.
	Enumerate() ([]string, error)

	ReadRegister(h Handle, addr uint8) (uint16, error)
	WriteRegister(h Handle, addr uint8, value uint16) error

	// Detection returns the detector outputs: gpio1 signals motion and
	// gpio2 a departing target.
	Detection(h Handle) (gpio1, gpio2 bool, err error)

	StartAcquisition(h Handle) error
	StopAcquisition(h Handle) error
	// RawData returns between min and max sample pairs as interleaved
	// Q,I values (2*count floats). count may be zero when min is zero or
	// when no samples are buffered yet.
	RawData(h Handle, min, max uint16) (samples []float64, overflow bool, err error)

	SoftReset(h Handle) error
	Configuration(h Handle) (radar.Configuration, error)
	SetConfiguration(h Handle, cfg radar.Configuration) error
	FirmwareVersion(h Handle) (radar.FirmwareVersion, error)
	DeviceInfo(h Handle) (radar.DeviceInfo, error)
}

// ParsePortList splits the ';'-separated ASCII port list written by the
// native enumeration call. Empty entries are dropped so that an empty buffer
// yields no ports.
func ParsePortList(buf string) []string {
	buf = strings.TrimRight(buf, "\x00")
	ports := []string{}
	for _, p := range strings.Split(buf, ";") {
		p = strings.TrimSpace(p)
		if p != "" {
			ports = append(ports, p)
		}
	}
	return ports
}
