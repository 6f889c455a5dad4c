package sim

import (
	"github.com/banshee-data/ltr11/internal/radar"
)

// The methods in this file steer a simulated device. They panic on unknown
// ports since they are only called from tests and the simulator setup.

// SetFirmware sets the firmware version reported by port.
func (d *Driver) SetFirmware(port string, v radar.FirmwareVersion) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookup(port).firmware = v
}

// SetStoredConfiguration stores cfg on port as if it had been applied earlier.
func (d *Driver) SetStoredConfiguration(port string, cfg radar.Configuration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookup(port).config = cfg
}

// StoredConfiguration returns the configuration held by port.
func (d *Driver) StoredConfiguration(port string) radar.Configuration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookup(port).config
}

// SetProduceRate sets how many pairs arrive in the FIFO between two raw-data
// calls. Rates above FIFOCapacity overflow on every call.
func (d *Driver) SetProduceRate(port string, pairs int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookup(port).produce = pairs
}

// Stall makes the next n raw-data calls on port return no samples.
func (d *Driver) Stall(port string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookup(port).stall = n
}

// InjectOverflow flags the delivery-th non-empty raw-data response (counted
// from zero since the last start) as overflowed.
func (d *Driver) InjectOverflow(port string, delivery int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookup(port).overflows[delivery] = true
}

// ScriptDetections queues detector states returned by successive detection
// reads on port. The last state repeats once the script is exhausted.
func (d *Driver) ScriptDetections(port string, seq ...radar.Detection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev := d.lookup(port)
	dev.detections = append([]radar.Detection(nil), seq...)
	dev.detectFn = nil
	dev.detectCall = 0
}

// DetectWith makes detection reads on port call fn with the zero-based call
// number.
func (d *Driver) DetectWith(port string, fn func(call int) radar.Detection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev := d.lookup(port)
	dev.detectFn = fn
	dev.detectCall = 0
}

// FailNext makes the next op on port fail with err.
func (d *Driver) FailNext(port string, op Op, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookup(port).failNext[op] = err
}

// FailEnumerate makes enumeration fail with err until cleared with nil.
func (d *Driver) FailEnumerate(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumerateErr = err
}

// Streaming reports whether port is acquiring samples.
func (d *Driver) Streaming(port string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookup(port).streaming
}

// IsOpen reports whether port is held by a handle.
func (d *Driver) IsOpen(port string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookup(port).open
}

// Requests returns the raw-data calls made against port.
func (d *Driver) Requests(port string) []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Request(nil), d.lookup(port).requests...)
}

// Stats returns call counters for port.
func (d *Driver) Stats(port string) Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookup(port).stats
}

// Register returns the current value of a simulated register.
func (d *Driver) Register(port string, addr uint8) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookup(port).regs[addr]
}
