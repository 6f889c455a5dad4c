// Package sim provides an in-process simulation of BGT60LTR11 devices behind
// the driver.Driver contract. It is used by tests and by the --sim mode of
// the command line tool when no hardware is attached.
package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/ltr11/internal/driver"
	"github.com/banshee-data/ltr11/internal/radar"
)

// Op names a driver operation for error injection.
type Op int

const (
	OpReadRegister Op = iota
	OpWriteRegister
	OpDetection
	OpStartAcquisition
	OpStopAcquisition
	OpRawData
	OpSoftReset
	OpConfiguration
	OpSetConfiguration
	OpFirmwareVersion
	OpDeviceInfo
)

const (
	// FIFOCapacity is the number of sample pairs the simulated baseboard
	// buffers before it starts dropping the oldest ones.
	FIFOCapacity = 2048
	// DefaultProducePerCall is how many pairs arrive between two raw-data
	// calls unless changed with SetProduceRate.
	DefaultProducePerCall = 1024
)

var (
	errInvalidHandle  = errors.New("sim: invalid handle")
	errPortBusy       = errors.New("sim: port already open")
	errAlreadyRunning = errors.New("sim: acquisition already running")
	errNotRunning     = errors.New("sim: acquisition not running")
)

// Request records one raw-data call.
type Request struct {
	Min, Max uint16
	Pairs    int
	Overflow bool
}

// Stats counts calls against one simulated device.
type Stats struct {
	Opens       int
	Closes      int
	Starts      int
	Stops       int
	SoftResets  int
	SetConfigs  int
	RawDataCall int
}

type device struct {
	port     string
	open     bool
	firmware radar.FirmwareVersion
	info     radar.DeviceInfo
	config   radar.Configuration
	regs     map[uint8]uint16

	streaming bool
	produce   int
	head      uint64 // index of the oldest buffered pair
	buffered  int
	overflow  bool
	stall     int
	delivery  int
	overflows map[int]bool

	detections []radar.Detection
	detectFn   func(call int) radar.Detection
	detectCall int

	failNext map[Op]error
	requests []Request
	stats    Stats
}

// Driver simulates a set of devices, one per port.
type Driver struct {
	mu           sync.Mutex
	devices      []*device
	handles      map[driver.Handle]*device
	next         driver.Handle
	enumerateErr error
}

var _ driver.Driver = (*Driver)(nil)

// New returns a simulator with one device per port. Each device starts with
// firmware 1.2.0 and the default configuration.
func New(ports ...string) *Driver {
	d := &Driver{handles: make(map[driver.Handle]*device)}
	for _, p := range ports {
		d.devices = append(d.devices, &device{
			port:      p,
			firmware:  radar.FirmwareVersion{Major: 1, Minor: 2, Build: 0},
			info:      defaultInfo(),
			config:    radar.DefaultConfiguration(),
			regs:      make(map[uint8]uint16),
			produce:   DefaultProducePerCall,
			overflows: make(map[int]bool),
			failNext:  make(map[Op]error),
		})
	}
	return d
}

func defaultInfo() radar.DeviceInfo {
	return radar.DeviceInfo{
		Description:       "BGT60LTR11AIP (simulated)",
		MinRFFrequencyKHz: 61_020_000,
		MaxRFFrequencyKHz: 61_480_000,
		NumTXAntennas:     1,
		NumRXAntennas:     1,
		MaxTXPower:        7,
		NumTempSensors:    0,
		HWMajor:           2,
		HWMinor:           0,
		InterleavedRX:     true,
	}
}

// SampleValue is the deterministic value of the n-th raw sample produced by
// a simulated FIFO. Tests use it to check ordering across chunks.
func SampleValue(n uint64) float64 {
	return float64(n%1000) / 1000
}

func (d *Driver) lookup(port string) *device {
	for _, dev := range d.devices {
		if dev.port == port {
			return dev
		}
	}
	panic(fmt.Sprintf("sim: unknown port %q", port))
}

func (d *Driver) handle(h driver.Handle) (*device, error) {
	dev, ok := d.handles[h]
	if !ok {
		return nil, errInvalidHandle
	}
	return dev, nil
}

// takeFailure returns and clears an injected failure for op.
func (dev *device) takeFailure(op Op) error {
	if err, ok := dev.failNext[op]; ok {
		delete(dev.failNext, op)
		return err
	}
	return nil
}

// Open implements driver.Driver.
func (d *Driver) Open(port string) (driver.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var dev *device
	if port == "" {
		for _, candidate := range d.devices {
			if !candidate.open {
				dev = candidate
				break
			}
		}
		if dev == nil {
			return 0, driver.ErrNoDevice
		}
	} else {
		for _, candidate := range d.devices {
			if candidate.port == port {
				dev = candidate
				break
			}
		}
		if dev == nil {
			return 0, fmt.Errorf("%w: %s", driver.ErrNoDevice, port)
		}
		if dev.open {
			return 0, errPortBusy
		}
	}

	d.next++
	dev.open = true
	dev.stats.Opens++
	d.handles[d.next] = dev
	return d.next, nil
}

// Close implements driver.Driver. Unknown handles are ignored.
func (d *Driver) Close(h driver.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, ok := d.handles[h]
	if !ok {
		return
	}
	dev.open = false
	dev.streaming = false
	dev.stats.Closes++
	delete(d.handles, h)
}

// Enumerate implements driver.Driver; open ports are not listed.
func (d *Driver) Enumerate() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.enumerateErr != nil {
		return nil, d.enumerateErr
	}
	ports := []string{}
	for _, dev := range d.devices {
		if !dev.open {
			ports = append(ports, dev.port)
		}
	}
	return ports, nil
}

// ReadRegister implements driver.Driver.
func (d *Driver) ReadRegister(h driver.Handle, addr uint8) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return 0, err
	}
	if err := dev.takeFailure(OpReadRegister); err != nil {
		return 0, err
	}
	return dev.regs[addr], nil
}

// WriteRegister implements driver.Driver.
func (d *Driver) WriteRegister(h driver.Handle, addr uint8, value uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return err
	}
	if err := dev.takeFailure(OpWriteRegister); err != nil {
		return err
	}
	dev.regs[addr] = value
	return nil
}

// Detection implements driver.Driver.
func (d *Driver) Detection(h driver.Handle) (bool, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return false, false, err
	}
	if err := dev.takeFailure(OpDetection); err != nil {
		return false, false, err
	}

	call := dev.detectCall
	dev.detectCall++

	var det radar.Detection
	switch {
	case dev.detectFn != nil:
		det = dev.detectFn(call)
	case len(dev.detections) == 0:
	case call < len(dev.detections):
		det = dev.detections[call]
	default:
		det = dev.detections[len(dev.detections)-1]
	}
	return det.Motion, det.Direction == radar.Departing, nil
}

// StartAcquisition implements driver.Driver. Starting twice is refused.
func (d *Driver) StartAcquisition(h driver.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return err
	}
	if err := dev.takeFailure(OpStartAcquisition); err != nil {
		return err
	}
	if dev.streaming {
		return errAlreadyRunning
	}
	dev.streaming = true
	dev.buffered = 0
	dev.overflow = false
	dev.delivery = 0
	dev.stats.Starts++
	return nil
}

// StopAcquisition implements driver.Driver. Stopping an idle device is refused.
func (d *Driver) StopAcquisition(h driver.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return err
	}
	if err := dev.takeFailure(OpStopAcquisition); err != nil {
		return err
	}
	if !dev.streaming {
		return errNotRunning
	}
	dev.streaming = false
	dev.stats.Stops++
	return nil
}

// RawData implements driver.Driver. Every call first moves the configured
// number of new pairs into the FIFO, dropping the oldest pairs beyond
// FIFOCapacity, then serves the request.
func (d *Driver) RawData(h driver.Handle, min, max uint16) ([]float64, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return nil, false, err
	}
	if err := dev.takeFailure(OpRawData); err != nil {
		return nil, false, err
	}
	if !dev.streaming {
		return nil, false, errNotRunning
	}
	dev.stats.RawDataCall++

	if dev.stall > 0 {
		dev.stall--
		dev.requests = append(dev.requests, Request{Min: min, Max: max})
		return nil, false, nil
	}

	dev.buffered += dev.produce
	if dev.buffered > FIFOCapacity {
		dropped := dev.buffered - FIFOCapacity
		dev.head += uint64(dropped)
		dev.buffered = FIFOCapacity
		dev.overflow = true
	}

	n := dev.buffered
	if n > int(max) {
		n = int(max)
	}
	if n < int(min) || n == 0 {
		dev.requests = append(dev.requests, Request{Min: min, Max: max})
		return nil, false, nil
	}

	samples := make([]float64, 2*n)
	for i := range samples {
		samples[i] = SampleValue(2*dev.head + uint64(i))
	}
	dev.head += uint64(n)
	dev.buffered -= n

	overflow := dev.overflow || dev.overflows[dev.delivery]
	dev.overflow = false
	dev.delivery++

	dev.requests = append(dev.requests, Request{Min: min, Max: max, Pairs: n, Overflow: overflow})
	return samples, overflow, nil
}

// SoftReset implements driver.Driver. It stops acquisition and clears the
// FIFO and detector state but keeps the configuration.
func (d *Driver) SoftReset(h driver.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return err
	}
	if err := dev.takeFailure(OpSoftReset); err != nil {
		return err
	}
	dev.streaming = false
	dev.buffered = 0
	dev.overflow = false
	dev.stats.SoftResets++
	return nil
}

// pulseRepetitionHz maps the pulse repetition index to the sampling rate the
// device reports in pulsed mode.
var pulseRepetitionHz = [...]uint32{4000, 2000, 1000, 500}

// Configuration implements driver.Driver. In pulsed mode the reported
// sampling frequency follows the pulse repetition time.
func (d *Driver) Configuration(h driver.Handle) (radar.Configuration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return radar.Configuration{}, err
	}
	if err := dev.takeFailure(OpConfiguration); err != nil {
		return radar.Configuration{}, err
	}
	cfg := dev.config
	if cfg.Mode == radar.ModePulsed && cfg.PulseRepetition >= 0 && cfg.PulseRepetition < len(pulseRepetitionHz) {
		cfg.SamplingFrequencyHz = pulseRepetitionHz[cfg.PulseRepetition]
	}
	return cfg, nil
}

// SetConfiguration implements driver.Driver. Out of range values are refused
// as the firmware would.
func (d *Driver) SetConfiguration(h driver.Handle, cfg radar.Configuration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return err
	}
	if err := dev.takeFailure(OpSetConfiguration); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	dev.config = cfg
	dev.stats.SetConfigs++
	return nil
}

// FirmwareVersion implements driver.Driver.
func (d *Driver) FirmwareVersion(h driver.Handle) (radar.FirmwareVersion, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return radar.FirmwareVersion{}, err
	}
	if err := dev.takeFailure(OpFirmwareVersion); err != nil {
		return radar.FirmwareVersion{}, err
	}
	return dev.firmware, nil
}

// DeviceInfo implements driver.Driver.
func (d *Driver) DeviceInfo(h driver.Handle) (radar.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dev, err := d.handle(h)
	if err != nil {
		return radar.DeviceInfo{}, err
	}
	if err := dev.takeFailure(OpDeviceInfo); err != nil {
		return radar.DeviceInfo{}, err
	}
	return dev.info, nil
}
