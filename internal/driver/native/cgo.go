//go:build ltr11 && cgo

package native

/*
#cgo LDFLAGS: -lltr11
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>
#include <stdlib.h>

typedef struct {
	int mode;
	int pulse_width;
	int pulse_repetition;
	int hold_time;
	uint8_t detection_threshold;
	uint8_t tx_power_level;
	uint8_t rx_if_gain;
	int adc;
	uint32_t sampling_frequency;
	uint8_t rf_center_freq;
} ltr11_config_t;

typedef struct {
	const char **description;
	uint32_t min_rf_frequency_kHz;
	uint32_t max_rf_frequency_kHz;
	uint8_t num_tx_antennas;
	uint8_t num_rx_antennas;
	uint8_t max_tx_power;
	uint8_t num_temp_sensors;
	uint8_t major_version_hw;
	uint8_t minor_version_hw;
	uint8_t interleaved_rx;
	uint8_t *data_format;
} ltr11_device_info_t;

void *ltr11_open(const char *port);
void ltr11_close(void *handle);
int32_t ltr11_get_list(char *buffer, size_t size);
bool ltr11_read_register(void *handle, uint8_t addr, uint16_t *value);
bool ltr11_write_register(void *handle, uint8_t addr, uint16_t value);
bool ltr11_get_detection(void *handle, bool *gpio1, bool *gpio2);
bool ltr11_start_data_acquisition(void *handle);
bool ltr11_stop_data_acquisition(void *handle);
bool ltr11_get_raw_data(void *handle, double **data, size_t *count, bool *overflow, uint16_t min_count, uint16_t max_count);
bool ltr11_soft_reset(void *handle);
bool ltr11_get_configuration(void *handle, ltr11_config_t *config);
bool ltr11_set_configuration(void *handle, const ltr11_config_t *config);
bool ltr11_get_firmware_version(void *handle, uint16_t *major, uint16_t *minor, uint16_t *build);
bool ltr11_get_device_info(void *handle, ltr11_device_info_t *info);
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/banshee-data/ltr11/internal/driver"
	"github.com/banshee-data/ltr11/internal/radar"
)

// Driver calls into libltr11. The library is not thread-safe; callers must
// not share a Driver between goroutines.
type Driver struct{}

var _ driver.Driver = Driver{}

// Available reports whether the native binding is compiled in.
func Available() bool { return true }

// New returns the native driver.
func New() (driver.Driver, error) {
	return Driver{}, nil
}

func ptr(h driver.Handle) unsafe.Pointer {
	return unsafe.Pointer(uintptr(h))
}

func failed(op string) error {
	return errors.New("ltr11: " + op + " failed")
}

func (Driver) Open(port string) (driver.Handle, error) {
	var cport *C.char
	if port != "" {
		cport = C.CString(port)
		defer C.free(unsafe.Pointer(cport))
	}
	h := C.ltr11_open(cport)
	if h == nil {
		if port != "" {
			return 0, fmt.Errorf("%w: %s", driver.ErrNoDevice, port)
		}
		return 0, driver.ErrNoDevice
	}
	return driver.Handle(uintptr(h)), nil
}

func (Driver) Close(h driver.Handle) {
	if h != 0 {
		C.ltr11_close(ptr(h))
	}
}

func (Driver) Enumerate() ([]string, error) {
	buf := (*C.char)(C.calloc(portListSize, 1))
	defer C.free(unsafe.Pointer(buf))
	if n := C.ltr11_get_list(buf, portListSize); n < 0 {
		return nil, failed("get_list")
	}
	return driver.ParsePortList(C.GoString(buf)), nil
}

func (Driver) ReadRegister(h driver.Handle, addr uint8) (uint16, error) {
	var v C.uint16_t
	if !C.ltr11_read_register(ptr(h), C.uint8_t(addr), &v) {
		return 0, failed("read_register")
	}
	return uint16(v), nil
}

func (Driver) WriteRegister(h driver.Handle, addr uint8, value uint16) error {
	if !C.ltr11_write_register(ptr(h), C.uint8_t(addr), C.uint16_t(value)) {
		return failed("write_register")
	}
	return nil
}

func (Driver) Detection(h driver.Handle) (bool, bool, error) {
	var gpio1, gpio2 C.bool
	if !C.ltr11_get_detection(ptr(h), &gpio1, &gpio2) {
		return false, false, failed("get_detection")
	}
	return bool(gpio1), bool(gpio2), nil
}

func (Driver) StartAcquisition(h driver.Handle) error {
	if !C.ltr11_start_data_acquisition(ptr(h)) {
		return failed("start_data_acquisition")
	}
	return nil
}

func (Driver) StopAcquisition(h driver.Handle) error {
	if !C.ltr11_stop_data_acquisition(ptr(h)) {
		return failed("stop_data_acquisition")
	}
	return nil
}

// RawData copies the samples out of the library-owned buffer, which is only
// valid until the next call.
func (Driver) RawData(h driver.Handle, min, max uint16) ([]float64, bool, error) {
	var (
		data     *C.double
		count    C.size_t
		overflow C.bool
	)
	if !C.ltr11_get_raw_data(ptr(h), &data, &count, &overflow, C.uint16_t(min), C.uint16_t(max)) {
		return nil, false, failed("get_raw_data")
	}
	n := 2 * int(count)
	if n == 0 || data == nil {
		return nil, bool(overflow), nil
	}
	src := unsafe.Slice((*float64)(unsafe.Pointer(data)), n)
	samples := make([]float64, n)
	copy(samples, src)
	return samples, bool(overflow), nil
}

func (Driver) SoftReset(h driver.Handle) error {
	if !C.ltr11_soft_reset(ptr(h)) {
		return failed("soft_reset")
	}
	return nil
}

func (Driver) Configuration(h driver.Handle) (radar.Configuration, error) {
	var c C.ltr11_config_t
	if !C.ltr11_get_configuration(ptr(h), &c) {
		return radar.Configuration{}, failed("get_configuration")
	}
	return radar.Configuration{
		Mode:                radar.Mode(c.mode),
		PulseWidth:          int(c.pulse_width),
		PulseRepetition:     int(c.pulse_repetition),
		HoldTime:            int(c.hold_time),
		DetectionThreshold:  uint8(c.detection_threshold),
		TXPowerLevel:        uint8(c.tx_power_level),
		RXIFGain:            uint8(c.rx_if_gain),
		ADC:                 radar.ADCSource(c.adc),
		SamplingFrequencyHz: uint32(c.sampling_frequency),
		RFCenterFreqIndex:   uint8(c.rf_center_freq),
	}, nil
}

func (Driver) SetConfiguration(h driver.Handle, cfg radar.Configuration) error {
	c := C.ltr11_config_t{
		mode:                C.int(cfg.Mode),
		pulse_width:         C.int(cfg.PulseWidth),
		pulse_repetition:    C.int(cfg.PulseRepetition),
		hold_time:           C.int(cfg.HoldTime),
		detection_threshold: C.uint8_t(cfg.DetectionThreshold),
		tx_power_level:      C.uint8_t(cfg.TXPowerLevel),
		rx_if_gain:          C.uint8_t(cfg.RXIFGain),
		adc:                 C.int(cfg.ADC),
		sampling_frequency:  C.uint32_t(cfg.SamplingFrequencyHz),
		rf_center_freq:      C.uint8_t(cfg.RFCenterFreqIndex),
	}
	if !C.ltr11_set_configuration(ptr(h), &c) {
		return failed("set_configuration")
	}
	return nil
}

func (Driver) FirmwareVersion(h driver.Handle) (radar.FirmwareVersion, error) {
	var major, minor, build C.uint16_t
	if !C.ltr11_get_firmware_version(ptr(h), &major, &minor, &build) {
		return radar.FirmwareVersion{}, failed("get_firmware_version")
	}
	return radar.FirmwareVersion{Major: uint16(major), Minor: uint16(minor), Build: uint16(build)}, nil
}

func (Driver) DeviceInfo(h driver.Handle) (radar.DeviceInfo, error) {
	var c C.ltr11_device_info_t
	if !C.ltr11_get_device_info(ptr(h), &c) {
		return radar.DeviceInfo{}, failed("get_device_info")
	}
	info := radar.DeviceInfo{
		MinRFFrequencyKHz: uint32(c.min_rf_frequency_kHz),
		MaxRFFrequencyKHz: uint32(c.max_rf_frequency_kHz),
		NumTXAntennas:     uint8(c.num_tx_antennas),
		NumRXAntennas:     uint8(c.num_rx_antennas),
		MaxTXPower:        uint8(c.max_tx_power),
		NumTempSensors:    uint8(c.num_temp_sensors),
		HWMajor:           uint8(c.major_version_hw),
		HWMinor:           uint8(c.minor_version_hw),
		InterleavedRX:     c.interleaved_rx != 0,
	}
	if c.description != nil && *c.description != nil {
		info.Description = C.GoString(*c.description)
	}
	return info, nil
}
