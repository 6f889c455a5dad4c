package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ltr11/internal/driver/sim"
	"github.com/banshee-data/ltr11/internal/monitoring"
	"github.com/banshee-data/ltr11/internal/radar"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestOpen_FirstDevice(t *testing.T) {
	drv := sim.New("COM3", "COM4")

	s, err := Open(drv, "")
	require.NoError(t, err)
	defer s.Close()

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "", s.Port())
	assert.Equal(t, radar.FirmwareVersion{Major: 1, Minor: 2, Build: 0}, s.Firmware())
	assert.True(t, drv.IsOpen("COM3"))
	assert.Equal(t, []string{"COM4"}, ListAvailablePorts(drv))
}

func TestOpen_EmptyEnumerationFails(t *testing.T) {
	drv := sim.New()

	s, err := Open(drv, "")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestOpen_UnknownPortFails(t *testing.T) {
	drv := sim.New("COM3")

	_, err := Open(drv, "COM9")
	assert.ErrorIs(t, err, ErrOpen)
}

func TestOpen_FirmwareGate(t *testing.T) {
	tests := []struct {
		name    string
		version radar.FirmwareVersion
		ok      bool
	}{
		{"newer minor", radar.FirmwareVersion{Major: 1, Minor: 2, Build: 0}, true},
		{"exact minimum", radar.FirmwareVersion{Major: 1, Minor: 1, Build: 5}, true},
		{"older minor", radar.FirmwareVersion{Major: 1, Minor: 0, Build: 9}, false},
		{"older build", radar.FirmwareVersion{Major: 1, Minor: 1, Build: 4}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := sim.New("COM3")
			drv.SetFirmware("COM3", tt.version)

			s, err := Open(drv, "COM3")
			if tt.ok {
				require.NoError(t, err)
				s.Close()
				return
			}
			assert.ErrorIs(t, err, ErrIncompatibleFirmware)
			assert.Contains(t, err.Error(), "1.1.5")
			assert.Contains(t, err.Error(), tt.version.String())
			assert.False(t, drv.IsOpen("COM3"), "handle must be released on firmware failure")
			assert.Equal(t, []string{"COM3"}, ListAvailablePorts(drv))
		})
	}
}

func TestOpen_CustomMinimumFirmware(t *testing.T) {
	drv := sim.New("COM3")

	_, err := Open(drv, "COM3", WithMinimumFirmware(radar.FirmwareVersion{Major: 2}))
	assert.ErrorIs(t, err, ErrIncompatibleFirmware)
}

func TestOpen_FirmwareQueryFailureReleasesHandle(t *testing.T) {
	drv := sim.New("COM3")
	drv.FailNext("COM3", sim.OpFirmwareVersion, errors.New("usb stall"))

	_, err := Open(drv, "COM3")
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, drv.IsOpen("COM3"))
}

func TestListAvailablePorts_NeverErrors(t *testing.T) {
	assert.Equal(t, []string{}, ListAvailablePorts(sim.New()))

	drv := sim.New("COM3")
	drv.FailEnumerate(errors.New("boom"))
	assert.Equal(t, []string{}, ListAvailablePorts(drv))
}

func TestClose_Idempotent(t *testing.T) {
	drv := sim.New("COM3")
	s, err := Open(drv, "COM3")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.True(t, s.Closed())
	assert.Equal(t, 1, drv.Stats("COM3").Closes)

	_, err = s.ReadRegister(0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.WriteRegister(0, 1), ErrClosed)
	assert.ErrorIs(t, s.SoftReset(), ErrClosed)
	_, err = s.Handle()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRegisters(t *testing.T) {
	drv := sim.New("COM3")
	s, err := Open(drv, "COM3")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteRegister(0x0A, 0x1234))
	v, err := s.ReadRegister(0x0A)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v)
	assert.Equal(t, uint16(0x1234), drv.Register("COM3", 0x0A))
}

func TestRegisters_FailureKeepsSessionOpen(t *testing.T) {
	drv := sim.New("COM3")
	s, err := Open(drv, "COM3")
	require.NoError(t, err)
	defer s.Close()

	drv.FailNext("COM3", sim.OpReadRegister, errors.New("nak"))
	_, err = s.ReadRegister(1)
	assert.ErrorIs(t, err, ErrRegisterIO)
	assert.False(t, s.Closed())

	drv.FailNext("COM3", sim.OpWriteRegister, errors.New("nak"))
	assert.ErrorIs(t, s.WriteRegister(1, 2), ErrRegisterIO)

	// A retry by the caller goes through.
	_, err = s.ReadRegister(1)
	assert.NoError(t, err)
}

func TestSoftReset(t *testing.T) {
	drv := sim.New("COM3")
	s, err := Open(drv, "COM3")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SoftReset())
	assert.Equal(t, 1, drv.Stats("COM3").SoftResets)

	drv.FailNext("COM3", sim.OpSoftReset, errors.New("timeout"))
	assert.ErrorIs(t, s.SoftReset(), ErrReset)
	assert.False(t, s.Closed())
}

func TestDeviceInfoAndFirmware(t *testing.T) {
	drv := sim.New("COM3")
	s, err := Open(drv, "COM3")
	require.NoError(t, err)
	defer s.Close()

	info, err := s.DeviceInfo()
	require.NoError(t, err)
	assert.Contains(t, info.Description, "BGT60LTR11")

	fw, err := s.FirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, s.Firmware(), fw)
}
