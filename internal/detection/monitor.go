// Package detection reads the on-chip motion detector.
package detection

import (
	"errors"
	"fmt"

	"github.com/banshee-data/ltr11/internal/device"
	"github.com/banshee-data/ltr11/internal/radar"
)

// ErrDetectionRead is returned when the detector pins cannot be read.
var ErrDetectionRead = errors.New("detection read failed")

// Monitor polls the detector outputs of one session. It keeps no state of
// its own, so successive polls are independent.
type Monitor struct {
	session *device.Session
}

// New returns a monitor over s.
func New(s *device.Session) *Monitor {
	return &Monitor{session: s}
}

// Poll reads the current detector state. It does not block.
func (m *Monitor) Poll() (radar.Detection, error) {
	h, err := m.session.Handle()
	if err != nil {
		return radar.Detection{}, err
	}
	gpio1, gpio2, err := m.session.Driver().Detection(h)
	if err != nil {
		return radar.Detection{}, fmt.Errorf("%w: %w", ErrDetectionRead, err)
	}
	return radar.DetectionFromGPIO(gpio1, gpio2), nil
}
