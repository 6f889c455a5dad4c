package device

import (
	"fmt"

	"github.com/banshee-data/ltr11/internal/radar"
)

// Apply pushes cfg to the device. Validation is left to the device; a refusal
// is reported as ErrConfiguration. There is no rollback: after a failure the
// device keeps whatever state it ended up in.
func Apply(s *Session, cfg radar.Configuration) error {
	h, err := s.Handle()
	if err != nil {
		return err
	}
	if err := s.drv.SetConfiguration(h, cfg); err != nil {
		return fmt.Errorf("%w: could not set configuration: %w", ErrConfiguration, err)
	}
	logf("session %s configured: %s", s.id, cfg)
	return nil
}

// ReadConfiguration reads the configuration back from the device.
func ReadConfiguration(s *Session) (radar.Configuration, error) {
	h, err := s.Handle()
	if err != nil {
		return radar.Configuration{}, err
	}
	cfg, err := s.drv.Configuration(h)
	if err != nil {
		return radar.Configuration{}, fmt.Errorf("%w: could not get configuration: %w", ErrConfiguration, err)
	}
	return cfg, nil
}
