package policy

import (
	"errors"
	"time"

	"github.com/banshee-data/ltr11/internal/monitoring"
	"github.com/banshee-data/ltr11/internal/radar"
)

func init() {
	monitoring.SetLogger(nil)
}

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

var (
	motion   = radar.Detection{Motion: true}
	noMotion = radar.Detection{}
)

type fakeDisplay struct {
	blanks, wakes int
	blankErr      error
	wakeErr       error
}

func (f *fakeDisplay) Blank() error {
	if f.blankErr != nil {
		return f.blankErr
	}
	f.blanks++
	return nil
}

func (f *fakeDisplay) Wake() error {
	if f.wakeErr != nil {
		return f.wakeErr
	}
	f.wakes++
	return nil
}

type fakeReconfigurer struct {
	applied []radar.Configuration
	err     error
}

func (f *fakeReconfigurer) Reconfigure(cfg radar.Configuration) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, cfg)
	return nil
}

func (f *fakeReconfigurer) thresholds() []uint8 {
	out := make([]uint8, 0, len(f.applied))
	for _, c := range f.applied {
		out = append(out, c.DetectionThreshold)
	}
	return out
}

var errAction = errors.New("action failed")
