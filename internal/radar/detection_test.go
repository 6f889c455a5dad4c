package radar

import "testing"

func TestDetectionFromGPIO(t *testing.T) {
	tests := []struct {
		gpio1, gpio2 bool
		want         Detection
	}{
		{false, false, Detection{Motion: false, Direction: Approaching}},
		{true, false, Detection{Motion: true, Direction: Approaching}},
		{true, true, Detection{Motion: true, Direction: Departing}},
		{false, true, Detection{Motion: false, Direction: Departing}},
	}
	for _, tt := range tests {
		if got := DetectionFromGPIO(tt.gpio1, tt.gpio2); got != tt.want {
			t.Errorf("DetectionFromGPIO(%v, %v) = %+v, want %+v", tt.gpio1, tt.gpio2, got, tt.want)
		}
	}
	if Departing.String() != "departing" || Approaching.String() != "approaching" {
		t.Errorf("unexpected direction names %q, %q", Approaching, Departing)
	}
}
