package radar

// Direction of the last detected motion edge.
type Direction int

const (
	Approaching Direction = iota
	Departing
)

func (d Direction) String() string {
	if d == Departing {
		return "departing"
	}
	return "approaching"
}

// Detection is the state of the sensor's internal motion detector. Direction
// reflects the last detected edge and is reported even when Motion is false.
type Detection struct {
	Motion    bool      `json:"motion"`
	Direction Direction `json:"direction"`
}

// DetectionFromGPIO builds a Detection from the two detector outputs: gpio1
// signals motion and gpio2 signals a departing target.
func DetectionFromGPIO(gpio1, gpio2 bool) Detection {
	d := Detection{Motion: gpio1, Direction: Approaching}
	if gpio2 {
		d.Direction = Departing
	}
	return d
}
