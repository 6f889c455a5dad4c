package acquisition

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChannelStats describes one channel of a capture.
type ChannelStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary describes a capture without any spectral processing. Samples are
// in [0,1] with a mean near 0.5, so a mean far from 0.5 or a flat channel
// points at a wiring or configuration problem.
type Summary struct {
	Samples int          `json:"samples"`
	I       ChannelStats `json:"i"`
	Q       ChannelStats `json:"q"`
}

func channelStats(x []float64) ChannelStats {
	if len(x) == 0 {
		return ChannelStats{}
	}
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		std = 0
	}
	return ChannelStats{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(x),
		Max:    floats.Max(x),
	}
}

// Summarize computes per-channel statistics of a capture.
func Summarize(ifi, ifq []float64) Summary {
	return Summary{
		Samples: len(ifi),
		I:       channelStats(ifi),
		Q:       channelStats(ifq),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d samples; I mean=%.4f std=%.4f [%.4f, %.4f]; Q mean=%.4f std=%.4f [%.4f, %.4f]",
		s.Samples,
		s.I.Mean, s.I.StdDev, s.I.Min, s.I.Max,
		s.Q.Mean, s.Q.StdDev, s.Q.Min, s.Q.Max)
}
