package radar

// RawBlock is one read from the sample FIFO. Samples are interleaved
// Q,I,Q,I,... and lie in [0,1] with a mean close to 0.5.
type RawBlock struct {
	Samples []float64
	// Overflow is set when the FIFO dropped older samples before this block
	// was read. The samples present are the most recent ones.
	Overflow bool
}

// Pairs returns the number of I/Q sample pairs in the block.
func (b RawBlock) Pairs() int {
	return len(b.Samples) / 2
}

// Deinterleave splits the block into the I and Q channels.
func (b RawBlock) Deinterleave() (ifi, ifq []float64) {
	return Deinterleave(b.Samples)
}

// Deinterleave splits raw interleaved data: even indices are Q, odd are I.
// A trailing unpaired value is dropped.
func Deinterleave(raw []float64) (ifi, ifq []float64) {
	n := len(raw) / 2
	ifi = make([]float64, n)
	ifq = make([]float64, n)
	for i := 0; i < n; i++ {
		ifq[i] = raw[2*i]
		ifi[i] = raw[2*i+1]
	}
	return ifi, ifq
}
