package pipeline

import "fmt"

// FramePolicy decides when a snapshot of the model is worth keeping.
// The first observation is always due; after that a frame is due once
// the average model error has dropped by more than Threshold since the
// last due frame.
type FramePolicy struct {
	Threshold float64

	last   float64
	primed bool
}

// Due reports whether a frame should be taken at error e and, if so,
// makes e the new baseline.
func (p *FramePolicy) Due(e float64) bool {
	if p.primed && p.last-e <= p.Threshold {
		return false
	}
	p.last = e
	p.primed = true
	return true
}

// FrameName is the file name of the snapshot taken before iteration i.
func FrameName(i int, prefix string) string {
	return fmt.Sprintf("%06d_%s.png", i, prefix)
}
