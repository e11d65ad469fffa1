package sensor

import (
	"math"
	"sync"

	"github.com/ayusman/mudra/internal/skeleton"
)

// DefaultActivityThreshold is the mean joint displacement, in meters, between
// two frames that counts as movement.
const DefaultActivityThreshold = 0.02

// ActivityDetector detects body movement between consecutive frames so the
// capture rate can drop while nobody moves in front of the sensor.
type ActivityDetector struct {
	threshold   float64
	prev        map[uint64]skeleton.Positions
	initialized bool
	mu          sync.Mutex
}

// NewActivityDetector creates an ActivityDetector with the given threshold in meters.
func NewActivityDetector(threshold float64) *ActivityDetector {
	return &ActivityDetector{
		threshold: threshold,
		prev:      make(map[uint64]skeleton.Positions),
	}
}

// Detect compares the tracked bodies of f with the previous frame.
// It returns whether activity was detected and the largest mean joint
// displacement of a body present in both frames.
//
// A tracked body that was not in the previous frame counts as activity.
// The first frame only sets the baseline.
func (d *ActivityDetector) Detect(f skeleton.Frame) (bool, float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := make(map[uint64]skeleton.Positions)
	for _, b := range f.Bodies {
		if b == nil || !b.Tracked || b.TrackingID == 0 {
			continue
		}
		current[b.TrackingID] = b.Joints.Positions()
	}

	if !d.initialized {
		d.prev = current
		d.initialized = true
		return false, 0
	}

	active := false
	var maxDisplacement float64
	for id, pos := range current {
		prev, ok := d.prev[id]
		if !ok {
			active = true
			continue
		}
		m := meanDisplacement(&prev, &pos)
		if m > maxDisplacement {
			maxDisplacement = m
		}
	}

	d.prev = current
	return active || maxDisplacement > d.threshold, maxDisplacement
}

// Reset clears the baseline frame.
func (d *ActivityDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prev = make(map[uint64]skeleton.Positions)
	d.initialized = false
}

// SetThreshold changes the displacement threshold. Negative values are ignored.
func (d *ActivityDetector) SetThreshold(threshold float64) {
	if threshold < 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = threshold
}

// Threshold returns the displacement threshold.
func (d *ActivityDetector) Threshold() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.threshold
}

func meanDisplacement(a, b *skeleton.Positions) float64 {
	var total float64
	for i := range a {
		dx := a[i].X - b[i].X
		dy := a[i].Y - b[i].Y
		dz := a[i].Z - b[i].Z
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total / float64(len(a))
}
