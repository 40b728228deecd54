package hub75

import "time"

// spinBelow is the longest wait that is busy-looped instead of slept.
// Timer sleeps overshoot short bit-plane durations by an order of magnitude.
const spinBelow = 100 * time.Microsecond

// Sleep waits for d, spinning for short durations.
func Sleep(d time.Duration) {
	if d >= spinBelow {
		time.Sleep(d)
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}
