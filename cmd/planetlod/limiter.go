package main

import "time"

// frameLimiter paces simulate mode to a frame rate.
type frameLimiter struct {
	target time.Duration
	next   time.Time
}

func newFrameLimiter(rate int) *frameLimiter {
	if rate <= 0 {
		return &frameLimiter{}
	}
	return &frameLimiter{target: time.Second / time.Duration(rate)}
}

// Wait blocks until the next frame is due. A zero target never waits.
func (f *frameLimiter) Wait() {
	if f.target <= 0 {
		return
	}
	if f.next.IsZero() {
		f.next = time.Now().Add(f.target)
	} else {
		f.next = f.next.Add(f.target)
	}

	if remaining := time.Until(f.next); remaining > 0 {
		time.Sleep(remaining)
	}

	// If we're significantly late (e.g., hitch), resync to avoid drift
	if late := -time.Until(f.next); late > f.target {
		f.next = time.Now().Add(f.target)
	}
}
