// Package job implements the timer-driven background tasks.
package job

import "time"

// Clock abstracts wall-clock time so sweeps can be tested at threshold
// boundaries deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }
