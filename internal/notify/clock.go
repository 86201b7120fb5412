package notify

import (
	"time"
)

// Timer is the cancellable handle the scheduler keeps per pending reminder
type Timer interface {
	Stop() bool
}

// Clock abstracts wall-clock reads and one-shot timers so scheduler tests
// are deterministic
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall clock
func RealClock() Clock { return realClock{} }
