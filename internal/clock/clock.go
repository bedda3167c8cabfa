package clock

import (
	"sync"
	"time"
)

// Clock abstracts the time source so that timeout and window logic
// can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
