package circuitbreaker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KingInYellow18/medianest-sub018/internal/clock"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Blocking requests
	StateHalfOpen              // Testing with one probe
)

// OpenError is returned by BeforeCall when the circuit rejects a request
// without attempting the downstream call.
type OpenError struct {
	Service string
	RetryAt time.Time
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit open for service %q", e.Service)
}

// Breaker tracks consecutive failures for one external service and stops
// traffic once the failure threshold is reached. After resetTimeout a
// single probe is admitted; its outcome decides whether the circuit
// closes again or re-opens.
type Breaker struct {
	mutex            sync.Mutex
	clock            clock.Clock
	service          string
	state            State
	failures         int
	openedAt         time.Time
	failureThreshold int
	resetTimeout     time.Duration

	// Exclusive half-open gate. CAS admission guarantees at most one
	// probe in flight regardless of how many callers race the
	// Open -> HalfOpen transition.
	probeInFlight atomic.Bool
}

func New(service string, threshold int, resetTimeout time.Duration, clk clock.Clock) *Breaker {
	return &Breaker{
		clock:            clk,
		service:          service,
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     resetTimeout,
	}
}

// BeforeCall reports whether a request may proceed. It returns nil to
// permit the call, or an *OpenError when the circuit is open or another
// probe already holds the half-open slot.
func (cb *Breaker) BeforeCall() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) < cb.resetTimeout {
			return cb.openError()
		}

		cb.state = StateHalfOpen
		if !cb.probeInFlight.CompareAndSwap(false, true) {
			return cb.openError()
		}
		return nil

	case StateHalfOpen:
		if !cb.probeInFlight.CompareAndSwap(false, true) {
			return cb.openError()
		}
		return nil

	default:
		return nil
	}
}

// OnSuccess records the final outcome of one successful logical call.
func (cb *Breaker) OnSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == StateHalfOpen {
		cb.probeInFlight.Store(false)
	}

	cb.state = StateClosed
	cb.failures = 0
}

// OnFailure records the final outcome of one failed logical call.
func (cb *Breaker) OnFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == StateHalfOpen {
		cb.probeInFlight.Store(false)
		cb.state = StateOpen
		cb.openedAt = cb.clock.Now()
		return
	}

	cb.failures++
	if cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
		cb.openedAt = cb.clock.Now()
	}
}

func (cb *Breaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Snapshot exposes breaker internals for the service health surface.
type Snapshot struct {
	Service             string
	State               State
	ConsecutiveFailures int
	OpenedAt            time.Time
}

func (cb *Breaker) Snapshot() Snapshot {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return Snapshot{
		Service:             cb.service,
		State:               cb.state,
		ConsecutiveFailures: cb.failures,
		OpenedAt:            cb.openedAt,
	}
}

func (cb *Breaker) openError() *OpenError {
	return &OpenError{
		Service: cb.service,
		RetryAt: cb.openedAt.Add(cb.resetTimeout),
	}
}

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}
