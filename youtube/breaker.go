package youtube

import (
	"errors"
	"sync"
	"time"
)

// BreakerState represents the state of the circuit breaker.
type BreakerState int

const (
	// BreakerClosed is the normal state where calls are allowed.
	BreakerClosed BreakerState = iota
	// BreakerOpen is the state where calls fail fast.
	BreakerOpen
	// BreakerHalfOpen allows a single probe call through.
	BreakerHalfOpen
)

// String returns the string representation of a breaker state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned when the circuit breaker is rejecting calls.
var ErrBreakerOpen = errors.New("upstream circuit open")

const (
	// DefaultFailureThreshold is the number of consecutive failures that
	// opens the circuit.
	DefaultFailureThreshold = 5
	// DefaultRecoveryTimeout is how long the circuit stays open before a
	// probe call is allowed.
	DefaultRecoveryTimeout = 15 * time.Second
)

// Breaker is a single-circuit breaker guarding the one upstream this service
// talks to. Once the Data API fails several calls in a row, the remaining
// harvesters and batch fetches of the same invocation fail fast instead of
// each burning their own timeout.
type Breaker struct {
	mu                sync.Mutex
	failureThreshold  int
	recoveryTimeout   time.Duration
	state             BreakerState
	consecutiveErrors int
	openedAt          time.Time
	probing           bool
}

// NewBreaker creates a circuit breaker. Non-positive arguments fall back to
// the defaults.
func NewBreaker(failureThreshold int, recoveryTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = DefaultRecoveryTimeout
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            BreakerClosed,
	}
}

// Allow reports whether a call may proceed. It returns ErrBreakerOpen when
// the circuit is open, or nil when the call is allowed (including the single
// probe call in the half-open state).
func (b *Breaker) Allow() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if time.Since(b.openedAt) >= b.recoveryTimeout {
			b.state = BreakerHalfOpen
			b.probing = true
			return nil
		}
		return ErrBreakerOpen
	case BreakerHalfOpen:
		if b.probing {
			return ErrBreakerOpen
		}
		b.probing = true
		return nil
	}
	return nil
}

// RecordSuccess notes a successful call, closing the circuit if it was
// half-open.
func (b *Breaker) RecordSuccess() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveErrors = 0
	b.probing = false
	b.state = BreakerClosed
}

// RecordFailure notes a failed call. In the closed state it opens the circuit
// after the failure threshold is reached; in the half-open state a single
// failed probe re-opens it.
func (b *Breaker) RecordFailure() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.state = BreakerOpen
		b.openedAt = time.Now()
		b.probing = false
	case BreakerClosed:
		b.consecutiveErrors++
		if b.consecutiveErrors >= b.failureThreshold {
			b.state = BreakerOpen
			b.openedAt = time.Now()
		}
	}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
