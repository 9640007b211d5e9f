// Package cbreaker keeps calls away from nodes that keep failing.
package cbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrOpenState = errors.New("circuit breaker is in open state")
)

type State int

const (
	_ State = iota
	Closed
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	}
	return "unknown"
}

// CircuitBreaker stops calls to a node after failureThreshold consecutive
// failures. Once resetTimeout has elapsed a single probe call is let through;
// successThreshold successful probes in a row close the breaker again.
//
// Canceled calls are neither failures nor successes.
type CircuitBreaker struct {
	mu      sync.Mutex
	state   State
	probing bool

	consecutiveFailures  int
	consecutiveSuccesses int

	failureThreshold int
	successThreshold int

	resetTimeout time.Duration
	nextProbeAt  time.Time

	now func() time.Time
}

func NewCircuitBreaker(failureThreshold, successThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            Closed,
		failureThreshold: max(failureThreshold, 1),
		successThreshold: max(successThreshold, 1),
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

type call[Response any] func(context.Context) (Response, error)

// Do runs fn unless cb refuses it, in which case ErrOpenState is returned and
// fn is not called.
func Do[Response any](ctx context.Context, cb *CircuitBreaker, fn call[Response]) (resp Response, err error) {
	if !cb.admit() {
		return resp, ErrOpenState
	}
	resp, err = fn(ctx)
	cb.record(err)
	return resp, err
}

// State reports the current state without admitting a call.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// IsClosed reports whether calls are currently allowed through.
func (cb *CircuitBreaker) IsClosed() bool {
	return cb.State() != Open
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Open:
		if cb.now().Before(cb.nextProbeAt) {
			return false
		}
		cb.state = HalfOpen
		cb.consecutiveSuccesses = 0
		cb.probing = true
		return true
	case HalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	}
	return true
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	wasProbe := cb.state == HalfOpen
	if wasProbe {
		cb.probing = false
	}

	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		cb.consecutiveSuccesses = 0
		if wasProbe {
			cb.open()
			return
		}
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.failureThreshold {
			cb.open()
		}
	case wasProbe:
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.successThreshold {
			cb.reset()
		}
	default:
		cb.consecutiveFailures = 0
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = Open
	cb.nextProbeAt = cb.now().Add(cb.resetTimeout)
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}

func (cb *CircuitBreaker) reset() {
	cb.state = Closed
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}

// Set lazily creates one CircuitBreaker per node id.
//
// Safe for concurrent use.
type Set struct {
	failureThreshold int
	successThreshold int
	resetTimeout     time.Duration

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewSet(failureThreshold, successThreshold int, resetTimeout time.Duration) *Set {
	return &Set{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		resetTimeout:     resetTimeout,
		breakers:         make(map[string]*CircuitBreaker),
	}
}

// For returns the breaker of nodeID, creating it on first use.
func (s *Set) For(nodeID string) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.breakers[nodeID]
	if !ok {
		cb = NewCircuitBreaker(s.failureThreshold, s.successThreshold, s.resetTimeout)
		s.breakers[nodeID] = cb
	}
	return cb
}

// States returns the state of every breaker created so far, keyed by node id.
func (s *Set) States() map[string]State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]State, len(s.breakers))
	for id, cb := range s.breakers {
		out[id] = cb.State()
	}
	return out
}
