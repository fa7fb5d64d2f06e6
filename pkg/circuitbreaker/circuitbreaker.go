// Package circuitbreaker fails calls fast once a dependency has proven
// unhealthy, and probes it periodically until it recovers.
package circuitbreaker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type State int

const (
	// StateClosed passes every call through.
	StateClosed State = iota
	// StateOpen rejects calls without touching the dependency.
	StateOpen
	// StateHalfOpen lets a bounded number of probe calls through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type Config struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold consecutive probe successes close it again.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// MaxRequestsHalfOpen bounds concurrent probes.
	MaxRequestsHalfOpen int
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		MaxRequestsHalfOpen: 3,
	}
}

type CircuitBreaker struct {
	config Config

	mu             sync.RWMutex
	state          State
	failures       int
	successes      int
	halfOpenInUse  int
	lastFailure    time.Time
	stateChangedAt time.Time
	onStateChange  func(from, to State)
}

func New(config Config) *CircuitBreaker {
	return &CircuitBreaker{
		config:         config,
		state:          StateClosed,
		stateChangedAt: time.Now(),
	}
}

// OnStateChange registers a callback invoked on every transition. The
// callback runs on its own goroutine and must not call back into the
// breaker synchronously.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Execute runs fn if the circuit allows it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.allow() {
		return fmt.Errorf("circuit breaker is %s, request rejected", cb.State())
	}

	if err := fn(); err != nil {
		cb.recordFailure()
		return fmt.Errorf("circuit breaker execution failed: %w", err)
	}

	cb.recordSuccess()
	return nil
}

// ExecuteWithResult is Execute for calls that produce a value.
func (cb *CircuitBreaker) ExecuteWithResult(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if !cb.allow() {
		return nil, fmt.Errorf("circuit breaker is %s, request rejected", cb.State())
	}

	result, err := fn()
	if err != nil {
		cb.recordFailure()
		return nil, fmt.Errorf("circuit breaker execution failed: %w", err)
	}

	cb.recordSuccess()
	return result, nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.stateChangedAt) >= cb.config.Timeout {
			cb.transition(StateHalfOpen)
			cb.halfOpenInUse++
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenInUse >= cb.config.MaxRequestsHalfOpen {
			return false
		}
		cb.halfOpenInUse++
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.successes = 0
	cb.lastFailure = time.Now()

	switch {
	case cb.state == StateClosed && cb.failures >= cb.config.FailureThreshold:
		cb.transition(StateOpen)
	case cb.state == StateHalfOpen:
		// One failed probe reopens the circuit.
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successes++
	cb.failures = 0

	if cb.state == StateHalfOpen && cb.successes >= cb.config.SuccessThreshold {
		cb.transition(StateClosed)
	}
}

func (cb *CircuitBreaker) transition(next State) {
	if cb.state == next {
		return
	}

	prev := cb.state
	cb.state = next
	cb.stateChangedAt = time.Now()
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenInUse = 0

	if cb.onStateChange != nil {
		go cb.onStateChange(prev, next)
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Stats is a point-in-time snapshot for diagnostics.
type Stats struct {
	State          State
	Failures       int
	Successes      int
	LastFailure    time.Time
	StateChangedAt time.Time
}

func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return Stats{
		State:          cb.state,
		Failures:       cb.failures,
		Successes:      cb.successes,
		LastFailure:    cb.lastFailure,
		StateChangedAt: cb.stateChangedAt,
	}
}

// Reset forces the circuit closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
}
