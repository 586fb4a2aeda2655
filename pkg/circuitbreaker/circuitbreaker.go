// Package circuitbreaker stops calling a dependency that keeps failing.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Execute while the breaker refuses calls.
var ErrOpen = errors.New("circuit breaker is open")

// Ignore marks err as neutral. Execute returns the wrapped error and leaves
// the breaker as it was before the call.
func Ignore(err error) error {
	if err == nil {
		return nil
	}
	return ignored{err}
}

type ignored struct{ err error }

func (i ignored) Error() string { return i.err.Error() }
func (i ignored) Unwrap() error { return i.err }

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

type Settings struct {
	Name string
	// MaxFailures consecutive failures open the breaker.
	MaxFailures int
	// Cooldown is how long the breaker stays open before letting one call through.
	Cooldown time.Duration
	// IsFailure decides which errors count. Nil counts every error.
	IsFailure func(error) bool
}

type CircuitBreaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	isFailure   func(error) bool
	now         func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 5 * time.Second
	}
	if settings.IsFailure == nil {
		settings.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		name:        settings.Name,
		maxFailures: settings.MaxFailures,
		cooldown:    settings.Cooldown,
		isFailure:   settings.IsFailure,
		now:         time.Now,
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// Execute runs fn unless the breaker is open. While half-open only the
// first caller gets through; the rest see ErrOpen until it reports back.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	prev, prevFailure := cb.currentState(), cb.lastFailure
	switch prev {
	case StateOpen:
		cb.mu.Unlock()
		return ErrOpen
	case StateHalfOpen:
		// Trial call; hold the breaker open for everyone else.
		cb.state = StateOpen
		cb.lastFailure = cb.now()
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	var ign ignored
	if errors.As(err, &ign) {
		if prev == StateHalfOpen {
			// Hand the trial to the next caller.
			cb.lastFailure = prevFailure
		}
		return ign.err
	}

	if err != nil && cb.isFailure(err) {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.failures >= cb.maxFailures {
			cb.state = StateOpen
		}
		return err
	}

	cb.state = StateClosed
	cb.failures = 0
	return err
}

func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && cb.now().Sub(cb.lastFailure) >= cb.cooldown {
		return StateHalfOpen
	}
	return cb.state
}
