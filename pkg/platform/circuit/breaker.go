// Package circuit implements a small counting circuit breaker. Outbound
// gateway clients record each call's outcome; once failures cross the
// threshold the breaker opens and callers should fail fast instead of
// queueing on a dead upstream. Consecutive successes close it again.
package circuit

import "sync"

// State is the breaker's current position.
type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Change reports a state transition caused by a recorded outcome. Both fields
// false means the outcome changed counters only.
type Change struct {
	Opened bool
	Closed bool
}

// Breaker counts consecutive failures and successes. It never trips on
// elapsed time: only observed outcomes move it.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int

	mu        sync.Mutex
	state     State
	failures  int
	successes int
}

// Option tunes a Breaker at construction.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes close an open
// circuit.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// New builds a closed Breaker. Defaults: 5 failures to open, 1 success to
// close.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the identifier given at construction.
func (b *Breaker) Name() string { return b.name }

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether callers should fail fast.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// RecordFailure notes a failed call. useFallback is true when the circuit is
// (or just became) open; change.Opened marks the closed-to-open transition.
func (b *Breaker) RecordFailure() (useFallback bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		b.successes = 0
		return true, Change{}
	}

	b.failures++
	if b.failures < b.failureThreshold {
		return false, Change{}
	}

	b.state = StateOpen
	b.failures = 0
	b.successes = 0
	return true, Change{Opened: true}
}

// RecordSuccess notes a successful call. usePrimary is true when the circuit
// is closed (or just closed); change.Closed marks the open-to-closed
// transition.
func (b *Breaker) RecordSuccess() (usePrimary bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		b.failures = 0
		return true, Change{}
	}

	b.successes++
	if b.successes < b.successThreshold {
		return false, Change{}
	}

	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	return true, Change{Closed: true}
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
