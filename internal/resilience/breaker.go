package resilience

import (
	"errors"
	"math"
	"strings"
	"sync"
	"time"
)

// ErrOpenCircuit is returned when the circuit breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State represents the current breaker state.
type State int

const (
	// Closed accepts all requests and tracks failures.
	Closed State = iota
	// Open rejects requests until the cool-off period expires.
	Open
	// HalfOpen allows a single probe to determine recovery.
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
	default:
		return "unknown"
	}
}

// Breaker implements a failure-ratio circuit breaker.
type Breaker struct {
	Target string
	// OnTransition, when set, is called after every state change with the lock released.
	OnTransition func(target string, from, to State)
	Now          func() time.Time

	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	minRequests  int
	failureRatio float64
	openedAt     time.Time
	openFor      time.Duration
}

// NewBreaker constructs a breaker that opens when the failure ratio reaches
// failureRatio once minRequests outcomes have been observed.
func NewBreaker(target string, minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 {
		failureRatio = 0.5
	}
	if failureRatio > 1 {
		failureRatio = 1
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		Target:       strings.TrimSpace(target),
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
	}
}

func (b *Breaker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a request may reach the guarded dependency. After the
// cool-off an open breaker lets one probe through in half-open state.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	var from State
	changed := false
	allowed := true
	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) >= b.openFor {
			from, changed = b.setLocked(HalfOpen)
		} else {
			allowed = false
		}
	case HalfOpen:
		// one probe at a time
		allowed = false
	}
	b.mu.Unlock()
	if changed {
		b.notify(from, HalfOpen)
	}
	return allowed
}

// Report records the outcome of an allowed request.
func (b *Breaker) Report(success bool) {
	b.mu.Lock()
	var (
		from, to State
		changed  bool
	)
	switch b.state {
	case Open:
	case HalfOpen:
		to = Open
		if success {
			to = Closed
		}
		from, changed = b.setLocked(to)
	default:
		if success {
			b.successes++
		} else {
			b.failures++
		}
		total := b.failures + b.successes
		if total >= b.minRequests {
			if float64(b.failures)/float64(total) >= b.failureRatio {
				to = Open
				from, changed = b.setLocked(Open)
			} else if total > b.minRequests*2 {
				b.successes = int(math.Ceil(float64(b.successes) * 0.5))
				b.failures = int(math.Ceil(float64(b.failures) * 0.5))
			}
		}
	}
	b.mu.Unlock()
	if changed {
		b.notify(from, to)
	}
}

func (b *Breaker) setLocked(next State) (State, bool) {
	prev := b.state
	if prev == next {
		return prev, false
	}
	b.state = next
	switch next {
	case Open:
		b.openedAt = b.now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.failures = 0
	b.successes = 0
	return prev, true
}

func (b *Breaker) notify(from, to State) {
	if b.OnTransition == nil {
		return
	}
	target := b.Target
	if target == "" {
		target = "default"
	}
	b.OnTransition(target, from, to)
}
