package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/contact"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * time.Minute

// State is the per-visitor model: the cart ledger plus the contact form draft and
// its last validation result.
type State struct {
	Cart *cart.Ledger
	// Form holds the field values the visitor last submitted. Cleared on a
	// successful submission.
	Form contact.Form
	// Contact is the most recent validation result, nil before the first submission.
	Contact *contact.Result
}

// Session owns one State and serialises access to it.
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		state:    State{Cart: cart.NewLedger()},
		lastSeen: now,
	}
}

// Do runs fn with exclusive access to the session state.
func (s *Session) Do(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Store keeps sessions in memory keyed by id.
type Store struct {
	TTL time.Duration
	Now func() time.Time
	// CreateGuard, when set, decides whether Middleware may mint a new session
	// for the request.
	CreateGuard func(*http.Request) bool

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore builds an empty store. ttl <= 0 falls back to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{TTL: ttl, sessions: map[string]*Session{}}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get returns the session with id and marks it as seen.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// Acquire returns the session for id, creating it when missing. Ids that are not
// UUIDs are replaced with a fresh one. created reports whether a new session was made.
func (s *Store) Acquire(id string) (sess *Session, created bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if existing, ok := s.sessions[id]; ok {
		existing.lastSeen = now
		return existing, false
	}
	if s.sessions == nil {
		s.sessions = map[string]*Session{}
	}
	sess = newSession(id, now)
	s.sessions[id] = sess
	return sess, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than TTL and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done. onSweep, when set,
// receives the number of sessions removed by each pass.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep()
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
