package session

import (
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultStoreSize caps how many browser sessions are remembered at once.
const DefaultStoreSize = 1024

// Session is one viewer's state: whether it has passed the Gate.
type Session struct {
	id string

	mu              sync.RWMutex
	authenticated   bool
	authenticatedAt time.Time
}

// ID returns the opaque session identifier stored in the viewer's cookie.
func (s *Session) ID() string { return s.id }

// Authenticated reports whether the session has passed the Gate.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// AuthenticatedAt reports when the session passed the Gate, or the zero time.
func (s *Session) AuthenticatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticatedAt
}

// markAuthenticated flips the flag once. It reports whether this call did it.
func (s *Session) markAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authenticated {
		return false
	}
	s.authenticated = true
	s.authenticatedAt = time.Now().UTC()
	return true
}

// Store keeps sessions in a fixed-size LRU; the least recently used entry is
// evicted when it is full.
type Store struct {
	cache *lru.Cache[string, *Session]
}

// NewStore creates a Store holding up to size sessions.
func NewStore(size int) (*Store, error) {
	cache, err := lru.New[string, *Session](size)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Store{cache: cache}, nil
}

// New creates and stores a fresh unauthenticated session.
func (s *Store) New() *Session {
	sess := &Session{id: uuid.NewString()}
	s.cache.Add(sess.id, sess)
	return sess
}

// Get looks a session up by id.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return s.cache.Get(id)
}

// GetOrCreate returns the session for id, or a new one when id is unknown
// or malformed. created reports which happened.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if _, err := uuid.Parse(id); err == nil {
		if sess, ok := s.cache.Get(id); ok {
			return sess, false
		}
	}
	return s.New(), true
}

// Len reports how many sessions are held.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Gate checks submitted credentials against the configured shared secret.
type Gate struct {
	secret []byte
}

// NewGate returns a Gate for secret.
func NewGate(secret string) *Gate {
	return &Gate{secret: []byte(secret)}
}

// Authenticate marks sess authenticated when credential equals the secret.
// A mismatch leaves sess untouched. An empty secret never matches.
func (g *Gate) Authenticate(sess *Session, credential string) bool {
	if sess == nil || len(g.secret) == 0 {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(credential), g.secret) != 1 {
		return false
	}
	sess.markAuthenticated()
	return true
}
