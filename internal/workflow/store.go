package workflow

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Store keeps sessions in memory and expires them after a period of inactivity
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a new session store
func NewStore(ttl time.Duration) *Store {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Store{
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create registers a fresh idle session for a client
func (s *Store) Create(clientID string) *Session {
	session := newSession(uuid.New().String(), clientID, s.now())
	s.cache.Set(session.id, session, gocache.DefaultExpiration)
	return session
}

// Get returns a session and extends its expiry
func (s *Store) Get(id string) (*Session, error) {
	val, found := s.cache.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}
	session := val.(*Session)
	s.cache.Set(id, session, gocache.DefaultExpiration)
	return session, nil
}

// Delete removes a session
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Count returns the number of live sessions
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
