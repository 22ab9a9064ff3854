// Package session tracks the generalization sessions of the HTTP server.
//
// A session stands for one client view, typically a map widget. Its ID
// scopes the placement state so that two clients panning the same scene
// never replay each other's markers. Sessions are stored in a
// [cache.Cache], so a Redis backend shares them between server instances:
//   - memory: [cache.MemoryCache] for a single process and tests
//   - redis: [cache.RedisCache] for multi-instance deployments
//
// # Usage
//
//	store := session.NewStore(cache.NewMemoryCache())
//	sess := session.New(session.DefaultTTL)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err := store.Get(ctx, id)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown or expired
//	}
//
// Calls on one session must not interleave. [Locker] hands out one mutex
// per session ID for that purpose.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/declutter/pkg/cache"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidID is returned for IDs that are not UUIDs.
	ErrInvalidID = errors.New("invalid session id")
)

// DefaultTTL is how long an idle session lives.
const DefaultTTL = cache.TTLState

// Session is one client's generalization context.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates a session with a random UUID.
func New(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Keyer returns the keyer that scopes placement state to this session.
func (s *Session) Keyer() cache.Keyer {
	return cache.NewScopedKeyer(nil, "session:"+s.ID+":")
}

// ParseID checks that id is a UUID and returns its canonical form.
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return u.String(), nil
}

// Store keeps sessions in a cache.
type Store struct {
	cache cache.Cache
}

// NewStore returns a session store over c.
func NewStore(c cache.Cache) *Store {
	return &Store{cache: c}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Get retrieves a session by ID. It returns ErrNotFound for unknown or
// expired sessions.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, ok, err := s.cache.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.IsExpired() {
		_ = s.cache.Delete(ctx, sessionKey(id))
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Set stores a session until it expires.
func (s *Store) Set(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	if err := s.cache.Set(ctx, sessionKey(sess.ID), data, ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Touch extends the session's lifetime by ttl from now.
func (s *Store) Touch(ctx context.Context, sess *Session, ttl time.Duration) error {
	sess.ExpiresAt = time.Now().Add(ttl)
	return s.Set(ctx, sess)
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Locker serializes work per session ID within one process.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewLocker returns an empty locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lockEntry)}
}

// Lock blocks until the caller holds the lock for id. The returned
// function releases it.
func (l *Locker) Lock(id string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of IDs currently locked or waited on.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
