// Package store holds the in-memory session registry. It is the single
// source of truth for session state during the process lifetime and the only
// write path to it; callers always receive snapshot copies, never references
// into the map.
package store

import (
	"sync"

	"github.com/AnkanMisra/SettleOne/internal/domain/entity"
	domainErr "github.com/AnkanMisra/SettleOne/internal/domain/errors"
)

// SessionStore is a concurrency-safe id→session registry. A single
// reader/writer lock guards the whole map: readers run concurrently, writers
// are exclusive, so operations on the same session form a single total order.
// Critical sections are O(payment count) and hold no I/O.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*entity.Session),
	}
}

// Create constructs a new active session under the given id and returns a
// snapshot. Ids are caller-supplied and assumed unique (UUIDs upstream).
func (s *SessionStore) Create(id, user string) entity.Session {
	session := entity.NewSession(id, user)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = session
	return session.Clone()
}

// Get returns a snapshot of the session, or false if it does not exist.
// Absence is not an error; callers decide whether it is user-facing.
func (s *SessionStore) Get(id string) (entity.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return entity.Session{}, false
	}
	return session.Clone(), true
}

// AddPayment appends a payment to the session and returns the updated
// snapshot. Returns errors.ErrSessionNotFound for an unknown session and
// errors.ErrAmountOverflow when the recomputed total would exceed 2^256-1;
// in either case no mutation is visible.
func (s *SessionStore) AddPayment(sessionID string, p entity.Payment) (entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return entity.Session{}, domainErr.ErrSessionNotFound
	}
	if err := session.AddPayment(p); err != nil {
		return entity.Session{}, err
	}
	return session.Clone(), nil
}

// RemovePayment removes a payment by id, recomputes the total and returns
// the updated snapshot. Unknown session and unknown payment are reported as
// distinct not-found errors.
func (s *SessionStore) RemovePayment(sessionID, paymentID string) (entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return entity.Session{}, domainErr.ErrSessionNotFound
	}
	if err := session.RemovePayment(paymentID); err != nil {
		return entity.Session{}, err
	}
	return session.Clone(), nil
}

// UpdateStatus overwrites the session status unconditionally and returns the
// updated snapshot. No transition table is enforced here; validity of the
// transition is the caller's responsibility.
func (s *SessionStore) UpdateStatus(sessionID string, status entity.SessionStatus) (entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return entity.Session{}, domainErr.ErrSessionNotFound
	}
	session.Status = status
	return session.Clone(), nil
}

// Count returns the number of sessions currently held.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
