// Package session holds the client's authentication state: where the
// token is persisted, how it is attached to protected requests and when
// it is discarded.
package session

import (
	"sync"

	"github.com/pokando/pokando/pkg/domain"
)

// TokenKey is the fixed key the token is persisted under.
const TokenKey = "jwt_token"

// Store persists at most one session.
//
// Get reports ok=false when nothing is stored. Clear on an empty store is
// a no-op.
type Store interface {
	Get() (sess domain.Session, ok bool, err error)
	Set(sess domain.Session) error
	Clear() error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	sess *domain.Session
}

// NewMemoryStore returns a store seeded with the given sessions' last
// valid entry, if any.
func NewMemoryStore(seed ...domain.Session) *MemoryStore {
	s := &MemoryStore{}
	for _, sess := range seed {
		if sess.Valid() {
			s.sess = &sess
		}
	}
	return s
}

func (s *MemoryStore) Get() (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return domain.Session{}, false, nil
	}
	return *s.sess, true, nil
}

func (s *MemoryStore) Set(sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = &sess
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}
