package tokensfake

import (
	"sync"

	"github.com/bafcc/camp-admin/tokens"
)

var _ tokens.Store = (*Store)(nil)

// Store is an in-memory tokens.Store for tests.
type Store struct {
	values      map[string]string
	unavailable bool
	saves       int
	lock        sync.RWMutex
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Seeded returns a store already holding a token pair.
func Seeded(access, refresh string) *Store {
	s := New()
	_ = s.Save(access, refresh)
	return s
}

// SetUnavailable makes every load report absent, as a store that cannot be
// read would.
func (s *Store) SetUnavailable(unavailable bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.unavailable = unavailable
}

func (s *Store) Save(access, refresh string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values[tokens.AccessTokenKey] = access
	s.values[tokens.RefreshTokenKey] = refresh
	s.saves++
	return nil
}

func (s *Store) LoadAccessToken() (string, bool) {
	return s.load(tokens.AccessTokenKey)
}

func (s *Store) LoadRefreshToken() (string, bool) {
	return s.load(tokens.RefreshTokenKey)
}

func (s *Store) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.values, tokens.AccessTokenKey)
	delete(s.values, tokens.RefreshTokenKey)
}

// Saves returns how many times Save was called.
func (s *Store) Saves() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.saves
}

func (s *Store) load(key string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.unavailable {
		return "", false
	}
	v, ok := s.values[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
