package memstore

import (
	"context"
	"sync"

	"github.com/dream1290/dbxui-sub000/session"
)

var _ session.Store = (*MemStore)(nil)

// MemStore is a process-local session.Store.
type MemStore struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

// NewWith returns a store pre-populated with values.
func NewWith(values map[string]string) *MemStore {
	s := New()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *MemStore) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemStore) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemStore) Delete(_ context.Context, keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Has reports whether key is present.
func (s *MemStore) Has(key string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.values[key]
	return ok
}
