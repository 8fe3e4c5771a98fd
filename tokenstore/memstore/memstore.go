package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-dolar-client/tokenstore"
)

var _ tokenstore.Store = (*MemStore)(nil)

type MemStore struct {
	values map[tokenstore.Key]string
	lock   sync.RWMutex
}

func New() *MemStore {
	return &MemStore{values: make(map[tokenstore.Key]string)}
}

// NewWith returns a store pre-populated with values, handy for tests.
func NewWith(values map[tokenstore.Key]string) *MemStore {
	s := New()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *MemStore) Get(_ context.Context, key tokenstore.Key) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemStore) Set(_ context.Context, key tokenstore.Key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemStore) Remove(_ context.Context, key tokenstore.Key) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.values, key)
	return nil
}

// Snapshot copies the current contents.
func (s *MemStore) Snapshot() map[tokenstore.Key]string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make(map[tokenstore.Key]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
