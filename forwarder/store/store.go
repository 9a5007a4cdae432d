// Package store provides the key/value storage the host hands to the contract and a typed
// single-slot record on top of it.
package store

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Item.Load when the record is absent
var ErrNotFound = errors.New("not found")

// Storage is the raw key/value view the host exposes to the contract. Set fails when the
// host refuses the write, e.g. when it is out of gas.
type Storage interface {
	Get(key []byte) []byte
	Has(key []byte) bool
	Set(key, value []byte) error
	Delete(key []byte)
}

// MemStore is an in-memory Storage. It is safe for concurrent use.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Get(key []byte) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (s *MemStore) Has(key []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[string(key)]
	return ok
}

func (s *MemStore) Set(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[string(key)] = v
	return nil
}

func (s *MemStore) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
}

// Len returns the number of stored keys
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
