package store

import (
	"encoding/json"
	"fmt"
)

// Item is a typed record stored under a single key.
type Item[T any] struct {
	key []byte
}

// NewItem creates an Item bound to the given storage key
func NewItem[T any](key string) Item[T] {
	return Item[T]{key: []byte(key)}
}

// Key returns the raw storage key
func (i Item[T]) Key() string {
	return string(i.key)
}

// Save encodes and stores the value
func (i Item[T]) Save(s Storage, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", i.key, err)
	}
	if err := s.Set(i.key, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", i.key, err)
	}
	return nil
}

// Load returns the stored value or ErrNotFound
func (i Item[T]) Load(s Storage) (T, error) {
	var value T
	data := s.Get(i.key)
	if data == nil {
		return value, fmt.Errorf("%s: %w", i.key, ErrNotFound)
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to decode %s: %w", i.key, err)
	}
	return value, nil
}

// MayLoad returns nil without error when the record is absent
func (i Item[T]) MayLoad(s Storage) (*T, error) {
	if !s.Has(i.key) {
		return nil, nil
	}
	value, err := i.Load(s)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// Exists reports whether the record is present
func (i Item[T]) Exists(s Storage) bool {
	return s.Has(i.key)
}

// Remove deletes the record. Removing an absent record is a no-op.
func (i Item[T]) Remove(s Storage) {
	s.Delete(i.key)
}
