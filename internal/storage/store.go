// Package storage provides the key-value persistence used for history,
// slug mappings and theme state.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the backing store cannot be opened.
var ErrUnavailable = errors.New("storage unavailable")

// UpdateFunc receives the current value (ok is false when the key is
// absent) and returns the value to store.
type UpdateFunc func(current string, ok bool) (string, error)

// Store is a flat string key-value store.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	// Update performs an atomic read-modify-write of key. If fn returns
	// an error nothing is written and that error is returned.
	Update(key string, fn UpdateFunc) error
}

// GetJSON decodes the value stored under key into v.
// It reports false when the key is absent.
func GetJSON(s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores the JSON encoding of v under key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, string(data))
}
