package storage

import (
	"errors"
	"sync"

	"github.com/snip-cli/snip/internal/utils"
)

// Fallback wraps a primary Store. After the first primary failure it
// switches to an in-memory copy for the rest of the session, so a broken
// or missing database never surfaces as an error to the user.
type Fallback struct {
	primary Store
	mem     *MemoryStore

	mu       sync.RWMutex
	degraded bool
}

func NewFallback(primary Store) *Fallback {
	return &Fallback{primary: primary, mem: NewMemoryStore()}
}

// Degraded reports whether the primary store has been abandoned.
func (f *Fallback) Degraded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.degraded
}

func (f *Fallback) degrade(op, key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.degraded {
		utils.Debug("storage: %s %s failed, continuing in memory: %v", op, key, err)
	}
	f.degraded = true
}

func (f *Fallback) Get(key string) (string, bool, error) {
	if f.Degraded() {
		return f.mem.Get(key)
	}
	v, ok, err := f.primary.Get(key)
	if err != nil {
		f.degrade("get", key, err)
		return f.mem.Get(key)
	}
	// keep a copy so a later failure still sees the last known value
	if ok {
		_ = f.mem.Set(key, v)
	} else {
		_ = f.mem.Delete(key)
	}
	return v, ok, nil
}

func (f *Fallback) Set(key, value string) error {
	_ = f.mem.Set(key, value)
	if f.Degraded() {
		return nil
	}
	if err := f.primary.Set(key, value); err != nil {
		f.degrade("set", key, err)
	}
	return nil
}

func (f *Fallback) Delete(key string) error {
	_ = f.mem.Delete(key)
	if f.Degraded() {
		return nil
	}
	if err := f.primary.Delete(key); err != nil {
		f.degrade("delete", key, err)
	}
	return nil
}

// callbackError marks errors produced by the caller's UpdateFunc so they
// are passed through instead of triggering degradation.
type callbackError struct{ err error }

func (e callbackError) Error() string { return e.err.Error() }
func (e callbackError) Unwrap() error { return e.err }

func (f *Fallback) Update(key string, fn UpdateFunc) error {
	if f.Degraded() {
		return f.mem.Update(key, fn)
	}

	var written string
	err := f.primary.Update(key, func(current string, ok bool) (string, error) {
		next, err := fn(current, ok)
		if err != nil {
			return "", callbackError{err}
		}
		written = next
		return next, nil
	})

	var cbErr callbackError
	switch {
	case err == nil:
		_ = f.mem.Set(key, written)
		return nil
	case errors.As(err, &cbErr):
		return cbErr.err
	default:
		f.degrade("update", key, err)
		return f.mem.Update(key, fn)
	}
}
