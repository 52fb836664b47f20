// Package history keeps the bounded, newest-first log of shortened URLs.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/storage"
	"github.com/snip-cli/snip/internal/utils"
)

// Key is the storage key of the history log.
const Key = "snip_history"

// Entry is one successful shortening. Entries are never modified.
type Entry struct {
	ID        uuid.UUID          `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	LongURL   string             `json:"long_url"`
	ShortURL  string             `json:"short_url"`
	Provider  shorten.ProviderID `json:"provider"`
}

// Store is the history log persisted under Key.
type Store struct {
	kv       storage.Store
	capacity int
	now      func() time.Time
}

func NewStore(kv storage.Store, capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{kv: kv, capacity: capacity, now: time.Now}
}

// Capacity is the maximum number of entries kept.
func (s *Store) Capacity() int { return s.capacity }

// Record appends a new entry stamped with the current time.
func (s *Store) Record(longURL, shortURL string, provider shorten.ProviderID) (Entry, error) {
	e := Entry{
		ID:        uuid.New(),
		Timestamp: s.now(),
		LongURL:   longURL,
		ShortURL:  shortURL,
		Provider:  provider,
	}
	return e, s.Append(e)
}

// Append prepends e and drops the oldest entries beyond capacity.
func (s *Store) Append(e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	return s.update(func(entries []Entry) ([]Entry, error) {
		entries = append([]Entry{e}, entries...)
		if len(entries) > s.capacity {
			entries = entries[:s.capacity]
		}
		return entries, nil
	})
}

// List returns the log newest first, read fresh from storage.
func (s *Store) List() ([]Entry, error) {
	raw, _, err := s.kv.Get(Key)
	if err != nil {
		return nil, err
	}
	entries := decode(raw)
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	return entries, nil
}

// Remove deletes the entry at index of the current listing. An out of
// range index leaves the log untouched.
func (s *Store) Remove(index int) error {
	return s.update(func(entries []Entry) ([]Entry, error) {
		if index < 0 || index >= len(entries) {
			return nil, errUnchanged
		}
		return append(entries[:index], entries[index+1:]...), nil
	})
}

// Clear empties the log.
func (s *Store) Clear() error {
	return s.kv.Delete(Key)
}

// errUnchanged aborts an update without writing.
var errUnchanged = errors.New("history unchanged")

func (s *Store) update(fn func([]Entry) ([]Entry, error)) error {
	err := s.kv.Update(Key, func(current string, _ bool) (string, error) {
		entries, err := fn(decode(current))
		if err != nil {
			return "", err
		}
		if entries == nil {
			entries = []Entry{}
		}
		data, err := json.Marshal(entries)
		if err != nil {
			return "", fmt.Errorf("encode history: %w", err)
		}
		return string(data), nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// storedEntry accepts both the current layout and the legacy
// {date, provider, long, short} layout.
type storedEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	LongURL   string `json:"long_url"`
	ShortURL  string `json:"short_url"`
	Provider  string `json:"provider"`

	Date  string `json:"date"`
	Long  string `json:"long"`
	Short string `json:"short"`
}

var legacyDateLayouts = []string{
	time.RFC3339Nano,
	"1/2/2006, 3:04:05 PM",
	"2/1/2006, 15:04:05",
	"2006-01-02 15:04:05",
}

// decode parses the stored log, skipping entries that fail validation.
func decode(raw string) []Entry {
	if raw == "" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		utils.Debug("history: discarding unreadable log: %v", err)
		return nil
	}

	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		var se storedEntry
		if err := json.Unmarshal(item, &se); err != nil {
			utils.Debug("history: skipping entry %d: %v", i, err)
			continue
		}
		e, ok := se.toEntry()
		if !ok {
			utils.Debug("history: skipping invalid entry %d", i)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func (se storedEntry) toEntry() (Entry, bool) {
	long, short := se.LongURL, se.ShortURL
	if long == "" {
		long = se.Long
	}
	if short == "" {
		short = se.Short
	}
	if long == "" || short == "" {
		return Entry{}, false
	}

	provider, err := shorten.ParseProviderID(se.Provider)
	if err != nil {
		return Entry{}, false
	}

	e := Entry{LongURL: long, ShortURL: short, Provider: provider}
	if id, err := uuid.Parse(se.ID); err == nil {
		e.ID = id
	}

	stamp := se.Timestamp
	if stamp == "" {
		stamp = se.Date
	}
	for _, layout := range legacyDateLayouts {
		if t, err := time.ParseInLocation(layout, stamp, time.Local); err == nil {
			e.Timestamp = t
			break
		}
	}
	return e, true
}
