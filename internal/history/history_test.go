package history

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snip-cli/snip/internal/shorten"
	"github.com/snip-cli/snip/internal/storage"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	s := NewStore(storage.NewMemoryStore(), capacity)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return s
}

func longURLs(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.LongURL
	}
	return out
}

func TestAppend_NewestFirst(t *testing.T) {
	s := newTestStore(t, 10)

	for _, u := range []string{"https://a.example/", "https://b.example/", "https://c.example/"} {
		_, err := s.Record(u, u+"s", shorten.IsGd)
		require.NoError(t, err)
	}

	entries, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://c.example/", "https://b.example/", "https://a.example/"}, longURLs(entries))
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))
	assert.NotEqual(t, uuid.Nil, entries[0].ID)
}

func TestAppend_EvictsOldestAtCapacity(t *testing.T) {
	const capacity = 5
	s := newTestStore(t, capacity)

	for i := 0; i <= capacity; i++ {
		_, err := s.Record(fmt.Sprintf("https://example.com/%d", i), "https://is.gd/x", shorten.IsGd)
		require.NoError(t, err)
	}

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, capacity)
	assert.Equal(t, "https://example.com/5", entries[0].LongURL)
	assert.Equal(t, "https://example.com/1", entries[capacity-1].LongURL)
	assert.NotContains(t, longURLs(entries), "https://example.com/0")
}

func TestAppend_FillsMissingFields(t *testing.T) {
	s := newTestStore(t, 3)
	require.NoError(t, s.Append(Entry{LongURL: "https://a.example/", ShortURL: "https://t.example/a", Provider: shorten.TinyURL}))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEqual(t, uuid.Nil, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestRemove(t *testing.T) {
	s := newTestStore(t, 10)
	for _, u := range []string{"C", "B", "A"} {
		_, err := s.Record("https://"+u+".example/", "https://s.example/"+u, shorten.Local)
		require.NoError(t, err)
	}

	require.NoError(t, s.Remove(0))
	entries, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://B.example/", "https://C.example/"}, longURLs(entries))

	for _, idx := range []int{-1, 2, 100} {
		require.NoError(t, s.Remove(idx))
	}
	entries, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://B.example/", "https://C.example/"}, longURLs(entries))
}

func TestRemove_EmptyLog(t *testing.T) {
	s := newTestStore(t, 10)
	require.NoError(t, s.Remove(0))
	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemove_OutOfRangeWritesNothing(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := NewStore(kv, 10)

	require.NoError(t, s.Remove(3))
	_, ok, err := kv.Get(Key)
	require.NoError(t, err)
	assert.False(t, ok, "no key must be created")

	const raw = `[{"id":"x","timestamp":"yesterday","long_url":"nope"}]`
	require.NoError(t, kv.Set(Key, raw))
	require.NoError(t, s.Remove(0))
	v, _, err := kv.Get(Key)
	require.NoError(t, err)
	assert.Equal(t, raw, v, "unreadable rows stay untouched")
}

func TestClear(t *testing.T) {
	s := newTestStore(t, 10)
	_, err := s.Record("https://a.example/", "https://s.example/a", shorten.CleanURI)
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_ReadsFreshState(t *testing.T) {
	kv := storage.NewMemoryStore()
	a := NewStore(kv, 10)
	b := NewStore(kv, 10)

	_, err := a.Record("https://a.example/", "https://s.example/a", shorten.Shrtco)
	require.NoError(t, err)

	entries, err := b.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDecode_SkipsInvalidAndUpgradesLegacy(t *testing.T) {
	kv := storage.NewMemoryStore()
	raw := `[
		{"id":"8a4c3f5e-8f2b-4d5e-9a41-0a3c5e9f1b2d","timestamp":"2024-05-01T12:00:00Z","long_url":"https://new.example/","short_url":"https://is.gd/n","provider":"isgd"},
		{"date":"5/1/2024, 9:30:00 AM","provider":"TinyURL","long":"https://old.example/","short":"https://tinyurl.com/o"},
		{"long_url":"https://x.example/","short_url":"https://s.example/x","provider":"bitly"},
		{"long_url":"","short_url":"https://s.example/y","provider":"isgd"},
		42
	]`
	require.NoError(t, kv.Set(Key, raw))

	entries, err := NewStore(kv, 10).List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, shorten.IsGd, entries[0].Provider)
	assert.Equal(t, "8a4c3f5e-8f2b-4d5e-9a41-0a3c5e9f1b2d", entries[0].ID.String())
	assert.True(t, entries[0].Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	assert.Equal(t, shorten.TinyURL, entries[1].Provider)
	assert.Equal(t, "https://old.example/", entries[1].LongURL)
	assert.Equal(t, "https://tinyurl.com/o", entries[1].ShortURL)
	assert.Equal(t, 9, entries[1].Timestamp.Hour())
}

func TestDecode_GarbageIsEmpty(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(Key, `{"not":"a list"}`))

	s := NewStore(kv, 10)
	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.Record("https://a.example/", "https://s.example/a", shorten.IsGd)
	require.NoError(t, err)
	entries, err = s.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportCSV_Empty(t *testing.T) {
	s := newTestStore(t, 10)
	data, err := s.ExportCSV()
	require.NoError(t, err)
	assert.Nil(t, data)

	var buf bytes.Buffer
	n, err := s.WriteCSV(&buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())
}

func TestExportCSV_RoundTrip(t *testing.T) {
	s := newTestStore(t, 10)
	inputs := []struct {
		long, short string
		provider    shorten.ProviderID
	}{
		{"https://example.com/a?x=1,2", "https://is.gd/a", shorten.IsGd},
		{`https://example.com/"quoted"`, "https://tinyurl.com/q", shorten.TinyURL},
		{"https://example.com/plain", "http://127.0.0.1:1700/?go=abc", shorten.Local},
	}
	for _, in := range inputs {
		_, err := s.Record(in.long, in.short, in.provider)
		require.NoError(t, err)
	}

	data, err := s.ExportCSV()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"https://example.com/""quoted"""`)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(inputs)+1)
	assert.Equal(t, []string{"Time", "Original", "Short", "Provider"}, rows[0])

	entries, err := s.List()
	require.NoError(t, err)
	for i, e := range entries {
		row := rows[i+1]
		ts, err := time.Parse(time.RFC3339, row[0])
		require.NoError(t, err)
		assert.True(t, ts.Equal(e.Timestamp.Truncate(time.Second)))
		assert.Equal(t, e.LongURL, row[1])
		assert.Equal(t, e.ShortURL, row[2])
		assert.Equal(t, string(e.Provider), row[3])
	}
}

func TestStore_WithSQLite(t *testing.T) {
	kv := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "snip.db"))
	defer kv.Close()

	s := NewStore(kv, 2)
	for _, u := range []string{"https://1.example/", "https://2.example/", "https://3.example/"} {
		_, err := s.Record(u, "https://is.gd/z", shorten.IsGd)
		require.NoError(t, err)
	}
	entries, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://3.example/", "https://2.example/"}, longURLs(entries))
}
