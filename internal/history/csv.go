package history

import (
	"bytes"
	"io"
	"strings"
	"time"
)

// ExportFileName is the default file name for exported history.
const ExportFileName = "url-history.csv"

var csvHeader = []string{"Time", "Original", "Short", "Provider"}

// ExportCSV serializes the full log. It returns nil when the log is empty.
func (s *Store) ExportCSV() ([]byte, error) {
	var buf bytes.Buffer
	n, err := s.WriteCSV(&buf)
	if err != nil || n == 0 {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes the log as CSV and returns the number of entries
// written. Nothing is written for an empty log.
func (s *Store) WriteCSV(w io.Writer) (int, error) {
	entries, err := s.List()
	if err != nil || len(entries) == 0 {
		return 0, err
	}

	var b strings.Builder
	writeRow(&b, csvHeader)
	for _, e := range entries {
		writeRow(&b, []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			e.LongURL,
			e.ShortURL,
			string(e.Provider),
		})
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// writeRow quotes every field and doubles embedded quotes.
func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}
