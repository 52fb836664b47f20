package clipboard

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/snip-cli/snip/internal/source"
)

var (
	clipboardReadAll  = clipboard.ReadAll
	clipboardWriteAll = clipboard.WriteAll
)

// Validator picks URLs out of clipboard text. Unlike source.Normalize it
// requires an explicit http(s) scheme, so ordinary copied words are ignored.
type Validator struct {
	allowedSchemes map[string]bool
}

func NewValidator() *Validator {
	return &Validator{
		allowedSchemes: map[string]bool{"http": true, "https": true},
	}
}

func (v *Validator) ExtractURL(text string) string {
	text = strings.TrimSpace(text)

	// Quick reject: too long, contains newlines, or obviously not a URL
	if len(text) > source.MaxURLLength || strings.ContainsAny(text, "\n\r") {
		return ""
	}

	scheme, _, ok := strings.Cut(text, "://")
	if !ok || !v.allowedSchemes[strings.ToLower(scheme)] {
		return ""
	}

	normalized, err := source.Normalize(text)
	if err != nil {
		return ""
	}
	return normalized
}

// ReadURL returns the clipboard contents if they hold a URL.
func ReadURL() string {
	text, err := clipboardReadAll()
	if err != nil {
		return ""
	}
	validator := NewValidator()
	return validator.ExtractURL(text)
}

// Copy places text on the system clipboard.
func Copy(text string) error {
	if err := clipboardWriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
