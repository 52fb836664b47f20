// Package theme persists the light/dark preference.
package theme

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/snip-cli/snip/internal/storage"
	"github.com/snip-cli/snip/internal/utils"
)

// Key is the storage key of the theme preference.
const Key = "snip_theme"

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"

	Default = Dark
)

// Parse accepts "light" or "dark" in any case.
func Parse(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
}

// Toggled returns the opposite theme.
func (t Theme) Toggled() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

// Indicator is the glyph shown on the theme toggle.
func (t Theme) Indicator() string {
	if t == Light {
		return "🌞"
	}
	return "🌙"
}

// Apply switches the adaptive lipgloss palette to t.
func Apply(t Theme) {
	lipgloss.SetHasDarkBackground(t != Light)
}

// State is the persisted theme. Storage failures are never surfaced; the
// value then lives in memory for the session.
type State struct {
	kv storage.Store

	mu      sync.Mutex
	current Theme
	loaded  bool
}

func NewState(kv storage.Store) *State {
	return &State{kv: kv}
}

// Load reads the stored theme, falling back to Default.
func (s *State) Load() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *State) loadLocked() Theme {
	if s.loaded {
		return s.current
	}
	s.current = Default
	s.loaded = true

	raw, ok, err := s.kv.Get(Key)
	if err != nil {
		utils.Debug("theme: load failed, using %s: %v", Default, err)
		return s.current
	}
	if !ok {
		return s.current
	}
	if t, err := Parse(raw); err == nil {
		s.current = t
	}
	return s.current
}

// Toggle flips and persists the theme, returning the new value.
func (s *State) Toggle() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(s.loadLocked().Toggled())
}

// Set persists t.
func (s *State) Set(t Theme) Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.setLocked(t)
}

func (s *State) setLocked(t Theme) Theme {
	s.current = t
	if err := s.kv.Set(Key, string(t)); err != nil {
		utils.Debug("theme: save failed: %v", err)
	}
	return t
}
