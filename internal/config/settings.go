package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultHistoryCapacity is the number of history entries kept when the
// setting is absent.
const DefaultHistoryCapacity = 200

// Slug styles for the local provider.
const (
	SlugStyleRandom    = "random"
	SlugStyleComposite = "composite"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General GeneralSettings `json:"general" yaml:"general"`
	Network NetworkSettings `json:"network" yaml:"network"`
	Local   LocalSettings   `json:"local" yaml:"local"`
	Server  ServerSettings  `json:"server" yaml:"server"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	DefaultProvider   string        `json:"default_provider" yaml:"default_provider"`
	HistoryCapacity   int           `json:"history_capacity" yaml:"history_capacity"`
	CopyOnSuccess     bool          `json:"copy_on_success" yaml:"copy_on_success"`
	ClipboardPrefill  bool          `json:"clipboard_prefill" yaml:"clipboard_prefill"`
	AlertTimeout      time.Duration `json:"alert_timeout" yaml:"alert_timeout"`
	LogRetentionCount int           `json:"log_retention_count" yaml:"log_retention_count"`
	LogLevel          string        `json:"log_level" yaml:"log_level"`
}

// NetworkSettings controls outgoing provider requests.
type NetworkSettings struct {
	UserAgent      string        `json:"user_agent" yaml:"user_agent"`
	ProxyURL       string        `json:"proxy_url" yaml:"proxy_url"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// LocalSettings configures the local slug provider.
type LocalSettings struct {
	BaseURL       string `json:"base_url" yaml:"base_url"`
	SlugStyle     string `json:"slug_style" yaml:"slug_style"`
	SlugLength    int    `json:"slug_length" yaml:"slug_length"`
	MaxSlugLength int    `json:"max_slug_length" yaml:"max_slug_length"`
}

// ServerSettings configures `snip serve`.
type ServerSettings struct {
	Port int `json:"port" yaml:"port"`
}

// UnmarshalJSON accepts the legacy top-level "proxy" key and moves it
// into network.proxy_url.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type Alias Settings
	if err := json.Unmarshal(data, (*Alias)(s)); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	if proxy, ok := raw["proxy"]; ok && s.Network.ProxyURL == "" {
		var legacy string
		if err := json.Unmarshal(proxy, &legacy); err == nil {
			s.Network.ProxyURL = legacy
		}
	}

	return nil
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			DefaultProvider:   "tinyurl",
			HistoryCapacity:   DefaultHistoryCapacity,
			CopyOnSuccess:     false,
			ClipboardPrefill:  true,
			AlertTimeout:      4 * time.Second,
			LogRetentionCount: 5,
			LogLevel:          "debug",
		},
		Network: NetworkSettings{
			UserAgent:      "", // Empty means snip/<version>
			ProxyURL:       "",
			RequestTimeout: 0, // Zero means no client-side timeout
		},
		Local: LocalSettings{
			BaseURL:       "http://127.0.0.1:1700/",
			SlugStyle:     SlugStyleRandom,
			SlugLength:    7,
			MaxSlugLength: 64,
		},
		Server: ServerSettings{
			Port: 1700,
		},
	}
}

// Validate checks settings for values the rest of the program cannot use.
func (s *Settings) Validate() error {
	var errs []error
	if s.General.HistoryCapacity < 1 {
		errs = append(errs, fmt.Errorf("general.history_capacity must be positive, got %d", s.General.HistoryCapacity))
	}
	if s.General.AlertTimeout < 0 {
		errs = append(errs, fmt.Errorf("general.alert_timeout must not be negative"))
	}
	if s.Network.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("network.request_timeout must not be negative"))
	}
	if s.Network.ProxyURL != "" {
		if err := checkAbsURL(s.Network.ProxyURL); err != nil {
			errs = append(errs, fmt.Errorf("network.proxy_url: %w", err))
		}
	}
	if err := checkAbsURL(s.Local.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("local.base_url: %w", err))
	}
	switch s.Local.SlugStyle {
	case SlugStyleRandom, SlugStyleComposite:
	default:
		errs = append(errs, fmt.Errorf("local.slug_style must be %q or %q, got %q", SlugStyleRandom, SlugStyleComposite, s.Local.SlugStyle))
	}
	if s.Local.MaxSlugLength < 1 {
		errs = append(errs, fmt.Errorf("local.max_slug_length must be positive"))
	}
	if s.Local.SlugLength < 1 || s.Local.SlugLength > s.Local.MaxSlugLength {
		errs = append(errs, fmt.Errorf("local.slug_length must be between 1 and %d", s.Local.MaxSlugLength))
	}
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", s.Server.Port))
	}
	return errors.Join(errs...)
}

func checkAbsURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetSnipDir(), "settings.json")
}

// LoadSettings loads settings from disk and applies SNIP_* environment
// overrides. Returns defaults if the file doesn't exist.
func LoadSettings() (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(GetSettingsPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parse %s: %w", GetSettingsPath(), err)
		}
	}

	applyEnv(settings)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// applyEnv overlays SNIP_<SECTION>_<KEY> environment variables.
// Environment values take priority over the settings file.
func applyEnv(s *Settings) {
	v := viper.New()
	v.SetEnvPrefix("SNIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	str := func(key string, target *string) {
		if val := v.GetString(key); val != "" {
			*target = val
		}
	}
	num := func(key string, target *int) {
		if v.IsSet(key) {
			*target = v.GetInt(key)
		}
	}
	dur := func(key string, target *time.Duration) {
		if v.IsSet(key) {
			*target = v.GetDuration(key)
		}
	}
	flag := func(key string, target *bool) {
		if v.IsSet(key) {
			*target = v.GetBool(key)
		}
	}

	str("general.default_provider", &s.General.DefaultProvider)
	num("general.history_capacity", &s.General.HistoryCapacity)
	flag("general.copy_on_success", &s.General.CopyOnSuccess)
	flag("general.clipboard_prefill", &s.General.ClipboardPrefill)
	dur("general.alert_timeout", &s.General.AlertTimeout)
	num("general.log_retention_count", &s.General.LogRetentionCount)
	str("general.log_level", &s.General.LogLevel)
	str("network.user_agent", &s.Network.UserAgent)
	str("network.proxy_url", &s.Network.ProxyURL)
	dur("network.request_timeout", &s.Network.RequestTimeout)
	str("local.base_url", &s.Local.BaseURL)
	str("local.slug_style", &s.Local.SlugStyle)
	num("local.slug_length", &s.Local.SlugLength)
	num("local.max_slug_length", &s.Local.MaxSlugLength)
	num("server.port", &s.Server.Port)
}

// SaveSettings saves settings to disk atomically.
func SaveSettings(s *Settings) error {
	path := GetSettingsPath()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
