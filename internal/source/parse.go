package source

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// MaxURLLength is the longest input accepted for shortening.
const MaxURLLength = 2048

var (
	ErrEmptyInput       = errors.New("empty input")
	ErrInvalidURL       = errors.New("not a valid URL")
	ErrSchemeNotAllowed = errors.New("only http and https URLs are allowed")
)

// NormalizeError reports why an input could not be turned into a URL.
type NormalizeError struct {
	Input string
	Err   error
}

func (e *NormalizeError) Error() string {
	if errors.Is(e.Err, ErrEmptyInput) {
		return "normalize: empty input"
	}
	return fmt.Sprintf("normalize %q: %v", e.Input, e.Err)
}

func (e *NormalizeError) Unwrap() error { return e.Err }

var (
	schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)
	opaqueScheme = regexp.MustCompile(`(?i)^(mailto|javascript|data|tel|file|about|blob|vbscript|magnet):`)
)

var allowedSchemes = map[string]bool{"http": true, "https": true}

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// Normalize turns user input into a canonical absolute http(s) URL.
// Inputs without a scheme get https:// prepended.
func Normalize(raw string) (string, error) {
	return NormalizeWithBase(raw, nil)
}

// NormalizeWithBase is Normalize with path-absolute inputs ("/x") resolved
// against base.
func NormalizeWithBase(raw string, base *url.URL) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &NormalizeError{Input: raw, Err: ErrEmptyInput}
	}
	if len(s) > MaxURLLength || strings.ContainsAny(s, "\n\r") {
		return "", &NormalizeError{Input: raw, Err: ErrInvalidURL}
	}

	var (
		u   *url.URL
		err error
	)
	switch {
	case strings.HasPrefix(s, "//"):
		u, err = url.Parse("https:" + s)
	case strings.HasPrefix(s, "/"):
		if base == nil {
			return "", &NormalizeError{Input: raw, Err: ErrInvalidURL}
		}
		var ref *url.URL
		if ref, err = url.Parse(s); err == nil {
			u = base.ResolveReference(ref)
		}
	case schemePrefix.MatchString(s), opaqueScheme.MatchString(s):
		u, err = url.Parse(s)
	default:
		u, err = url.Parse("https://" + s)
	}
	if err != nil {
		return "", &NormalizeError{Input: raw, Err: ErrInvalidURL}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if !allowedSchemes[u.Scheme] {
		return "", &NormalizeError{Input: raw, Err: ErrSchemeNotAllowed}
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return "", &NormalizeError{Input: raw, Err: ErrInvalidURL}
	}

	canonicalize(u)
	return u.String(), nil
}

// canonicalize lowercases the host, drops the scheme's default port and
// gives an empty path the root path.
func canonicalize(u *url.URL) {
	host, port := u.Hostname(), u.Port()
	host = strings.ToLower(host)
	if port == defaultPorts[u.Scheme] {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		u.Host = net.JoinHostPort(strings.Trim(host, "[]"), port)
	} else {
		u.Host = host
	}
	if u.Path == "" && u.RawPath == "" {
		u.Path = "/"
	}
}

// IsHTTPURL reports whether raw is already an absolute http(s) URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// SplitArgs splits comma separated inputs into individual non-empty entries.
func SplitArgs(args []string) []string {
	var out []string
	for _, arg := range args {
		for _, p := range strings.Split(arg, ",") {
			if clean := strings.TrimSpace(p); clean != "" {
				out = append(out, clean)
			}
		}
	}
	return out
}
