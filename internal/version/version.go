// Package version checks GitHub for newer snip releases.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vfaronov/httpheader"
)

const (
	// ReleasesURL is the endpoint for fetching the latest release
	ReleasesURL = "https://api.github.com/repos/snip-cli/snip/releases/latest"
	// RequestTimeout bounds the release lookup
	RequestTimeout = 10 * time.Second
)

// ErrDevBuild is returned when the running binary has no release version.
var ErrDevBuild = errors.New("development build")

// endpoint is swapped out in tests.
var endpoint = ReleasesURL

// UpdateInfo describes the latest published release relative to ours.
type UpdateInfo struct {
	CurrentVersion  string
	LatestVersion   string
	ReleaseURL      string
	UpdateAvailable bool
}

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckForUpdate asks GitHub for the latest release and compares it with
// currentVersion.
func CheckForUpdate(ctx context.Context, currentVersion string) (*UpdateInfo, error) {
	if currentVersion == "dev" || currentVersion == "" {
		return nil, ErrDevBuild
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	// GitHub rejects requests without a User-Agent
	httpheader.SetUserAgent(req.Header, []httpheader.Product{{Name: "snip", Version: normalizeVersion(currentVersion)}})
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching latest release: %s", resp.Status)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}

	return &UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   rel.TagName,
		ReleaseURL:      rel.HTMLURL,
		UpdateAvailable: isNewerVersion(normalizeVersion(rel.TagName), normalizeVersion(currentVersion)),
	}, nil
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// isNewerVersion compares MAJOR.MINOR.PATCH strings.
func isNewerVersion(latest, current string) bool {
	l, c := parseVersion(latest), parseVersion(current)
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

// parseVersion ignores pre-release and build suffixes ("1.2.3-rc1").
func parseVersion(v string) [3]int {
	var parts [3]int
	segments := strings.Split(v, ".")
	for i := 0; i < len(segments) && i < 3; i++ {
		num := segments[i]
		if idx := strings.IndexAny(num, "-+"); idx != -1 {
			num = num[:idx]
		}
		_, _ = fmt.Sscanf(num, "%d", &parts[i])
	}
	return parts
}
