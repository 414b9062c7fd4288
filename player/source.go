package player

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ResolveSource turns a media-source id into something mpv can open.
// With a base URL the id is appended as a path segment, otherwise it must
// be a URL or a file path.
func ResolveSource(base, src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", fmt.Errorf("empty media source")
	}

	if base == "" || strings.Contains(src, "://") {
		return sanitizeMediaTarget(src)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid media base url: %w", err)
	}

	return sanitizeMediaTarget(u.JoinPath(src).String())
}

// sanitizeMediaTarget validates that a target is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// Prevent flag injection: targets must not start with -
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}
