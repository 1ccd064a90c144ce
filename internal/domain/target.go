package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeTargetURL validates a submitted target URL and returns the
// form that gets stored: trimmed, with https:// prepended when no scheme
// was given. The host must contain a dot, so bare words like "localhost"
// are rejected the same way malformed URLs are.
func NormalizeTargetURL(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidTarget)
	}

	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	if parsed.Host == "" || !strings.Contains(parsed.Hostname(), ".") {
		return "", fmt.Errorf("%w: no domain in %q", ErrInvalidTarget, raw)
	}

	return target, nil
}
