package utils

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrInvalidURL = errors.New("invalid url")

	schemePattern = regexp.MustCompile(`(?i)^https?://`)
)

// NormalizeLink cleans the optional link of a new thread. An empty input
// yields empty results. Links without a scheme get https://. The domain is
// the host with any leading www. removed.
func NormalizeLink(raw string) (link, domain string, err error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", "", nil
	}
	if !schemePattern.MatchString(candidate) {
		candidate = "https://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Hostname() == "" || strings.ContainsAny(parsed.Host, " \t") {
		return "", "", ErrInvalidURL
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	host := strings.ToLower(parsed.Hostname())
	if strings.HasPrefix(host, "www.") {
		host = host[len("www."):]
	}
	return parsed.String(), host, nil
}
