package utils

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TimeAgo renders t relative to now, e.g. "3 minutes ago". Anything within
// five seconds of now is "just now".
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := time.Since(t)
	if diff < 0 {
		diff = -diff
	}
	if diff <= 5*time.Second {
		return "just now"
	}
	return humanize.Time(t)
}
