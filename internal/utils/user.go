package utils

import (
	"strings"
)

// AuthorLabel is the name shown next to a thread or comment: the trimmed
// display name, else user-<first 8 of the author id>, else anonymous.
// Author ids shorter than 8 characters count as unknown.
func AuthorLabel(displayName, authorID *string) string {
	if displayName != nil {
		if name := strings.TrimSpace(*displayName); name != "" {
			return name
		}
	}
	if authorID != nil && len(*authorID) >= 8 {
		return "user-" + (*authorID)[:8]
	}
	return "anonymous"
}
