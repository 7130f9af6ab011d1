package middleware

import (
	"strings"
)

// BearerError is a rejected Authorization header. Its message is returned to
// API callers unchanged.
type BearerError struct {
	Message string
}

func (e *BearerError) Error() string { return e.Message }

var (
	ErrMissingAuthHeader = &BearerError{Message: "Missing Authorization header."}
	ErrBadAuthHeader     = &BearerError{Message: "Invalid Authorization header format."}
	ErrMissingToken      = &BearerError{Message: "Missing access token."}
)

// ParseBearer extracts the access token from an Authorization header value.
func ParseBearer(header string) (string, *BearerError) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.Split(header, " ")
	scheme := parts[0]
	token := ""
	if len(parts) > 1 {
		token = parts[1]
	}
	if scheme == "" || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", ErrBadAuthHeader
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
