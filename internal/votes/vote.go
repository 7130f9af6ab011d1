// Package votes keeps a user's up/down votes and the visible scores of the
// targets on a page, and writes each change through to the store before
// applying it locally.
package votes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// TargetType names what a vote is attached to.
type TargetType string

const (
	TargetThread  TargetType = "thread"
	TargetComment TargetType = "comment"
)

// Value is a stored vote: Down, None or Up.
type Value int

const (
	Down Value = -1
	None Value = 0
	Up   Value = 1
)

var (
	ErrUnauthenticated = errors.New("votes: no signed-in user")
	ErrInvalidTarget   = errors.New("votes: unknown target type")
	ErrInvalidDir      = errors.New("votes: direction must be up or down")
)

// ParseTargetType accepts "thread" or "comment".
func ParseTargetType(s string) (TargetType, error) {
	switch t := TargetType(s); t {
	case TargetThread, TargetComment:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTarget, s)
}

// ParseDirection accepts "up", "down", "1" and "-1".
func ParseDirection(s string) (Value, error) {
	switch s {
	case "up", "1", "+1":
		return Up, nil
	case "down", "-1":
		return Down, nil
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidDir, s)
}

// Key identifies a vote target.
type Key struct {
	Type TargetType
	ID   int64
}

func (k Key) String() string {
	return string(k.Type) + ":" + strconv.FormatInt(k.ID, 10)
}

// NextValue is the vote left after clicking direction while holding current.
// Clicking the held direction clears the vote; any other click sets it.
func NextValue(current, direction Value) Value {
	if current == direction {
		return None
	}
	return direction
}

// Store persists votes. UpsertVote must overwrite an existing row for the
// same (user, target) rather than add a second one.
type Store interface {
	UpsertVote(ctx context.Context, userID string, key Key, value Value) error
	DeleteVote(ctx context.Context, userID string, key Key) error
}
