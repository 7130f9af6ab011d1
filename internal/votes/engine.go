package votes

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// Result reports the outcome of a toggle.
type Result struct {
	Key      Key
	Previous Value
	Current  Value
	Score    int
}

// Engine caches one user's votes and the scores of the targets on one page.
//
// Scores are seeded from the store's aggregate and then moved by deltas, so
// two toggles on the same target racing each other can leave the cached score
// off by the overlap. The store stays right; Resync puts the cache back.
type Engine struct {
	store  Store
	userID string

	mu     sync.Mutex
	votes  map[Key]Value
	scores map[Key]int
	closed bool
}

// Option seeds an Engine at construction.
type Option func(*Engine)

// WithScores seeds cached scores.
func WithScores(scores map[Key]int) Option {
	return func(e *Engine) { maps.Copy(e.scores, scores) }
}

// WithVotes seeds the user's current votes. None values are ignored.
func WithVotes(votes map[Key]Value) Option {
	return func(e *Engine) { copyVotes(e.votes, votes) }
}

// New returns an engine acting for userID. An empty userID yields an engine
// that refuses every toggle with ErrUnauthenticated.
func New(store Store, userID string, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		userID: userID,
		votes:  make(map[Key]Value),
		scores: make(map[Key]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Current returns the user's vote on key, None when nothing is cached.
func (e *Engine) Current(key Key) Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.votes[key]
}

// Score returns the cached score of key.
func (e *Engine) Score(key Key) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scores[key]
}

// Has reports whether a score for key has been loaded.
func (e *Engine) Has(key Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.scores[key]
	return ok
}

// Hydrate merges freshly loaded scores and votes into the cache. Every key in
// scores is treated as fully loaded: its vote is reset to whatever votes says.
func (e *Engine) Hydrate(scores map[Key]int, votes map[Key]Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, s := range scores {
		e.scores[k] = s
		delete(e.votes, k)
	}
	copyVotes(e.votes, votes)
}

// Resync replaces the whole cache with authoritative data.
func (e *Engine) Resync(scores map[Key]int, votes map[Key]Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scores = make(map[Key]int, len(scores))
	maps.Copy(e.scores, scores)
	e.votes = make(map[Key]Value, len(votes))
	copyVotes(e.votes, votes)
}

// Close detaches the engine. Toggles already talking to the store finish
// their write, but their outcome is no longer applied to the cache.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Toggle applies a click in direction to key. The store is written first;
// the cache only moves once the write succeeded. On error the cache is left
// exactly as it was.
func (e *Engine) Toggle(ctx context.Context, key Key, direction Value) (Result, error) {
	if e.userID == "" {
		return Result{}, ErrUnauthenticated
	}
	if direction != Up && direction != Down {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidDir, direction)
	}

	e.mu.Lock()
	current := e.votes[key]
	e.mu.Unlock()

	next := NextValue(current, direction)

	var err error
	if next == None {
		err = e.store.DeleteVote(ctx, e.userID, key)
	} else {
		err = e.store.UpsertVote(ctx, e.userID, key, next)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		return Result{Key: key, Previous: current, Current: current, Score: e.scores[key]},
			fmt.Errorf("votes: persist %s: %w", key, err)
	}

	score := e.scores[key] - int(current) + int(next)
	res := Result{Key: key, Previous: current, Current: next, Score: score}
	if e.closed {
		return res, nil
	}
	if next == None {
		delete(e.votes, key)
	} else {
		e.votes[key] = next
	}
	e.scores[key] = score
	return res, nil
}

func copyVotes(dst, src map[Key]Value) {
	for k, v := range src {
		if v == None {
			continue
		}
		dst[k] = v
	}
}
