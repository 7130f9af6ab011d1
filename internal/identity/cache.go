package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "identity:token:"

// NewRedisClient connects to the Redis instance at url and checks it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("identity: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("identity: ping redis: %w", err)
	}
	return client, nil
}

// CachedAuthenticator remembers successful resolutions for a short TTL so
// page loads do not hit the auth provider every time. Failures are never
// cached. A Redis outage degrades to calling next directly.
type CachedAuthenticator struct {
	next   Authenticator
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedAuthenticator(next Authenticator, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedAuthenticator {
	return &CachedAuthenticator{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (a *CachedAuthenticator) Authenticate(ctx context.Context, token string) (User, error) {
	key := cacheKey(token)

	raw, err := a.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var user User
		if jsonErr := json.Unmarshal(raw, &user); jsonErr == nil && user.ID != "" {
			return user, nil
		}
		a.logger.Warn("discarding unreadable cached identity", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		a.logger.Warn("identity cache read failed", zap.Error(err))
	}

	user, err := a.next.Authenticate(ctx, token)
	if err != nil {
		return User{}, err
	}

	payload, err := json.Marshal(user)
	if err == nil {
		err = a.client.Set(ctx, key, payload, a.ttl).Err()
	}
	if err != nil {
		a.logger.Warn("identity cache write failed", zap.Error(err))
	}
	return user, nil
}

// Forget drops the cached resolution of token, typically on sign-out.
func (a *CachedAuthenticator) Forget(ctx context.Context, token string) error {
	if err := a.client.Del(ctx, cacheKey(token)).Err(); err != nil {
		return fmt.Errorf("identity: forget token: %w", err)
	}
	return nil
}
