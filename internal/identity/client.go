// Package identity resolves access tokens issued by the external auth
// provider into users, and performs the few admin calls the forum needs.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"
)

var (
	ErrInvalidSession = errors.New("identity: invalid or expired session")
	ErrNotConfigured  = errors.New("identity: auth provider is not configured")
)

// User is the identity behind an access token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Authenticator resolves an access token. Tokens that are expired, revoked
// or malformed yield ErrInvalidSession.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (User, error)
}

const requestTimeout = 10 * time.Second

// Client talks to Supabase Auth through auth-go.
type Client struct {
	authURL    string
	anonKey    string
	serviceKey string
	transport  http.RoundTripper
}

// NewClient builds a client for the project at baseURL. The service key is
// only needed for DeleteUser.
func NewClient(baseURL, anonKey, serviceKey string) *Client {
	c := &Client{
		anonKey:    anonKey,
		serviceKey: serviceKey,
		transport:  http.DefaultTransport,
	}
	if base := strings.TrimRight(baseURL, "/"); base != "" {
		c.authURL = base + "/auth/v1"
	}
	return c
}

// Configured reports whether tokens can be resolved.
func (c *Client) Configured() bool {
	return c.authURL != "" && c.anonKey != ""
}

// CanDeleteUsers reports whether admin calls are possible.
func (c *Client) CanDeleteUsers() bool {
	return c.Configured() && c.serviceKey != ""
}

// statusTransport binds one auth-go call to ctx and remembers the last
// response status, which auth-go only reports inside its error text.
type statusTransport struct {
	ctx    context.Context
	base   http.RoundTripper
	status int
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}
	t.status = resp.StatusCode
	return resp, nil
}

// call returns an auth-go client keyed with apiKey whose requests run under
// ctx, plus the transport recording their status.
func (c *Client) call(ctx context.Context, apiKey string) (auth.Client, *statusTransport) {
	st := &statusTransport{ctx: ctx, base: c.transport}
	client := auth.New("", apiKey).
		WithCustomAuthURL(c.authURL).
		WithClient(http.Client{Transport: st, Timeout: requestTimeout})
	return client, st
}

// Authenticate asks the provider who owns token.
func (c *Client) Authenticate(ctx context.Context, token string) (User, error) {
	if !c.Configured() {
		return User{}, ErrNotConfigured
	}

	client, st := c.call(ctx, c.anonKey)
	resp, err := client.WithToken(token).GetUser()
	if err != nil {
		if st.status >= 400 && st.status < 500 {
			return User{}, ErrInvalidSession
		}
		return User{}, fmt.Errorf("identity: fetch user: %w", err)
	}
	if resp == nil || resp.ID == uuid.Nil {
		return User{}, ErrInvalidSession
	}
	return User{ID: resp.ID.String(), Email: resp.Email}, nil
}

// DeleteUser removes the account through the admin API.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if !c.CanDeleteUsers() {
		return ErrNotConfigured
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("identity: delete user %q: %w", userID, err)
	}

	client, _ := c.call(ctx, c.serviceKey)
	if err := client.WithToken(c.serviceKey).AdminDeleteUser(types.AdminDeleteUserRequest{UserID: id}); err != nil {
		return fmt.Errorf("identity: delete user: %w", err)
	}
	return nil
}
