package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "6f1c2d3e-4a5b-4c6d-8e7f-901234567890"

func TestClientAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": testUserID, "email": "a@example.com"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "anon", "")

	user, err := c.Authenticate(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, User{ID: testUserID, Email: "a@example.com"}, user)

	_, err = c.Authenticate(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestClientAuthenticateUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "anon", "").Authenticate(context.Background(), "tok")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient("", "", "")

	_, err := c.Authenticate(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, c.DeleteUser(context.Background(), testUserID), ErrNotConfigured)

	assert.False(t, NewClient("http://auth", "anon", "").CanDeleteUsers())
	assert.True(t, NewClient("http://auth", "anon", "svc").CanDeleteUsers())
}

func TestClientDeleteUser(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "anon", "svc").DeleteUser(context.Background(), testUserID)

	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/admin/users/"+testUserID, gotPath)
	assert.Equal(t, "Bearer svc", gotAuth)
}

func TestClientDeleteUserFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "user not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "anon", "svc").DeleteUser(context.Background(), testUserID)

	require.Error(t, err)
}

func TestClientDeleteUserRejectsMalformedID(t *testing.T) {
	err := NewClient("http://auth.invalid", "anon", "svc").DeleteUser(context.Background(), "u-1")
	require.Error(t, err)
}

func TestClientAuthenticateHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": testUserID})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, "anon", "").Authenticate(ctx, "good")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
}
