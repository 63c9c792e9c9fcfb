package egnyte

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/egnyte-provisioner/internal/infrastructure/tokenstore"
)

func newTestSource(server *httptest.Server) *TokenSource {
	return NewTokenSource(OAuthConfig{
		TokenURL:     server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "svc-user",
		Password:     "svc-pass",
	})
}

func TestTokenSource_Mint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "svc-user", r.PostForm.Get("username"))
		assert.Equal(t, "svc-pass", r.PostForm.Get("password"))
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token"}`))
	}))
	defer server.Close()

	token, err := newTestSource(server).Mint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token.AccessToken)
}

func TestTokenSource_Mint_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestSource(server).Mint(context.Background())

	var rateLimited *tokenstore.RateLimitError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 30*time.Second, rateLimited.RetryAfter)
}

func TestTokenSource_Mint_RateLimitedWithoutHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestSource(server).Mint(context.Background())

	var rateLimited *tokenstore.RateLimitError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, time.Duration(0), rateLimited.RetryAfter)
}

func TestTokenSource_Mint_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestSource(server).Mint(context.Background())
	require.Error(t, err)

	var rateLimited *tokenstore.RateLimitError
	assert.False(t, errors.As(err, &rateLimited))
}
