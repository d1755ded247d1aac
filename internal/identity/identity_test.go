package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"", "bearer abc", "Basic abc", "Bearerabc"} {
		_, ok := BearerToken(header)
		assert.False(t, ok, header)
	}
}

func TestIntrospectionResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"id":"5d1c7a3e-user","email":"cook@example.com"}`))
		case "Bearer no-id":
			_, _ = w.Write([]byte(`{"email":"cook@example.com"}`))
		case "Bearer garbled":
			_, _ = w.Write([]byte(`<html>`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	resolver := NewIntrospectionResolver(server.URL+"/", "anon", time.Second, server.Client())

	id, err := resolver.Resolve(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "5d1c7a3e-user", id)

	for _, token := range []string{"bad", "no-id", "garbled", ""} {
		_, err := resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthorized, token)
	}
}

func TestIntrospectionResolverTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewIntrospectionResolver(url, "anon", time.Second, nil).Resolve(context.Background(), "good")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIntrospectionResolverSkipsExpiredJWT(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"id":"user-1"}`))
	}))
	defer server.Close()

	resolver := NewIntrospectionResolver(server.URL, "anon", time.Second, server.Client())

	expired := signed(t, "whatever", jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Minute).Unix()})
	_, err := resolver.Resolve(context.Background(), expired)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, calls.Load())

	live := signed(t, "whatever", jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	id, err := resolver.Resolve(context.Background(), live)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
	assert.Equal(t, int32(1), calls.Load())
}

func TestJWTResolver(t *testing.T) {
	resolver := NewJWTResolver("project-secret")

	good := signed(t, "project-secret", jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	id, err := resolver.Resolve(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	tests := map[string]string{
		"wrong secret": signed(t, "other", jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()}),
		"expired":      signed(t, "project-secret", jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no exp":       signed(t, "project-secret", jwt.MapClaims{"sub": "user-1"}),
		"no subject":   signed(t, "project-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
		"not a jwt":    "opaque",
		"empty":        "",
	}
	for name, token := range tests {
		_, err := resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthorized, name)
	}
}
