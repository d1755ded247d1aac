package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IntrospectionResolver asks the hosted auth service who owns a token.
type IntrospectionResolver struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	now     func() time.Time
}

// NewIntrospectionResolver creates a resolver calling {baseURL}/auth/v1/user.
// A nil client uses http.DefaultClient.
func NewIntrospectionResolver(baseURL, apiKey string, timeout time.Duration, client *http.Client) *IntrospectionResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &IntrospectionResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		client:  client,
		now:     time.Now,
	}
}

type userResponse struct {
	ID string `json:"id"`
}

// Resolve makes a single attempt; any failure is ErrUnauthorized.
func (r *IntrospectionResolver) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" || r.expired(token) {
		return "", ErrUnauthorized
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", ErrUnauthorized
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", ErrUnauthorized
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", ErrUnauthorized
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil || user.ID == "" {
		return "", ErrUnauthorized
	}
	return user.ID, nil
}

// expired reports whether token is a JWT whose exp has passed. Tokens that do
// not parse as JWTs are left for the auth service to judge.
func (r *IntrospectionResolver) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(r.now())
}
