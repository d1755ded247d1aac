// Package identity turns a caller's bearer token into a user ID.
package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthorized covers every way a token can fail to resolve.
var ErrUnauthorized = errors.New("unauthorized")

// Resolver resolves a bearer token to the ID of the user it belongs to.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// BearerToken extracts the token from an Authorization header. The header
// must start with "Bearer " exactly.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
