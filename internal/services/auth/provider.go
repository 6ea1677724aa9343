// Package auth verifies bearer tokens and carries the caller's identity
// through a request.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned for tokens that fail verification
var ErrInvalidToken = errors.New("invalid token")

type AuthType string

const (
	AuthTypeClerk AuthType = "clerk"
	AuthTypeJWT   AuthType = "jwt"
)

// Identity is the verified caller behind a token
type Identity struct {
	Type      AuthType
	UserID    string
	SessionID string
}

// Verifier turns a bearer token into an Identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
