package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SharedSecretVerifier accepts HS256 tokens signed with a shared secret.
// It backs local development and deployments without Clerk.
type SharedSecretVerifier struct {
	secret []byte
	issuer string
}

func NewSharedSecretVerifier(secret, issuer string) (*SharedSecretVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &SharedSecretVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

func (v *SharedSecretVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return &Identity{
		Type:      AuthTypeJWT,
		UserID:    claims.Subject,
		SessionID: claims.ID,
	}, nil
}

// Issue signs a token for userID that expires after ttl
func (v *SharedSecretVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
