// Package jwt issues and verifies the HS512 bearer tokens that identify
// recipients on the inbox, preference and admin endpoints.
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("jwt: invalid signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: HS512 signing key must be at least 64 bytes")
	ErrTokenExpired         = errors.New("jwt: token has expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
)

type JWT interface {
	Generate(uid int64, email string) (string, error)
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	UUID      generator
}

// Claims identifies the caller. Subject holds the decimal user id and is the
// casbin subject for admin checks.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
}

type authKey struct{}

// GetAuth returns nil for unauthenticated contexts.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}
