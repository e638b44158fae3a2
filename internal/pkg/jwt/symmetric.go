package jwt

import (
	"errors"
	"strconv"
	"time"

	libjwt "github.com/golang-jwt/jwt/v5"
)

const minHS512KeyLen = 64

type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}, nil
}

func (s *Symmetric) Generate(uid int64, email string) (string, error) {
	now := s.clock.Now()

	claims := Claims{
		RegisteredClaims: libjwt.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libjwt.NewNumericDate(now),
			NotBefore: libjwt.NewNumericDate(now),
			ExpiresAt: libjwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:    uid,
		UserEmail: email,
	}

	return libjwt.NewWithClaims(libjwt.SigningMethodHS512, claims).SignedString(s.secret)
}

func (s *Symmetric) Verify(token string) (Claims, error) {
	var claims Claims

	parsed, err := libjwt.ParseWithClaims(token, &claims,
		func(t *libjwt.Token) (any, error) {
			if t.Method != libjwt.SigningMethodHS512 {
				return nil, ErrInvalidSigningMethod
			}
			return s.secret, nil
		},
		libjwt.WithIssuer(s.issuer),
		libjwt.WithAudience(s.audiences...),
		libjwt.WithValidMethods([]string{libjwt.SigningMethodHS512.Alg()}),
		libjwt.WithExpirationRequired(),
		libjwt.WithTimeFunc(s.clock.Now),
	)
	switch {
	case errors.Is(err, libjwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, err
	case !parsed.Valid:
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
