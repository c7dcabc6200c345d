package auth

import (
	"fmt"
	"roast-battle/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	HostRole = "host"
	issuer   = "roast-battle"
)

// HostClaims is the content of a host token.
type HostClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks host tokens with an HMAC secret.
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), duration: duration, now: time.Now}
}

// Issue returns a signed token and its expiration date.
func (i *TokenIssuer) Issue(subject string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.duration)
	claims := &HostClaims{
		Role: HostRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	return token, expiresAt, err
}

// Validate parses the token and checks signature, expiration, issuer and role.
func (i *TokenIssuer) Validate(tokenString string) (*HostClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &HostClaims{}, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*HostClaims)
	if !ok || !token.Valid || claims.Role != HostRole {
		return nil, fmt.Errorf("%w: not a host token", errors.ErrUnauthorized)
	}
	return claims, nil
}
