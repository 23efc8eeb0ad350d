package utils // package utils provides helper functions for token creation and password hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token verification failure modes.  Signature/structure problems and
// expiry are distinct so the session gate can log which one happened.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// SessionToken represents a signed bearer token along with its expiry.
// The token is self-describing: it carries the subject user ID and the
// issue/expiry instants and no server-side record is created for it.
// Revocation is handled by the per-user invalidation watermark instead.
type SessionToken struct {
	Token     string    // the serialized JWT string
	IssuedAt  time.Time // UTC issue time
	ExpiresAt time.Time // UTC expiration time
}

// TokenClaims is what a successfully verified token resolves to.
type TokenClaims struct {
	UserID   string    // subject user ID
	IssuedAt time.Time // when the token was minted (compared to the watermark)
}

// NewSessionToken builds and signs an HS256 JWT for a user.  The JWT
// includes the standard claims: subject (sub), expiration (exp) and issued
// at (iat).  It is only called after the password has been verified and
// the account confirmed active.
func NewSessionToken(secret, userID string, ttl time.Duration) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, IssuedAt: now, ExpiresAt: exp}, nil
}

// ParseSessionToken validates the signature and expiry of a raw token and
// returns its claims.  Expiry is reported as ErrTokenExpired; every other
// failure (malformed structure, wrong algorithm, bad signature, missing
// claims) collapses to ErrInvalidToken.
func ParseSessionToken(secret, raw string) (TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, ErrInvalidToken
	}
	if !tok.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return TokenClaims{}, ErrInvalidToken
	}
	return TokenClaims{UserID: claims.Subject, IssuedAt: claims.IssuedAt.Time}, nil
}
