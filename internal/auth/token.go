// Package auth verifies the signed identity token carried by the
// websocket handshake. Token issuance belongs to the credential
// service; this side only checks signature and expiry.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/concord-chat/concord/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims mirrors what the credential service signs into the token.
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses the token and returns the identity it asserts. Any
// failure (bad signature, expired, malformed, wrong algorithm) comes
// back as ErrInvalidToken so callers reject uniformly.
func (v *Verifier) Verify(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Identity{}, ErrInvalidToken
	}
	identity, err := domain.NewIdentity(domain.UserID(claims.UserID), claims.Username)
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}
	return identity, nil
}

// Sign issues a token for an identity. Production issuance lives in
// the credential service; this is kept for local runs and tests.
func Sign(secret string, userID domain.UserID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   string(userID),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "concord",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
