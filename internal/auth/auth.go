// Package auth validates bearer tokens issued by the platform's auth
// service. Token issuance, registration and profiles live outside this
// service — only verification happens here.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or mis-signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims extends JWT standard claims with the fields the engine needs: who
// is taking the exam, and the per-device storage namespace that keys the
// recovery snapshot.
type Claims struct {
	jwt.RegisteredClaims
	CandidateID string `json:"candidate_id"`
	DeviceID    string `json:"device_id"`
}

// Namespace returns the stable per-device storage namespace for snapshots.
func (c *Claims) Namespace() string {
	return c.CandidateID + "/" + c.DeviceID
}

// Verifier validates HMAC-signed tokens against the shared platform secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token string and returns its claims.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.CandidateID == "" || claims.DeviceID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
