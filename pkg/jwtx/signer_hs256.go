package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// minSecretLength guards against accidentally signing with a truncated or
// placeholder secret. 256-bit keys are the HS256 baseline.
const minSecretLength = 32

// HS256Signer implements the Signer interface using HMAC-SHA256.
type HS256Signer struct {
	secret []byte
	alg    string
}

func newHS256Signer(secret []byte) (*HS256Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty HS256 secret")
	}
	if len(secret) < minSecretLength {
		return nil, errors.New("jwtx: HS256 secret shorter than 32 bytes")
	}

	return &HS256Signer{
		secret: secret,
		alg:    jwt.SigningMethodHS256.Alg(),
	}, nil
}

func (s *HS256Signer) Alg() string { return s.alg }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Validate does a quick sanity check to make sure we actually have a key.
func (s *HS256Signer) Validate() error {
	if len(s.secret) < minSecretLength {
		return errors.New("jwtx: invalid HS256 secret")
	}
	return nil
}
