package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Verifier validates JWTs signed using HMAC-SHA256 with a shared secret.
type HS256Verifier struct {
	secret []byte
	issuer string
}

// NewVerifierHS256 creates a verifier using the same secret material used at
// issuance. Tokens signed with a different or absent key fail verification.
func NewVerifierHS256(secret []byte, issuer string) (*HS256Verifier, error) {
	if len(secret) < minSecretLength {
		return nil, errors.New("jwtx: HS256 secret shorter than 32 bytes")
	}
	return &HS256Verifier{secret: secret, issuer: issuer}, nil
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HS256Verifier) Verify(tokenStr string) (*Claims, error) {
	// Pin the accepted algorithm so an attacker cannot downgrade to "none"
	// or swap in an asymmetric method.
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	// Now check all the claim requirements
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return nil, err
	}

	return claims, nil
}

// mapParseError collapses golang-jwt parse failures into our sentinel errors
// so callers can distinguish "expired" from "tampered or garbage".
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrAlgMismatch
	default:
		return ErrMalformed
	}
}
