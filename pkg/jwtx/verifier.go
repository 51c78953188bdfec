package jwtx

import "errors"

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// NewVerifierHS256Common returns a Verifier using the HS256 implementation
// wrapped in the common interface.
func NewVerifierHS256Common(secret []byte, issuer string) (Verifier, error) {
	v, err := NewVerifierHS256(secret, issuer)
	if err != nil {
		return nil, err
	}
	return hs256Adapter{v}, nil
}

// hs256Adapter adapts the pointer-returning HS256 verifier to the common
// value-returning Verifier interface.
type hs256Adapter struct{ *HS256Verifier }

func (a hs256Adapter) Verify(token string) (Claims, error) {
	c, err := a.HS256Verifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	return *c, nil
}
