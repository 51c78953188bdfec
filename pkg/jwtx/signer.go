package jwtx

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// NewSignerHS256 creates an HS256 signer from a shared secret. The secret is
// process-wide configuration loaded once at startup; an empty secret is a
// construction error, not a per-request one.
func NewSignerHS256(secret []byte) (Signer, error) {
	return newHS256Signer(secret)
}
