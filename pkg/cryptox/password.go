package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrPasswordMismatch reports that the plaintext does not match the digest.
	ErrPasswordMismatch = errors.New("cryptox: password does not match")

	// ErrCorruptDigest reports a digest that is not a well-formed PHC string.
	// This is a data-integrity failure, not a bad password.
	ErrCorruptDigest = errors.New("cryptox: corrupt password digest")
)

// HashPassword generates a PHC-format Argon2id hash string including salt and parameters.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// PHC-style encoded string
	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		b64Salt,
		b64Hash,
	), nil
}

// VerifyPassword compares a plaintext password against a PHC-style Argon2id hash.
// Returns nil on match, ErrPasswordMismatch on mismatch, and ErrCorruptDigest
// when the stored digest cannot be parsed.
func VerifyPassword(password, encodedHash string) error {
	mem, iters, par, salt, expectedHash, err := parsePHC(encodedHash)
	if err != nil {
		return err
	}

	computed := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		iters,
		mem,
		par,
		uint32(len(expectedHash)), // #nosec G115 - If this overflows we have bigger problems
	)

	if subtle.ConstantTimeCompare(computed, expectedHash) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

// parsePHC splits a $argon2id$v=19$m=X,t=Y,p=Z$salt$hash string into its parts.
func parsePHC(encodedHash string) (mem, iters uint32, par uint8, salt, hash []byte, err error) {
	parts := make([]string, 0, 6)
	start := 0
	for i := 0; i < len(encodedHash); i++ {
		if encodedHash[i] == '$' {
			parts = append(parts, encodedHash[start:i])
			start = i + 1
		}
	}
	parts = append(parts, encodedHash[start:])

	// Expected structure: ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return 0, 0, 0, nil, nil, ErrCorruptDigest
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad parameters: %w", ErrCorruptDigest, err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad salt: %w", ErrCorruptDigest, err)
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad hash: %w", ErrCorruptDigest, err)
	}

	return mem, iters, par, salt, hash, nil
}
