// Package crypto implements the credential envelope used to protect
// passwords and issued tokens in transit, independently of outer TLS.
// A symmetric key is derived once from a configured passphrase and a fixed
// salt; the server and every client derive the same key from the same
// inputs, so no key exchange is needed.
package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// MinKDFIterations is the lowest acceptable PBKDF2 iteration count.  A
// lower count would make the derived key cheap to brute-force if the
// passphrase ever leaks, so configuration below this is a hard error
// rather than something to silently round up.
const MinKDFIterations = 100_000

// keyLen is the derived key size in bytes (AES-256).
const keyLen = 32

var (
	// ErrWeakKDFParams reports an unusable key-derivation configuration.
	ErrWeakKDFParams = errors.New("crypto: key derivation parameters below minimum")
)

// DeriveKey derives the 32-byte envelope key from the passphrase and salt
// using PBKDF2-HMAC-SHA256.  The derivation is deterministic: the same
// inputs always produce the same key.  It fails fast on an empty
// passphrase or salt, or an iteration count below MinKDFIterations.
func DeriveKey(passphrase, salt []byte, iterations int) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", ErrWeakKDFParams)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrWeakKDFParams)
	}
	if iterations < MinKDFIterations {
		return nil, fmt.Errorf("%w: %d iterations (minimum %d)", ErrWeakKDFParams, iterations, MinKDFIterations)
	}
	return pbkdf2.Key(passphrase, salt, iterations, keyLen, sha256.New), nil
}
