package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 16
	keyLength  = 32

	// minIterations is the floor for the key-derivation work factor.
	minIterations = 10000
)

// PasswordHasher derives verifiable hashes from plaintext passwords.
// Hashing is deterministic for a given password and salt; that determinism
// is the basis of verification.
type PasswordHasher struct {
	iterations int
}

// NewPasswordHasher builds a hasher with the configured PBKDF2 iteration
// count, clamped to the minimum work factor.
func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations < minIterations {
		iterations = minIterations
	}
	return &PasswordHasher{iterations: iterations}
}

// GenerateSalt produces a fresh random salt. A failed entropy source is
// surfaced as an error and never retried.
func (h *PasswordHasher) GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Hash derives a key from the password and salt using PBKDF2 (HMAC-SHA256)
// and returns it base64 encoded.
func (h *PasswordHasher) Hash(password string, salt []byte) string {
	derived := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(derived)
}

// Verify recomputes the hash for the candidate password and compares it to
// the stored encoding. The comparison inspects every byte regardless of
// where a mismatch occurs.
func (h *PasswordHasher) Verify(password string, salt []byte, expectedHash string) bool {
	expected, err := base64.StdEncoding.DecodeString(expectedHash)
	if err != nil {
		return false
	}
	derived := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha256.New)
	if len(derived) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare(derived, expected) == 1
}
