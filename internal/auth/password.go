package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes = 16
	keyBytes  = 64
)

// PasswordHasher derives password digests with PBKDF2-HMAC-SHA512. Digests
// and salts are hex strings as stored in users.hash and users.salt.
type PasswordHasher struct {
	iterations int
}

func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations < 1 {
		iterations = 1
	}
	return &PasswordHasher{iterations: iterations}
}

// GenerateSalt returns 16 random bytes, hex encoded.
func (h *PasswordHasher) GenerateSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Hash is deterministic for a given (password, salt).
func (h *PasswordHasher) Hash(password, salt string) string {
	dk := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, keyBytes, sha512.New)
	return hex.EncodeToString(dk)
}

// Verify reports whether password hashes to digest under salt. The
// comparison is constant time.
func (h *PasswordHasher) Verify(password, digest, salt string) bool {
	got := h.Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(digest)) == 1
}
