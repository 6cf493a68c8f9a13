package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of an issued bearer token.
const tokenBytes = 32

// NewToken mints an opaque bearer token. It returns the plaintext handed to the
// client and the SHA-256 digest persisted in its place.
func NewToken() (plain string, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	plain = hex.EncodeToString(buf)
	return plain, HashToken(plain), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a plaintext token.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
