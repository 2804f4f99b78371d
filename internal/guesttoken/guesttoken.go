// Package guesttoken issues and verifies the one-time secrets that let an
// unauthenticated buyer retrieve their own receipt. Only the SHA-256 hash of
// a token is ever stored; the raw token is returned exactly once at creation.
package guesttoken

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
)

const tokenBytes = 32

// TTL is how long a guest token stays valid after order creation.
const TTL = 24 * time.Hour

// New generates a fresh token and returns the raw value plus its hash.
func New() (raw, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "token entropy")
	}
	raw = hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}

// Hash returns the hex SHA-256 of a raw token.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Matches compares a raw token against a stored hash without leaking timing
// information correlated with how many bytes match.
func Matches(raw, storedHash string) bool {
	computed := Hash(raw)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
