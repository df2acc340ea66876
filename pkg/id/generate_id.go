// Package id mints the public identifiers of requests, lines and audit
// entries.
package id

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Length of every public id.
const Length = 32

// NewID32 returns a random (v4) id as exactly 32 lowercase hex characters
// (no separators/prefixes).
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Valid reports whether s has the shape NewID32 produces.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
