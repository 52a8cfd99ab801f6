package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeInput canonicalizes analysis input before fingerprinting:
// lower-case and trim surrounding whitespace, so trivial formatting
// differences do not defeat the cache. Interior changes of even one
// character produce a different fingerprint.
func NormalizeInput(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Fingerprint returns the hex SHA-256 of the normalized input. It is the
// cache key for analyses: identical material input maps to the same
// fingerprint deterministically.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(NormalizeInput(raw)))
	return hex.EncodeToString(sum[:])
}
