package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns a short SHA-256 hex digest of the lower-cased email.
// Log lines carry it instead of the address itself.
func Fingerprint(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:8])
}
