package service

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const fingerprintLen = 16

// Fingerprint returns a short BLAKE2b digest of a credential so audit
// records can correlate sessions without storing the token.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
