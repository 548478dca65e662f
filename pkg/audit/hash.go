package audit

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPrefixLength is how many hex characters of the SHA-256 digest are
// stored. Sixteen characters correlate repeated attempts without retaining
// anything reversible.
const HashPrefixLength = 16

// HashPrefix returns the first HashPrefixLength hex characters of the
// SHA-256 of text. Empty text hashes to the empty string.
func HashPrefix(text string) string {
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:HashPrefixLength]
}
