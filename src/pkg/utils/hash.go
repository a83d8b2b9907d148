package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first n hex characters of the content hash,
// used in generated filenames as a crude audit trail.
func ShortHash(data []byte, n int) string {
	h := Hash(data)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}
