package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint hashes the parts into a stable lowercase hex key. Parts are
// NUL-separated so ("ab", "c") and ("a", "bc") never collide.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
