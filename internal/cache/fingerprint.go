package cache

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Digest is the hex-encoded fingerprint of a content string.
type Digest string

// HashFunc creates the hash used for fingerprints.
type HashFunc func() hash.Hash

// DefaultHashFunc is xxHash64.
func DefaultHashFunc() hash.Hash {
	return xxhash.New()
}

// Fingerprint returns the xxHash64 digest of content as 16 hex characters.
func Fingerprint(content string) Digest {
	return Digest(fmt.Sprintf("%016x", xxhash.Sum64String(content)))
}

// FingerprintWith digests content with a hash from newHash. A nil newHash
// falls back to Fingerprint.
func FingerprintWith(newHash HashFunc, content string) Digest {
	if newHash == nil {
		return Fingerprint(content)
	}
	h := newHash()
	_, _ = io.WriteString(h, content)
	return Digest(hex.EncodeToString(h.Sum(nil)))
}
