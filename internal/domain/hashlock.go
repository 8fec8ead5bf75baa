package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NewPreimage generates a fresh random 32-byte preimage and its
// hash-lock (sha256 digest), both hex encoded. The pair is swap-scoped
// and never reused.
func NewPreimage() (preimage, hashLock string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate preimage: %w", err)
	}
	digest := sha256.Sum256(raw)
	return hex.EncodeToString(raw), hex.EncodeToString(digest[:]), nil
}

// HashLockFor derives the hash-lock for a hex-encoded preimage.
func HashLockFor(preimage string) (string, error) {
	raw, err := hex.DecodeString(preimage)
	if err != nil {
		return "", fmt.Errorf("decode preimage: %w", err)
	}
	digest := sha256.Sum256(raw)
	return hex.EncodeToString(digest[:]), nil
}
