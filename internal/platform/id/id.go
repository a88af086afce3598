// Package id mints aggregate instance identifiers. Every customer, product,
// contract, and invoice stream is keyed by one of these ids, so they must be
// unique across restarts without any coordinating store.
package id

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// NewID returns a fresh aggregate id: UUIDv4 bytes rendered as unpadded
// lowercase base32, 26 characters, safe in URLs and file paths.
func NewID() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	// RFC 4122 variant and version bits for a v4 UUID.
	raw[6] = (raw[6] & 0x0f) | 0x40
	raw[8] = (raw[8] & 0x3f) | 0x80

	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw[:])
	return strings.ToLower(encoded), nil
}
