package store

import (
	"crypto/rand"
	"fmt"
)

// Document IDs for backends without a native identifier type are nanoid-style
// strings over a URL-safe alphabet.
const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	idLength   = 22 // 22 * 6 = 132 bits
)

// NewID returns a random document ID.
//
// The alphabet has exactly 64 symbols, so masking a random byte with 63
// maps it onto the alphabet without bias and no byte is ever discarded.
func NewID() (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate document id: %w", err)
	}

	id := make([]byte, idLength)
	for i, b := range buf {
		id[i] = idAlphabet[b&63]
	}
	return string(id), nil
}
