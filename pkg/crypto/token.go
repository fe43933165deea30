package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrTooManyArgs = errors.New("too many arguments. expected only 1")

const (
	DefaultTokenLength = 32 // 256 bits
)

// GenerateToken returns byteLength random bytes, hex encoded.
// With the default length the result is 64 characters.
func GenerateToken(byteLength ...int) (string, error) {
	if len(byteLength) > 1 {
		return "", ErrTooManyArgs
	}

	length := DefaultTokenLength
	if len(byteLength) > 0 && byteLength[0] > 0 {
		length = byteLength[0]
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return hex.EncodeToString(bytes), nil
}

// HashVerificationToken is the one-way hash stored for verification tokens:
// hex(sha256(token || secret)).
//
// WARN: the secret is shared by every token and there is no per-record salt.
// Changing the scheme invalidates every token already issued.
func HashVerificationToken(token, secret string) string {
	hash := sha256.Sum256([]byte(token + secret))
	return hex.EncodeToString(hash[:])
}
