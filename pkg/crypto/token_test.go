package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func TestGenerateToken_Length(t *testing.T) {
	tests := []struct {
		name       string
		byteLength []int
		wantChars  int
	}{
		{name: "no argument uses default", byteLength: nil, wantChars: 64},
		{name: "zero uses default", byteLength: []int{0}, wantChars: 64},
		{name: "negative uses default", byteLength: []int{-10}, wantChars: 64},
		{name: "16 bytes", byteLength: []int{16}, wantChars: 32},
		{name: "32 bytes", byteLength: []int{32}, wantChars: 64},
		{name: "1 byte minimum", byteLength: []int{1}, wantChars: 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Act
			token, err := GenerateToken(test.byteLength...)

			// Assert
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}
			if len(token) != test.wantChars {
				t.Errorf("len(token) = %d, want %d", len(token), test.wantChars)
			}
			if _, err := hex.DecodeString(token); err != nil {
				t.Errorf("token is not valid hex: %v", err)
			}
		})
	}
}

func TestGenerateToken_TooManyArgs(t *testing.T) {
	if _, err := GenerateToken(16, 32); !errors.Is(err, ErrTooManyArgs) {
		t.Errorf("GenerateToken(16, 32) error = %v, want ErrTooManyArgs", err)
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	// Arrange
	tokens := make(map[string]bool)
	iterations := 1000

	// Act
	for i := 0; i < iterations; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("iteration %d: GenerateToken() error = %v", i, err)
		}
		if tokens[token] {
			t.Fatalf("duplicate token generated: %q", token)
		}
		tokens[token] = true
	}

	// Assert
	if len(tokens) != iterations {
		t.Errorf("expected %d unique tokens, got %d", iterations, len(tokens))
	}
}

func TestHashVerificationToken_MatchesConcatenatedSHA256(t *testing.T) {
	// Arrange
	sum := sha256.Sum256([]byte("abc" + "s3cret"))
	want := hex.EncodeToString(sum[:])

	// Act
	got := HashVerificationToken("abc", "s3cret")

	// Assert
	if got != want {
		t.Errorf("HashVerificationToken() = %s, want %s", got, want)
	}
	if len(got) != 64 {
		t.Errorf("hash length = %d, want 64", len(got))
	}
}

func TestHashVerificationToken_Deterministic(t *testing.T) {
	if HashVerificationToken("tok", "sec") != HashVerificationToken("tok", "sec") {
		t.Error("hash must be deterministic for identical inputs")
	}
	if HashVerificationToken("tok", "sec") == HashVerificationToken("tok", "other") {
		t.Error("hash must depend on the secret")
	}
	if HashVerificationToken("tok", "sec") == HashVerificationToken("tok2", "sec") {
		t.Error("hash must depend on the token")
	}
}
