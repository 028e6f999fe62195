package board

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Game codes use a fixed 31-character alphabet with the easily confused
// I, L, O, 0 and 1 removed, so codes survive being read aloud.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed length of a game code.
const CodeLength = 6

// NewCode mints a random game code.
func NewCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// NormalizeCode uppercases and trims a user-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode checks that a code has the fixed length and alphabet.
func ValidateCode(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("game code must be exactly %d characters, got %d", CodeLength, len(code))
	}
	for i, ch := range code {
		if !strings.ContainsRune(codeAlphabet, ch) {
			return fmt.Errorf("invalid character %c at position %d", ch, i)
		}
	}
	return nil
}
