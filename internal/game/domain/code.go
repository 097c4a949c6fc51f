package domain

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// codeLetters excludes I and O, which read as 1 and 0 on a shared screen.
const (
	codeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeDigits  = "0123456789"
)

var codePattern = regexp.MustCompile(`^[A-HJ-NP-Z]{3}-[0-9]{3}$`)

// NewGameCode generates a human-shareable game code of the form LLL-DDD.
//
// Codes are drawn uniformly with replacement and carry no uniqueness
// guarantee; the store's unique constraint on games.code is the arbiter,
// and callers retry on a collision.
func NewGameCode() (string, error) {
	var b strings.Builder
	for range 3 {
		c, err := pick(codeLetters)
		if err != nil {
			return "", err
		}
		b.WriteByte(c)
	}
	b.WriteByte('-')
	for range 3 {
		c, err := pick(codeDigits)
		if err != nil {
			return "", err
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

func pick(alphabet string) (byte, error) {
	n, err := crand.Int(crand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("read random code byte: %w", err)
	}
	return alphabet[n.Int64()], nil
}

// NormalizeGameCode prepares a user-typed code for lookup. Codes are
// case-insensitive on input and stored uppercase.
func NormalizeGameCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidGameCode reports whether a normalized code matches the LLL-DDD format.
func ValidGameCode(code string) bool {
	return codePattern.MatchString(code)
}
