// Package knol derives content-based identities for cards that arrive
// without an id, so importing the same source twice updates rather than
// duplicates.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize concatenates the card's prompt and answer after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them.
func Normalize(front, back string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return p
	}

	// Joined with a newline so "ab"+"c" and "a"+"bc" stay distinct.
	return normalizePart(front) + "\n" + normalizePart(back)
}

// Hash returns the SHA-256 of the normalized card content as a hex string.
func Hash(front, back string) string {
	sum := sha256.Sum256([]byte(Normalize(front, back)))
	return fmt.Sprintf("%x", sum)
}

// ID returns the card id used for a content-addressed card.
func ID(front, back string) string {
	return "knol-" + Hash(front, back)[:32]
}
