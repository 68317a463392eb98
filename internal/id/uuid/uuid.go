// Package uuid provides ID generation helpers.
package uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxForwardedIDLen caps client-supplied request IDs.
const maxForwardedIDLen = 128

// Generator creates UUID v7 strings.
type Generator struct{}

// NewUUIDGenerator creates a new Generator.
func NewUUIDGenerator() *Generator {
	return &Generator{}
}

// NewID returns a UUID7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// RequestID returns forwarded when it is a usable caller-supplied ID,
// otherwise a fresh UUID7. A generation failure falls back to a v4 UUID.
func (g Generator) RequestID(forwarded string) string {
	forwarded = strings.TrimSpace(forwarded)
	if forwarded != "" && len(forwarded) <= maxForwardedIDLen && printable(forwarded) {
		return forwarded
	}
	if id, err := g.NewID(); err == nil {
		return id
	}
	return uuid.NewString()
}

func printable(s string) bool {
	for _, r := range s {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}
