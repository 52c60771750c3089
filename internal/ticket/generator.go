// Package ticket generates ticket identifiers and renders them as QR codes.
package ticket

import (
	"crypto/rand"
	"fmt"
)

// alphabet is the character set for the random token part of a ticket id.
// Uppercase alphanumerics only, so ids stay human-typeable at the door.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces ticket identifiers of the form PREFIX-XXXXXXXX.
// Stateless; uniqueness is enforced by the store's unique index, with the
// caller retrying generation on a collision.
type Generator struct {
	prefix string
	length int
}

// NewGenerator creates a Generator. Length is the number of random
// characters after the prefix; values below 1 fall back to 8.
func NewGenerator(prefix string, length int) *Generator {
	if length < 1 {
		length = 8
	}
	return &Generator{prefix: prefix, length: length}
}

// maxRandomByte is the largest multiple of len(alphabet) that fits in a
// byte. Bytes at or above it are discarded so every character is drawn
// with equal probability.
const maxRandomByte = 256 - 256%len(alphabet)

// NewID returns a fresh ticket identifier, e.g. "GDG_SOE-AB12CD34".
func (g *Generator) NewID() (string, error) {
	token := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)
	for len(token) < g.length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxRandomByte {
				continue
			}
			token = append(token, alphabet[int(b)%len(alphabet)])
			if len(token) == g.length {
				break
			}
		}
	}
	return g.prefix + "-" + string(token), nil
}
