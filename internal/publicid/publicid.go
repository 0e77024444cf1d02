// Package publicid generates the human-shareable account identifiers that
// users exchange to find each other, as opposed to the provider's internal
// account ids.
package publicid

import (
	"crypto/rand"
	"fmt"
)

// Length is the fixed size of every public identifier.
const Length = 12

// alphabet is the 36-character identifier namespace: 36^12 values, so a
// random draw colliding with any realistic population is negligible.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate returns a random identifier of exactly Length characters drawn
// uniformly from the alphabet.
func Generate() (string, error) {
	// Bytes >= 252 are rejected: 252 is the largest multiple of 36 that fits
	// a byte, so the modulo below stays uniform.
	const limit = 252

	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == Length {
				break
			}
		}
	}

	return string(out), nil
}
