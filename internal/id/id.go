// Package id provides identifier generation for conversions, sessions and
// scratch files.
package id

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// Alphabet is the character set used for scratch file names.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NameLength is the length of generated scratch file names.
const NameLength = 10

// Generate creates a new unique identifier with the given prefix.
// Format: <prefix>-<uuid>
// Example: conv-3f2b8c1e-7a4d-4f0e-9b6a-2d1c5e8f9a0b
func Generate(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "-" + uuid.NewString()
}

// Name returns a pseudo-random string of the given length drawn from Alphabet.
// It does not check for collisions; with the default length the identifier
// space is 62^10.
func Name(length int) string {
	if length <= 0 {
		length = NameLength
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b)
}
