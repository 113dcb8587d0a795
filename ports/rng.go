package ports

import (
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates a deterministic generator for a named operation. The
	// same seed and name always yield the same sequence.
	Stream(seed uint64, name string) *rand.Rand
}
