// Package random provides entropy seeds and seeded shuffle sources.
package random

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
)

// SeedSize is the length of a ChaCha8 seed in bytes.
const SeedSize = 32

// Seed initialises a deterministic random source.
type Seed [SeedSize]byte

// NewSeed generates a seed using crypto/rand.
func NewSeed() (Seed, error) {
	var s Seed
	if _, err := crand.Read(s[:]); err != nil {
		return Seed{}, fmt.Errorf("read random seed: %w", err)
	}
	return s, nil
}

// ParseSeed decodes a seed produced by Seed.String.
func ParseSeed(v string) (Seed, error) {
	var s Seed
	b, err := hex.DecodeString(v)
	if err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	if len(b) != SeedSize {
		return Seed{}, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(b))
	}
	copy(s[:], b)
	return s, nil
}

func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// New returns a ChaCha8-backed generator for seed. Equal seeds produce equal
// sequences. The generator is not safe for concurrent use.
func New(seed Seed) *rand.Rand {
	return rand.New(rand.NewChaCha8(seed))
}

// Global shuffles with the process-wide math/rand/v2 source, which is seeded
// from runtime entropy and safe for concurrent use.
type Global struct{}

func (Global) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}
