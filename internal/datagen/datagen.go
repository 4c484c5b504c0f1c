// Package datagen writes the synthetic student CSV and calendar JSON. Files
// are only ever created: an existing file is left untouched.
package datagen

import (
	"errors"
	"io/fs"
	"math/rand/v2"
)

// Outcome reports whether a generator wrote its file.
type Outcome struct {
	Created bool
	Count   int
	Message string
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// between returns a uniform int in [lo, hi].
func between(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

func alreadyExists(err error) bool { return errors.Is(err, fs.ErrExist) }
