// Package roulette picks a random candidate as a pure function of the
// candidate count and a seed, so a client can replay the same spin.
package roulette

import (
	"errors"
	"math/rand/v2"
)

var ErrNoCandidates = errors.New("roulette: no candidates")

// PickIndex returns an index in [0, n) uniformly distributed over seeds.
// The same (n, seed) always yields the same index.
func PickIndex(n int, seed int64) (int, error) {
	if n <= 0 {
		return 0, ErrNoCandidates
	}
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	return r.IntN(n), nil
}
