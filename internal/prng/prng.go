// Package prng centralises deterministic randomness for board generation.
//
// Every client that knows a game code must derive the exact same sequence,
// so the generator is pinned to Mulberry32 with strict 32-bit wraparound
// semantics rather than math/rand, whose stream is not part of any
// compatibility contract.
package prng

// Source is a Mulberry32 generator. The only state is a 32-bit counter;
// two Sources built from the same seed produce identical sequences on
// every platform.
type Source struct {
	state uint32
}

// New returns a Source seeded from a non-negative 32-bit integer.
func New(seed int32) *Source {
	return &Source{state: uint32(seed)}
}

// Next advances the generator and returns a float in [0, 1).
func (s *Source) Next() float64 {
	s.state += 0x6D2B79F5
	z := s.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return float64(z^(z>>14)) / 4294967296.0
}

// Intn returns an integer in [0, n) derived from Next. n must be positive.
func (s *Source) Intn(n int) int {
	return int(s.Next() * float64(n))
}

// Shuffle returns a new slice containing a permutation of items, walking
// from the last index down and swapping each element with one at a
// Next-derived index in [0, i]. The input is not modified.
func Shuffle[T any](s *Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
