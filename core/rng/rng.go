// Package rng provides small, explicitly seedable pseudo-random generators
// used for row shuffling and engine subsampling.
//
// None of the generators here are cryptographically secure. SplitMix64 is the
// default; LCG reproduces the classic rand() sequence
// (state*1103515245 + 12345, 15 output bits) for callers that need it.
//
// Every Source also satisfies math/rand/v2's Source interface, so it can be
// handed to gonum's distuv distributions.
package rng

import (
	"math/bits"
	"sync/atomic"
	"time"
)

// Source is the generator contract used across the module.
type Source interface {
	// Uint64 returns 64 pseudo-random bits.
	Uint64() uint64
	// Intn returns a uniform integer in [0, n). It panics if n <= 0.
	Intn(n int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

// SplitMix64 is Steele, Lea and Flood's splitmix64 generator. The state
// advances by the golden-ratio increment and each output is a bijective mix
// of the state, so every seed yields a full-period sequence.
type SplitMix64 struct {
	state uint64
}

const (
	golden = 0x9e3779b97f4a7c15
	mix1   = 0xbf58476d1ce4e5b9
	mix2   = 0x94d049bb133111eb
)

// NewSplitMix64 returns a generator seeded with seed.
func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

// Uint64 implements Source.
func (s *SplitMix64) Uint64() uint64 {
	s.state += golden
	z := s.state
	z = (z ^ (z >> 30)) * mix1
	z = (z ^ (z >> 27)) * mix2
	return z ^ (z >> 31)
}

// Intn implements Source using Lemire's multiply-shift with rejection, which
// is unbiased for every n.
func (s *SplitMix64) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	bound := uint64(n)
	hi, lo := bits.Mul64(s.Uint64(), bound)
	if lo < bound {
		threshold := -bound % bound
		for lo < threshold {
			hi, lo = bits.Mul64(s.Uint64(), bound)
		}
	}
	return int(hi)
}

// Float64 implements Source with 53 bits of precision.
func (s *SplitMix64) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// LCG is the multiplicative-congruential generator of the C library rand():
// state = state*1103515245 + 12345, output bits 16..30.
type LCG struct {
	state uint32
}

// LCGMax is the largest value Next returns.
const LCGMax = 0x7fff

// NewLCG returns an LCG seeded with the low 32 bits of seed.
func NewLCG(seed uint64) *LCG {
	return &LCG{state: uint32(seed)}
}

// Next returns the next 15-bit output.
func (l *LCG) Next() int {
	l.state = l.state*1103515245 + 12345
	return int((l.state >> 16) & LCGMax)
}

// Uint64 implements Source by concatenating five 15-bit outputs (75 bits,
// truncated to 64).
func (l *LCG) Uint64() uint64 {
	var v uint64
	for i := 0; i < 5; i++ {
		v = v<<15 | uint64(l.Next())
	}
	return v
}

// Intn implements Source. For n <= LCGMax+1 it uses the classic
// "rand() % n" reduction, matching the historical sequence.
func (l *LCG) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	if n <= LCGMax+1 {
		return l.Next() % n
	}
	return int(l.Uint64() % uint64(n))
}

// Float64 implements Source.
func (l *LCG) Float64() float64 {
	return float64(l.Next()) / float64(LCGMax+1)
}

var seedCounter atomic.Uint64

// NewEntropySeed returns a seed derived from the wall clock and a
// process-wide counter, so two contexts created in the same nanosecond still
// receive different seeds.
func NewEntropySeed() uint64 {
	c := seedCounter.Add(1)
	mixer := SplitMix64{state: uint64(time.Now().UnixNano()) ^ (c * golden)}
	return mixer.Uint64()
}

// New returns a SplitMix64 seeded with seed, or entropy-seeded when seed is 0.
func New(seed uint64) *SplitMix64 {
	if seed == 0 {
		seed = NewEntropySeed()
	}
	return NewSplitMix64(seed)
}
