// Package lossy implements the test-only loss injector: for each datagram
// it is consulted on, it draws a uniform random number and, if below the
// configured rate, reports the datagram dropped. Production
// configurations set the rate to zero. The drop decision is exposed the
// same way the teacher's integrationtests.UDPProxy exposes its
// dropIncomingPacket/dropOutgoingPacket callbacks, but driven by a rate
// rather than a hand-authored callback.
package lossy

import (
	"math/rand"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Injector decides, per datagram, whether it should be treated as lost.
type Injector struct {
	mu   sync.Mutex
	rate float64
	src  *rand.Rand
}

// New creates an Injector with the given loss rate in [0,1], seeded with
// the fixed seed 1, so every Injector built by New draws the same
// sequence.
func New(rate float64) *Injector {
	return &Injector{rate: rate, src: rand.New(rand.NewSource(1))}
}

// NewSeeded creates an Injector with an explicit seed, for deterministic,
// reproducible test runs.
func NewSeeded(rate float64, seed int64) *Injector {
	return &Injector{rate: rate, src: rand.New(rand.NewSource(seed))}
}

// SeedFromString derives a deterministic int64 seed from an arbitrary
// string, so a human-readable test name can reproduce a specific loss
// pattern without wiring a numeric seed through the test table.
func SeedFromString(s string) int64 {
	sum := blake2b.Sum256([]byte(s))
	var seed int64
	for i := 0; i < 8; i++ {
		seed = seed<<8 | int64(sum[i])
	}
	if seed < 0 {
		seed = -seed
	}
	return seed
}

// SetRate updates the loss rate for subsequent draws.
func (in *Injector) SetRate(rate float64) {
	in.mu.Lock()
	in.rate = rate
	in.mu.Unlock()
}

// ShouldDrop draws the next uniform sample and reports whether the
// datagram should be treated as dropped.
func (in *Injector) ShouldDrop() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.rate <= 0 {
		return false
	}
	return in.src.Float64() < in.rate
}
