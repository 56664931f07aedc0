package pricesource

import (
	"math/rand"
	"sync"
	"time"
)

// for deterministic values
type Rand interface {
	Float64() float64
}

type RealRand struct{ *rand.Rand }

func NewRealRand() RealRand {
	return RealRand{rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// *rand.Rand is not safe for concurrent use
var randMu sync.Mutex

func (r RealRand) Float64() float64 {
	randMu.Lock()
	defer randMu.Unlock()
	return r.Rand.Float64()
}

// Randomness decides whether a quote fails and how far the price moves.
type Randomness interface {
	ShouldFail() bool
	Perturbation() float64
}

type randomness struct {
	rnd         Rand
	failureRate float64
	maxJitter   float64
}

// NewRandomness fails with probability failureRate and draws perturbations
// uniformly from [-maxJitter, +maxJitter].
func NewRandomness(rnd Rand, failureRate, maxJitter float64) Randomness {
	return &randomness{rnd: rnd, failureRate: failureRate, maxJitter: maxJitter}
}

func (r *randomness) ShouldFail() bool {
	return r.rnd.Float64() < r.failureRate
}

func (r *randomness) Perturbation() float64 {
	return (r.rnd.Float64() - 0.5) * 2 * r.maxJitter
}
