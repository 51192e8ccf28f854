package postprocess

import (
	"math/rand"
	"sync"
)

// Length buckets a reply is shaped toward.
const (
	LengthExtremelyShort = "extremely_short"
	LengthSlightlyShort  = "slightly_short"
	LengthMedium         = "medium"
	LengthSlightlyLong   = "slightly_long"
	LengthLong           = "long"
)

// varietyStreak is how many consecutive identical picks it takes before
// the sampler starts damping that bucket.
const (
	varietyStreak  = 3
	varietyDamping = 0.5
)

// Sampler draws one bucket per turn from a fixed weighted distribution.
// Two pressures keep the output lively without bending the long-run
// frequencies: a per-turn multiplicative jitter, and damping of a
// bucket that keeps winning several turns in a row.
type Sampler struct {
	mu      sync.Mutex
	order   []string
	weights map[string]float64
	jitter  float64
	rng     *rand.Rand

	last   string
	streak int
}

// NewSampler builds a sampler over the given weights. The order slice
// fixes iteration order so sampling is reproducible for a seeded rng.
func NewSampler(order []string, weights map[string]float64, jitter float64, seed int64) *Sampler {
	return &Sampler{
		order:   order,
		weights: weights,
		jitter:  jitter,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Pick draws the next bucket.
func (s *Sampler) Pick() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	adjusted := make([]float64, len(s.order))
	var total float64
	for i, name := range s.order {
		w := s.weights[name]
		if s.jitter > 0 {
			w *= 1 + s.jitter*(s.rng.Float64()*2-1)
		}
		if name == s.last && s.streak >= varietyStreak {
			w *= varietyDamping
		}
		adjusted[i] = w
		total += w
	}

	pick := s.order[len(s.order)-1]
	r := s.rng.Float64() * total
	for i, name := range s.order {
		r -= adjusted[i]
		if r < 0 {
			pick = name
			break
		}
	}

	if pick == s.last {
		s.streak++
	} else {
		s.streak = 1
	}
	s.last = pick
	return pick
}

// LengthOrder is the canonical bucket order, shortest first.
func LengthOrder() []string {
	return []string{LengthExtremelyShort, LengthSlightlyShort, LengthMedium, LengthSlightlyLong, LengthLong}
}

// LevelOrder lists the CEFR levels a reply's language is shaped toward.
func LevelOrder() []string {
	return []string{"A1", "A2", "B1", "B2", "C1", "C2"}
}
