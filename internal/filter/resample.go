package filter

import (
	"fmt"
	"math/rand"
)

// DefaultCollapseThreshold is the weight-sum floor below which the filter is
// considered collapsed. It is a tuning value from the reference dataset, not
// a numerical law, which is why it is configurable.
const DefaultCollapseThreshold = 0.01

// Resampler converts importance weights into a new equally weighted particle
// set using systematic resampling (stochastic universal sampling).
type Resampler struct {
	threshold float64
	bounds    Bounds
	rng       *rand.Rand
	collapses int
}

// NewResampler creates a resampler. When the weight sum drops below
// threshold the input set is discarded and replaced by a fresh uniform draw
// within bounds.
func NewResampler(threshold float64, bounds Bounds, rng *rand.Rand) (*Resampler, error) {
	if rng == nil {
		return nil, fmt.Errorf("resampler requires a random source")
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("collapse threshold must be positive, got %g", threshold)
	}
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fallback bounds: %w", err)
	}
	return &Resampler{threshold: threshold, bounds: bounds, rng: rng}, nil
}

// Resample draws a new particle set proportionally to the weights. A single
// random offset over a fixed 1/N stride grid selects all N particles, which
// has lower selection variance than independent multinomial draws.
//
// If the weight sum is below the collapse threshold the whole set is
// re-seeded uniformly within the fallback bounds; callers can observe this
// through Collapses. A weight vector whose length does not match the
// particle count is a precondition violation and returns an error.
func (r *Resampler) Resample(particles []Particle, weights []float64) ([]Particle, error) {
	if len(weights) != len(particles) {
		return nil, fmt.Errorf("weight count %d does not match particle count %d", len(weights), len(particles))
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total < r.threshold {
		r.collapses++
		return Generate(r.rng, len(particles), r.bounds), nil
	}

	n := len(particles)
	step := 1.0 / float64(n)
	u := r.rng.Float64() * step
	c := weights[0] / total
	i := 0
	next := make([]Particle, 0, n)
	for k := 0; k < n; k++ {
		// The clamp on i absorbs float rounding in the cumulative sum when
		// u approaches 1.
		for u > c && i < n-1 {
			i++
			c += weights[i] / total
		}
		next = append(next, particles[i])
		u += step
	}
	return next, nil
}

// Collapses reports how many times the filter collapsed and was re-seeded.
func (r *Resampler) Collapses() int {
	return r.collapses
}
