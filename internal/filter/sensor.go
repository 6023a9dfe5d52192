package filter

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

// Landmark is a fixed map feature measured by the range sensor.
type Landmark struct {
	X float64
	Y float64
}

// LandmarkMap maps landmark ids to their fixed positions. It is loaded once
// before the first timestep and never modified afterwards.
type LandmarkMap map[int]Landmark

// Observation is one range measurement of a landmark. Bearing is carried
// through from the log but not used by the range-only sensor model.
type Observation struct {
	LandmarkID int
	Range      float64
	Bearing    float64
}

// Record is one timestep of sensor input: an odometry reading plus the
// landmark observations made after that motion.
type Record struct {
	Odometry     Odometry
	Observations []Observation
}

// SensorModel computes importance weights from range observations.
type SensorModel struct {
	sigmaR  float64
	workers int
}

// NewSensorModel creates a range-only sensor model with measurement noise
// standard deviation sigmaR. workers bounds the number of goroutines used to
// weigh particle chunks; values below 1 mean sequential evaluation.
func NewSensorModel(sigmaR float64, workers int) (*SensorModel, error) {
	if sigmaR <= 0 {
		return nil, fmt.Errorf("range noise sigma must be positive, got %g", sigmaR)
	}
	if workers < 1 {
		workers = 1
	}
	return &SensorModel{sigmaR: sigmaR, workers: workers}, nil
}

// Weigh returns one importance weight per particle: the product over all
// observations of the Gaussian likelihood of the measured range given the
// Euclidean distance from the particle to the observed landmark. Per-landmark
// ranges are treated as conditionally independent given the pose.
//
// An empty observation list yields weight 1.0 for every particle, leaving the
// set undiscriminated for this timestep. An observation referencing an id
// missing from the map is a fatal input fault and returns an error.
//
// Weighting draws no randomness, so chunks of the particle set are evaluated
// concurrently without affecting reproducibility.
func (s *SensorModel) Weigh(particles []Particle, observations []Observation, landmarks LandmarkMap) ([]float64, error) {
	weights := make([]float64, len(particles))
	if len(observations) == 0 {
		for i := range weights {
			weights[i] = 1.0
		}
		return weights, nil
	}

	for _, obs := range observations {
		if _, ok := landmarks[obs.LandmarkID]; !ok {
			return nil, fmt.Errorf("observation references unknown landmark id %d", obs.LandmarkID)
		}
	}

	if s.workers == 1 || len(particles) < 2*s.workers {
		s.weighChunk(particles, observations, landmarks, weights)
		return weights, nil
	}

	var g errgroup.Group
	chunk := (len(particles) + s.workers - 1) / s.workers
	for start := 0; start < len(particles); start += chunk {
		end := start + chunk
		if end > len(particles) {
			end = len(particles)
		}
		g.Go(func() error {
			s.weighChunk(particles[start:end], observations, landmarks, weights[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return weights, nil
}

func (s *SensorModel) weighChunk(particles []Particle, observations []Observation, landmarks LandmarkMap, out []float64) {
	for i, p := range particles {
		likelihood := 1.0
		for _, obs := range observations {
			lm := landmarks[obs.LandmarkID]
			expected := math.Hypot(lm.X-p.X, lm.Y-p.Y)
			pdf := distuv.Normal{Mu: expected, Sigma: s.sigmaR}
			// The product can underflow toward zero with many observations
			// or large pose error; the resampler's collapse path recovers.
			likelihood *= pdf.Prob(obs.Range)
		}
		out[i] = likelihood
	}
}
