// Package filter implements Monte Carlo localization: a particle filter
// estimating a 2D robot pose from odometry and range-only landmark
// observations.
package filter

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FrameSink receives the live particle set once per timestep, before the
// motion update, plus the current mean pose estimate. Implementations render
// frames, stream to a viewer, or do nothing; the filter has no dependency on
// any image or animation format.
type FrameSink interface {
	Frame(step int, particles []Particle, estimate Pose) error
}

// NopSink discards every frame.
type NopSink struct{}

func (NopSink) Frame(int, []Particle, Pose) error { return nil }

// Params bundles everything needed to build a Filter.
type Params struct {
	Particles         int
	Bounds            Bounds
	MotionNoise       MotionNoise
	SigmaRange        float64
	CollapseThreshold float64
	Workers           int
	Seed              int64
}

// Filter sequences the per-timestep pipeline: frame sink, motion prediction,
// importance weighting, resampling. A single seeded random stream feeds
// initialization, motion sampling and resampling, so a full run is exactly
// reproducible for a fixed seed and input log.
type Filter struct {
	particles []Particle
	landmarks LandmarkMap
	bounds    Bounds

	motion    *MotionModel
	sensor    *SensorModel
	resampler *Resampler

	log  *zap.Logger
	step int
}

// New builds a filter over the given landmark map and draws the initial
// uniform particle set.
func New(params Params, landmarks LandmarkMap, log *zap.Logger) (*Filter, error) {
	if params.Particles <= 0 {
		return nil, fmt.Errorf("particle count must be positive, got %d", params.Particles)
	}
	if len(landmarks) == 0 {
		return nil, fmt.Errorf("landmark map is empty")
	}
	if err := params.Bounds.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", uuid.NewString()[:8]))

	rng := rand.New(rand.NewSource(params.Seed))
	motion, err := NewMotionModel(params.MotionNoise, rng)
	if err != nil {
		return nil, err
	}
	sensor, err := NewSensorModel(params.SigmaRange, params.Workers)
	if err != nil {
		return nil, err
	}
	resampler, err := NewResampler(params.CollapseThreshold, params.Bounds, rng)
	if err != nil {
		return nil, err
	}

	return &Filter{
		particles: Generate(rng, params.Particles, params.Bounds),
		landmarks: landmarks,
		bounds:    params.Bounds,
		motion:    motion,
		sensor:    sensor,
		resampler: resampler,
		log:       log,
	}, nil
}

// Particles returns the current particle set. The returned slice is the
// filter's own; callers must not modify it.
func (f *Filter) Particles() []Particle {
	return f.particles
}

// Bounds returns the map limits the filter was configured with.
func (f *Filter) Bounds() Bounds {
	return f.bounds
}

// Landmarks returns the immutable landmark map.
func (f *Filter) Landmarks() LandmarkMap {
	return f.landmarks
}

// Estimate returns the current mean pose.
func (f *Filter) Estimate() Pose {
	return MeanPose(f.particles)
}

// Collapses reports how many timesteps ended in the collapse fallback so far.
func (f *Filter) Collapses() int {
	return f.resampler.Collapses()
}

// Step runs one timestep: publish the current set to the sink, predict with
// the record's odometry, weigh against its observations, resample.
func (f *Filter) Step(record Record, sink FrameSink) error {
	if sink == nil {
		sink = NopSink{}
	}
	if err := sink.Frame(f.step, f.particles, f.Estimate()); err != nil {
		return fmt.Errorf("frame sink failed at step %d: %w", f.step, err)
	}

	predicted := f.motion.Sample(record.Odometry, f.particles)
	weights, err := f.sensor.Weigh(predicted, record.Observations, f.landmarks)
	if err != nil {
		return fmt.Errorf("weighting failed at step %d: %w", f.step, err)
	}

	before := f.resampler.Collapses()
	next, err := f.resampler.Resample(predicted, weights)
	if err != nil {
		return fmt.Errorf("resampling failed at step %d: %w", f.step, err)
	}
	if f.resampler.Collapses() > before {
		f.log.Warn("filter collapsed, re-seeding particle set uniformly",
			zap.Int("step", f.step),
			zap.Int("observations", len(record.Observations)))
	}

	f.particles = next
	f.step++
	return nil
}

// Run consumes the records in order, one per timestep, and returns the
// terminal pose estimate after the last record.
func (f *Filter) Run(records []Record, sink FrameSink) (Pose, error) {
	for _, record := range records {
		if err := f.Step(record, sink); err != nil {
			return Pose{}, err
		}
		if f.step%10 == 0 {
			est := f.Estimate()
			f.log.Info("filter progress",
				zap.Int("step", f.step),
				zap.Float64("x", est.X),
				zap.Float64("y", est.Y),
				zap.Float64("theta", est.Theta))
		}
	}
	return f.Estimate(), nil
}
