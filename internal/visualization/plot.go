// Package visualization renders per-timestep views of the particle filter
// state: an offline sink that draws frames with gonum/plot and assembles a
// GIF, and a live ebiten viewer.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"mcl-sim/internal/filter"
)

const (
	frameWidth  = 6 * vg.Inch
	frameHeight = 5 * vg.Inch
	// Length of the mean-pose heading arrow in map units.
	arrowLength = 1.0
)

var (
	particleColor = color.RGBA{R: 220, A: 255}
	landmarkColor = color.RGBA{B: 220, A: 255}
	estimateColor = color.RGBA{A: 255}
)

// PlotSink draws one frame per timestep: the particle cloud, the landmarks
// and the mean pose with its heading. Frames are kept in memory; nothing is
// written to disk until the caller encodes them.
type PlotSink struct {
	landmarks filter.LandmarkMap
	bounds    filter.Bounds
	frames    []image.Image
}

// NewPlotSink creates a sink rendering against a fixed landmark map and
// fixed map limits.
func NewPlotSink(landmarks filter.LandmarkMap, bounds filter.Bounds) (*PlotSink, error) {
	if len(landmarks) == 0 {
		return nil, fmt.Errorf("plot sink requires a non-empty landmark map")
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &PlotSink{landmarks: landmarks, bounds: bounds}, nil
}

// Frame implements filter.FrameSink.
func (s *PlotSink) Frame(step int, particles []filter.Particle, estimate filter.Pose) error {
	img, err := s.render(step, particles, estimate)
	if err != nil {
		return err
	}
	s.frames = append(s.frames, img)
	return nil
}

// Frames returns the rendered frames in timestep order.
func (s *PlotSink) Frames() []image.Image {
	return s.frames
}

func (s *PlotSink) render(step int, particles []filter.Particle, estimate filter.Pose) (image.Image, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("step %d", step)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	cloud := make(plotter.XYs, len(particles))
	for i, particle := range particles {
		cloud[i] = plotter.XY{X: particle.X, Y: particle.Y}
	}
	cloudScatter, err := plotter.NewScatter(cloud)
	if err != nil {
		return nil, fmt.Errorf("rendering particles: %w", err)
	}
	cloudScatter.GlyphStyle.Color = particleColor
	cloudScatter.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(cloudScatter)

	marks := make(plotter.XYs, 0, len(s.landmarks))
	for _, lm := range s.landmarks {
		marks = append(marks, plotter.XY{X: lm.X, Y: lm.Y})
	}
	markScatter, err := plotter.NewScatter(marks)
	if err != nil {
		return nil, fmt.Errorf("rendering landmarks: %w", err)
	}
	markScatter.GlyphStyle.Color = landmarkColor
	markScatter.GlyphStyle.Radius = vg.Points(5)
	markScatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(markScatter)
	p.Legend.Add("landmarks", markScatter)

	arrow := plotter.XYs{
		{X: estimate.X, Y: estimate.Y},
		{X: estimate.X + arrowLength*math.Cos(estimate.Theta), Y: estimate.Y + arrowLength*math.Sin(estimate.Theta)},
	}
	arrowLine, err := plotter.NewLine(arrow)
	if err != nil {
		return nil, fmt.Errorf("rendering estimate: %w", err)
	}
	arrowLine.LineStyle.Color = estimateColor
	arrowLine.LineStyle.Width = vg.Points(2)
	p.Add(arrowLine)
	p.Legend.Add("estimated mean", arrowLine)

	// Fix the axes to the map limits after adding data so the data ranges
	// do not rescale them between frames.
	p.X.Min, p.X.Max = s.bounds.XMin, s.bounds.XMax
	p.Y.Min, p.Y.Max = s.bounds.YMin, s.bounds.YMax

	canvas := vgimg.New(frameWidth, frameHeight)
	p.Draw(draw.New(canvas))
	return canvas.Image(), nil
}
