package visualization

import (
	"fmt"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"mcl-sim/internal/filter"
)

const (
	particleRadiusOnScreen = 2.0
	landmarkRadiusOnScreen = 6.0
	estimateRadiusOnScreen = 4.0
	padding                = 40.0
)

var (
	backgroundColor   = color.RGBA{230, 230, 230, 255}
	particleLiveColor = color.RGBA{255, 0, 0, 255}
	landmarkLiveColor = color.RGBA{0, 0, 255, 255}
	estimateLiveColor = color.RGBA{0, 0, 0, 255}
)

type snapshot struct {
	step      int
	particles []filter.Particle
	estimate  filter.Pose
}

// LiveViewer implements ebiten.Game and filter.FrameSink: the filter pushes
// its per-timestep state through Frame while the ebiten loop draws the most
// recent snapshot. Frame paces the filter by the configured tick so the run
// is watchable.
type LiveViewer struct {
	landmarks filter.LandmarkMap
	bounds    filter.Bounds
	tick      time.Duration

	mu   sync.Mutex
	last snapshot
	done bool

	screenWidth  int
	screenHeight int
}

// NewLiveViewer creates a viewer over a fixed landmark map and map limits.
func NewLiveViewer(landmarks filter.LandmarkMap, bounds filter.Bounds, tick time.Duration) (*LiveViewer, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &LiveViewer{landmarks: landmarks, bounds: bounds, tick: tick}, nil
}

// Frame implements filter.FrameSink.
func (v *LiveViewer) Frame(step int, particles []filter.Particle, estimate filter.Pose) error {
	cloud := make([]filter.Particle, len(particles))
	copy(cloud, particles)

	v.mu.Lock()
	v.last = snapshot{step: step, particles: cloud, estimate: estimate}
	v.mu.Unlock()

	if v.tick > 0 {
		time.Sleep(v.tick)
	}
	return nil
}

// Finish marks the run as complete; the viewer keeps showing the last frame.
func (v *LiveViewer) Finish() {
	v.mu.Lock()
	v.done = true
	v.mu.Unlock()
}

// Update is part of ebiten.Game. All state changes arrive through Frame.
func (v *LiveViewer) Update() error {
	return nil
}

// worldToScreen maps map coordinates to screen coordinates, preserving the
// aspect ratio of the map limits.
func (v *LiveViewer) worldToScreen(x, y float64) (float32, float32) {
	worldWidth := v.bounds.XMax - v.bounds.XMin
	worldHeight := v.bounds.YMax - v.bounds.YMin
	scaleX := (float64(v.screenWidth) - 2*padding) / worldWidth
	scaleY := (float64(v.screenHeight) - 2*padding) / worldHeight
	scale := math.Min(scaleX, scaleY)

	screenX := padding + (x-v.bounds.XMin)*scale
	// Screen y grows downward.
	screenY := float64(v.screenHeight) - padding - (y-v.bounds.YMin)*scale
	return float32(screenX), float32(screenY)
}

// Draw renders the latest snapshot.
func (v *LiveViewer) Draw(screen *ebiten.Image) {
	v.mu.Lock()
	snap := v.last
	done := v.done
	v.mu.Unlock()

	screen.Fill(backgroundColor)

	for _, lm := range v.landmarks {
		lx, ly := v.worldToScreen(lm.X, lm.Y)
		vector.DrawFilledCircle(screen, lx, ly, landmarkRadiusOnScreen, landmarkLiveColor, true)
	}

	for _, p := range snap.particles {
		px, py := v.worldToScreen(p.X, p.Y)
		vector.DrawFilledCircle(screen, px, py, particleRadiusOnScreen, particleLiveColor, true)
	}

	if len(snap.particles) > 0 {
		ex, ey := v.worldToScreen(snap.estimate.X, snap.estimate.Y)
		hx, hy := v.worldToScreen(
			snap.estimate.X+arrowLength*math.Cos(snap.estimate.Theta),
			snap.estimate.Y+arrowLength*math.Sin(snap.estimate.Theta))
		vector.StrokeLine(screen, ex, ey, hx, hy, 2, estimateLiveColor, true)
		vector.DrawFilledCircle(screen, ex, ey, estimateRadiusOnScreen, estimateLiveColor, true)
	}

	v.drawDebugInfo(screen, snap, done)
}

func (v *LiveViewer) drawDebugInfo(screen *ebiten.Image, snap snapshot, done bool) {
	msg := fmt.Sprintf("step: %d\n", snap.step)
	msg += fmt.Sprintf("particles: %d, landmarks: %d\n", len(snap.particles), len(v.landmarks))
	msg += fmt.Sprintf("estimate: x=%.2f y=%.2f theta=%.2f\n", snap.estimate.X, snap.estimate.Y, snap.estimate.Theta)
	msg += fmt.Sprintf("FPS: %.1f, TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
	if done {
		msg += "\nrun finished"
	}
	ebitenutil.DebugPrint(screen, msg)
}

// Layout is part of ebiten.Game.
func (v *LiveViewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.screenWidth = outsideWidth
	v.screenHeight = outsideHeight
	return v.screenWidth, v.screenHeight
}
