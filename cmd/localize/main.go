// Command localize runs Monte Carlo localization over a landmark map and a
// recorded sensor log, producing either an animated GIF of the filter state
// or a live view.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"mcl-sim/internal/config"
	"mcl-sim/internal/filter"
	"mcl-sim/internal/visualization"
	"mcl-sim/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file; defaults reproduce the reference scenario")
		mapPath    = flag.String("map", "data/world_map.dat", "landmark map file (`id x y` lines)")
		logPath    = flag.String("log", "data/sensor_measurement.dat", "sensor log file (ODOMETRY/SENSOR lines)")
		gifPath    = flag.String("gif", "localization.gif", "output animation path; empty disables rendering")
		live       = flag.Bool("live", false, "show a live viewer instead of writing an animation")
		tick       = flag.Duration("tick", 200*time.Millisecond, "per-step pacing in live mode")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			logger.Fatal("loading config", zap.Error(err))
		}
	}

	landmarks, err := world.ReadMap(*mapPath)
	if err != nil {
		logger.Fatal("loading landmark map", zap.Error(err))
	}
	records, err := world.ReadSensorLog(*logPath)
	if err != nil {
		logger.Fatal("loading sensor log", zap.Error(err))
	}
	logger.Info("inputs loaded",
		zap.Int("landmarks", len(landmarks)),
		zap.Int("records", len(records)))

	f, err := filter.New(cfg.FilterParams(), landmarks, logger)
	if err != nil {
		logger.Fatal("creating filter", zap.Error(err))
	}

	if *live {
		runLive(logger, f, records, landmarks, cfg.FilterBounds(), *tick)
		return
	}

	var sink filter.FrameSink = filter.NopSink{}
	var plotSink *visualization.PlotSink
	if *gifPath != "" {
		plotSink, err = visualization.NewPlotSink(landmarks, cfg.FilterBounds())
		if err != nil {
			logger.Fatal("creating plot sink", zap.Error(err))
		}
		sink = plotSink
	}

	estimate, err := f.Run(records, sink)
	if err != nil {
		logger.Fatal("filter run failed", zap.Error(err))
	}
	logger.Info("run complete",
		zap.Float64("x", estimate.X),
		zap.Float64("y", estimate.Y),
		zap.Float64("theta", estimate.Theta),
		zap.Int("collapses", f.Collapses()))

	if plotSink != nil {
		if err := visualization.WriteGIF(*gifPath, plotSink.Frames(), 20); err != nil {
			logger.Fatal("writing animation", zap.Error(err))
		}
		logger.Info("animation written",
			zap.String("path", *gifPath),
			zap.Int("frames", len(plotSink.Frames())))
	}
}

func runLive(logger *zap.Logger, f *filter.Filter, records []filter.Record, landmarks filter.LandmarkMap, bounds filter.Bounds, tick time.Duration) {
	viewer, err := visualization.NewLiveViewer(landmarks, bounds, tick)
	if err != nil {
		logger.Fatal("creating live viewer", zap.Error(err))
	}

	go func() {
		estimate, err := f.Run(records, viewer)
		if err != nil {
			logger.Fatal("filter run failed", zap.Error(err))
		}
		viewer.Finish()
		logger.Info("run complete",
			zap.Float64("x", estimate.X),
			zap.Float64("y", estimate.Y),
			zap.Float64("theta", estimate.Theta),
			zap.Int("collapses", f.Collapses()))
	}()

	ebiten.SetWindowSize(800, 640)
	ebiten.SetWindowTitle("Monte Carlo localization")
	if err := ebiten.RunGame(viewer); err != nil {
		logger.Fatal("viewer failed", zap.Error(err))
	}
}
