// Command panoview streams a tiled panorama headlessly: it loads a YAML configuration, sweeps the camera
// around the horizon for a while and writes a PNG map of the resolution reached by every sphere patch.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/config"
	"github.com/Carmen-Shannon/oxy-pano/engine/coverage"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/panorama"
)

type options struct {
	configPath string
	out        string
	duration   time.Duration
	sweep      float64
	pitch      float64
	aspect     float64
	cellSize   int
	profile    bool
	debug      bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML panorama configuration (required)")
	flag.StringVar(&o.out, "out", "coverage.png", "Coverage map output path")
	flag.DurationVar(&o.duration, "duration", 10*time.Second, "How long to stream before writing the map")
	flag.Float64Var(&o.sweep, "sweep", 36, "Camera yaw speed in degrees per second (0 = still)")
	flag.Float64Var(&o.pitch, "pitch", 0, "Camera pitch in degrees, overrides the configuration when non-zero")
	flag.Float64Var(&o.aspect, "aspect", 16.0/9.0, "Viewport aspect ratio")
	flag.IntVar(&o.cellSize, "cell", coverage.DefaultCellSize, "Coverage map cell size in pixels")
	flag.BoolVar(&o.profile, "profile", false, "Log profiler reports, overrides the configuration")
	flag.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if o.configPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -config is required\n\n")
		fmt.Fprintf(os.Stderr, "Usage example:\n")
		fmt.Fprintf(os.Stderr, "  panoview -config pano.yaml -duration 20s -out coverage.png\n\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logLevel := slog.LevelInfo
	if o.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	common.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		logger.Error("panoview failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	loaderOpts := []loader.LoaderBuilderOption{
		loader.WithTimeout(cfg.Streaming.HTTPTimeout),
		loader.WithMaxTextureSize(cfg.Streaming.MaxTextureSize),
	}
	if cfg.Streaming.UserAgent != "" {
		loaderOpts = append(loaderOpts, loader.WithUserAgent(cfg.Streaming.UserAgent))
	}
	if pd, ok := cfg.ExplicitPanoData(); ok {
		loaderOpts = append(loaderOpts, loader.WithPanoData(pd))
	}
	ld := loader.NewLoader(loaderOpts...)

	sphere := model.NewSphere(
		model.WithResolution(cfg.Sphere.Resolution),
		model.WithRadius(cfg.Sphere.Radius),
	)
	session := panorama.NewSession(sphere,
		panorama.WithLoader(ld),
		panorama.WithMaxConcurrency(cfg.Streaming.MaxConcurrency),
		panorama.WithErrorTile(cfg.Streaming.ErrorTile),
		panorama.WithAntialias(cfg.Streaming.Antialias),
		panorama.WithZoomPolicy(cfg.ZoomPolicy()),
		panorama.WithLevelFallback(cfg.Streaming.LevelFallback),
	)
	defer session.Close()

	err = session.Configure(ctx, panorama.Panorama{
		BaseURL: cfg.Panorama.BaseURL,
		Levels:  cfg.Levels(),
		TileURL: cfg.TileURL(),
	})
	if err != nil {
		return err
	}

	pitch := cfg.Camera.Pitch
	if o.pitch != 0 {
		pitch = float32(o.pitch)
	}
	ctrl := camera.NewCameraController(
		camera.WithYaw(config.Radians(cfg.Camera.Yaw)),
		camera.WithPitch(config.Radians(pitch)),
		camera.WithFovRange(config.Radians(cfg.Camera.MinFov), config.Radians(cfg.Camera.MaxFov)),
		camera.WithFov(config.Radians(cfg.Camera.Fov)),
		camera.WithZoomSpeed(cfg.Camera.ZoomSpeed),
	)
	cam := camera.NewCamera(
		camera.WithAspect(float32(o.aspect)),
		camera.WithFar(cfg.Sphere.Radius*10),
		camera.WithController(ctrl),
	)

	sweep := config.Radians(float32(o.sweep))
	eng := engine.NewEngine(session, cam,
		engine.WithTickRate(float64(cfg.Engine.TickRateHz)),
		engine.WithProfiling(cfg.Engine.Profile || o.profile),
		engine.WithTickCallback(func(dt float32) {
			if sweep != 0 {
				ctrl.Turn(sweep*dt, 0)
			}
		}),
		engine.WithRenderCallback(func(float32) {
			slog.Debug("sphere changed", "version", sphere.Version())
		}),
	)

	runCtx, cancel := context.WithTimeout(ctx, o.duration)
	defer cancel()
	if err := eng.Run(runCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("streaming interrupted", "error", err)
	}

	cols, rows := sphere.Segments()
	grid := coverage.Grid{
		Cols:       cols,
		Rows:       rows,
		LevelCount: len(cfg.Levels()),
		Levels:     session.Levels(),
	}
	if err := coverage.SavePNG(o.out, grid, coverage.WithCellSize(o.cellSize)); err != nil {
		return err
	}

	summary := grid.Summarize()
	stats := session.Stats()
	refreshes, redraws := eng.Counters()
	slog.Info("coverage written",
		"path", o.out,
		"by_level", summary.ByLevel,
		"errors", summary.Errors,
		"empty", summary.Empty,
		"loaded", stats.Loaded,
		"failed", stats.Failed,
		"cache_hits", stats.Cache.Hits,
		"refreshes", refreshes,
		"redraws", redraws,
	)
	return nil
}
