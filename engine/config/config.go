// Package config loads the YAML description of a panorama viewer: the panorama itself, the sphere,
// the streaming knobs, the initial camera and the engine loop.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/pyramid"
)

// Zoom policy names accepted in streaming.zoom_policy.
const (
	ZoomPolicyFinest = "finest"
	ZoomPolicyFov    = "fov"
)

// Config is the panoview YAML document.
type Config struct {
	Panorama  Panorama  `yaml:"panorama"`
	Sphere    Sphere    `yaml:"sphere"`
	Streaming Streaming `yaml:"streaming"`
	Camera    Camera    `yaml:"camera"`
	Engine    Engine    `yaml:"engine"`
}

// Panorama locates the base image and the tile pyramid.
type Panorama struct {
	BaseURL string `yaml:"base_url"`
	// TileURL is a template with {col}, {row} and {level} placeholders.
	TileURL string `yaml:"tile_url"`

	// Width, Cols and Rows describe a single-level panorama when Levels is empty.
	Width int `yaml:"width"`
	Cols  int `yaml:"cols"`
	Rows  int `yaml:"rows"`

	Levels []Level `yaml:"levels"`

	// PanoData places a cropped base image on the sphere. Derived from the image size when absent.
	PanoData *PanoData `yaml:"pano_data"`
}

// PanoData is the YAML form of common.PanoData. Pose angles are in degrees.
type PanoData struct {
	FullWidth     int     `yaml:"full_width"`
	FullHeight    int     `yaml:"full_height"`
	CroppedWidth  int     `yaml:"cropped_width"`
	CroppedHeight int     `yaml:"cropped_height"`
	CroppedX      int     `yaml:"cropped_x"`
	CroppedY      int     `yaml:"cropped_y"`
	PoseHeading   float32 `yaml:"pose_heading"`
	PosePitch     float32 `yaml:"pose_pitch"`
	PoseRoll      float32 `yaml:"pose_roll"`
}

// Level is one pyramid level. ZoomRange is the [min, max) zoom it serves.
type Level struct {
	ZoomRange [2]float64 `yaml:"zoom_range"`
	Width     int        `yaml:"width"`
	Cols      int        `yaml:"cols"`
	Rows      int        `yaml:"rows"`
}

// Sphere sets the patch grid resolution and radius of the render sphere.
type Sphere struct {
	Resolution int     `yaml:"resolution"`
	Radius     float32 `yaml:"radius"`
}

// Streaming tunes tile fetching. HTTPTimeout and UserAgent apply to the HTTP loader.
type Streaming struct {
	MaxConcurrency int           `yaml:"max_concurrency"`
	ErrorTile      bool          `yaml:"error_tile"`
	Antialias      bool          `yaml:"antialias"`
	ZoomPolicy     string        `yaml:"zoom_policy"`
	LevelFallback  bool          `yaml:"level_fallback"`
	MaxTextureSize int           `yaml:"max_texture_size"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	UserAgent      string        `yaml:"user_agent"`
}

// Camera angles are in degrees, ZoomSpeed in degrees per scroll unit.
type Camera struct {
	Yaw       float32 `yaml:"yaw"`
	Pitch     float32 `yaml:"pitch"`
	Fov       float32 `yaml:"fov"`
	MinFov    float32 `yaml:"min_fov"`
	MaxFov    float32 `yaml:"max_fov"`
	ZoomSpeed float32 `yaml:"zoom_speed"`
}

// Engine sets the tick loop rate and whether the profiler reports.
type Engine struct {
	TickRateHz int  `yaml:"tick_rate_hz"`
	Profile    bool `yaml:"profile"`
}

// Default returns the configuration used for every field absent from the YAML document.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Sphere: Sphere{Resolution: 64, Radius: 10},
		Streaming: Streaming{
			MaxConcurrency: 8,
			ErrorTile:      true,
			Antialias:      true,
			ZoomPolicy:     ZoomPolicyFinest,
			MaxTextureSize: 8192,
			HTTPTimeout:    30 * time.Second,
		},
		Camera: Camera{Fov: 90, MinFov: 30, MaxFov: 120, ZoomSpeed: 0.1},
		Engine: Engine{TickRateHz: 60},
	}
}

// Load reads and validates a YAML configuration file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the configuration
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML document over the defaults and validates the result.
//
// Parameters:
//   - raw: the YAML document
//
// Returns:
//   - Config: the configuration
//   - error: a decoding error or a *common.ConfigError
func Parse(raw []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every section, including the level pyramid against the sphere patch grid.
//
// Returns:
//   - error: a *common.ConfigError describing the first problem found
func (c Config) Validate() error {
	if strings.TrimSpace(c.Panorama.TileURL) == "" {
		return common.NewConfigError("panorama.tile_url", "is required")
	}
	if c.Sphere.Resolution < 4 || c.Sphere.Resolution%2 != 0 {
		return common.NewConfigError("sphere.resolution", "must be an even number >= 4, got %d", c.Sphere.Resolution)
	}
	if c.Sphere.Radius <= 0 {
		return common.NewConfigError("sphere.radius", "must be positive")
	}
	if c.Streaming.MaxConcurrency <= 0 {
		return common.NewConfigError("streaming.max_concurrency", "must be positive")
	}
	if c.Streaming.MaxTextureSize <= 0 {
		return common.NewConfigError("streaming.max_texture_size", "must be positive")
	}
	if c.Streaming.HTTPTimeout < 0 {
		return common.NewConfigError("streaming.http_timeout", "must not be negative")
	}
	switch c.Streaming.ZoomPolicy {
	case ZoomPolicyFinest, ZoomPolicyFov:
	default:
		return common.NewConfigError("streaming.zoom_policy", "unknown policy %q", c.Streaming.ZoomPolicy)
	}
	if c.Camera.MinFov <= 0 || c.Camera.MinFov >= c.Camera.MaxFov || c.Camera.MaxFov >= 180 {
		return common.NewConfigError("camera", "fov range must satisfy 0 < min_fov < max_fov < 180")
	}
	if c.Camera.ZoomSpeed <= 0 {
		return common.NewConfigError("camera.zoom_speed", "must be positive")
	}
	if c.Engine.TickRateHz <= 0 {
		return common.NewConfigError("engine.tick_rate_hz", "must be positive")
	}

	cols, rows := c.PatchGrid()
	return pyramid.ValidateLevels(c.Levels(), cols, rows)
}

// ExplicitPanoData converts panorama.pano_data, pose in radians.
//
// Returns:
//   - common.PanoData: the panorama data
//   - bool: false when the document has none
func (c Config) ExplicitPanoData() (common.PanoData, bool) {
	pd := c.Panorama.PanoData
	if pd == nil {
		return common.PanoData{}, false
	}
	return common.PanoData{
		FullWidth:     pd.FullWidth,
		FullHeight:    pd.FullHeight,
		CroppedWidth:  pd.CroppedWidth,
		CroppedHeight: pd.CroppedHeight,
		CroppedX:      pd.CroppedX,
		CroppedY:      pd.CroppedY,
		PoseHeading:   Radians(pd.PoseHeading),
		PosePitch:     Radians(pd.PosePitch),
		PoseRoll:      Radians(pd.PoseRoll),
	}, true
}

// PatchGrid returns the sphere patch grid implied by the resolution.
//
// Returns:
//   - cols: horizontal patch count
//   - rows: vertical patch count
func (c Config) PatchGrid() (cols, rows int) {
	return c.Sphere.Resolution, c.Sphere.Resolution / 2
}

// Levels returns the tile pyramid, built from the single-level fields when no levels are listed.
//
// Returns:
//   - []pyramid.Level: the levels
func (c Config) Levels() []pyramid.Level {
	if len(c.Panorama.Levels) == 0 {
		if c.Panorama.Width == 0 && c.Panorama.Cols == 0 && c.Panorama.Rows == 0 {
			return nil
		}
		return pyramid.SingleLevel(c.Panorama.Width, c.Panorama.Cols, c.Panorama.Rows)
	}
	out := make([]pyramid.Level, len(c.Panorama.Levels))
	for i, l := range c.Panorama.Levels {
		out[i] = pyramid.Level{ZoomRange: l.ZoomRange, Width: l.Width, Cols: l.Cols, Rows: l.Rows}
	}
	return out
}

// TileURL expands the tile URL template. Tiles outside their level grid, and every tile when the
// template is empty, have no URL.
//
// Returns:
//   - pyramid.TileURLFunc: the tile URL provider
func (c Config) TileURL() pyramid.TileURLFunc {
	template := c.Panorama.TileURL
	levels := c.Levels()
	return func(col, row, level int) (string, bool) {
		if template == "" || level < 0 || level >= len(levels) {
			return "", false
		}
		l := levels[level]
		if col < 0 || row < 0 || col >= l.Cols || row >= l.Rows {
			return "", false
		}
		return strings.NewReplacer(
			"{col}", strconv.Itoa(col),
			"{row}", strconv.Itoa(row),
			"{level}", strconv.Itoa(level),
		).Replace(template), true
	}
}

// ZoomPolicy returns the configured zoom policy.
//
// Returns:
//   - pyramid.ZoomPolicy: the policy
func (c Config) ZoomPolicy() pyramid.ZoomPolicy {
	if c.Streaming.ZoomPolicy == ZoomPolicyFov {
		return pyramid.FovZoom(Radians(c.Camera.MinFov), Radians(c.Camera.MaxFov))
	}
	return pyramid.FinestZoom
}

// TickInterval returns the engine tick period.
//
// Returns:
//   - time.Duration: one second divided by the tick rate
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Engine.TickRateHz)
}

// Radians converts degrees to radians.
//
// Parameters:
//   - deg: an angle in degrees
//
// Returns:
//   - float32: the angle in radians
func Radians(deg float32) float32 {
	return deg * math.Pi / 180
}
