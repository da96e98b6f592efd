package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

const multiLevel = `
panorama:
  base_url: https://example.com/pano/base.jpg
  tile_url: https://example.com/pano/{level}/{col}_{row}.jpg
  levels:
    - zoom_range: [0, 50]
      width: 4096
      cols: 16
      rows: 8
    - zoom_range: [50, 100]
      width: 8192
      cols: 32
      rows: 16
streaming:
  max_concurrency: 4
  zoom_policy: fov
  http_timeout: 5s
  error_tile: false
camera:
  fov: 75
engine:
  tick_rate_hz: 30
`

func TestParseMultiLevel(t *testing.T) {
	c, err := Parse([]byte(multiLevel))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Streaming.MaxConcurrency != 4 || c.Streaming.HTTPTimeout != 5*time.Second {
		t.Errorf("streaming = %+v", c.Streaming)
	}
	if c.Streaming.ErrorTile {
		t.Error("error_tile should be overridden")
	}
	if !c.Streaming.Antialias || c.Sphere.Resolution != 64 || c.Camera.MaxFov != 120 {
		t.Error("absent fields should keep their defaults")
	}
	if got := c.TickInterval(); got != time.Second/30 {
		t.Errorf("TickInterval = %v", got)
	}

	levels := c.Levels()
	if len(levels) != 2 || levels[1].Cols != 32 || levels[1].ZoomRange != [2]float64{50, 100} {
		t.Fatalf("Levels = %+v", levels)
	}

	policy := c.ZoomPolicy()
	if z := policy(Radians(120)); math.Abs(z) > 1e-6 {
		t.Errorf("zoom at max fov = %v, want 0", z)
	}
	if z := policy(Radians(30)); math.Abs(z-100) > 1e-6 {
		t.Errorf("zoom at min fov = %v, want 100", z)
	}
}

func TestParseSingleLevel(t *testing.T) {
	c, err := Parse([]byte(`
panorama:
  tile_url: tiles/{col}x{row}.png
  width: 8192
  cols: 8
  rows: 4
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	levels := c.Levels()
	if len(levels) != 1 || levels[0].ZoomRange != [2]float64{0, 100} || levels[0].Cols != 8 {
		t.Fatalf("Levels = %+v", levels)
	}
	if c.ZoomPolicy()(1) != 100 {
		t.Error("default policy should request the finest level")
	}
}

func TestExplicitPanoData(t *testing.T) {
	c, err := Parse([]byte(`
panorama:
  tile_url: tiles/{col}x{row}.png
  width: 8192
  cols: 8
  rows: 4
  pano_data:
    full_width: 8000
    full_height: 4000
    cropped_y: 500
    pose_heading: 90
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	pd, ok := c.ExplicitPanoData()
	if !ok {
		t.Fatal("pano_data should be present")
	}
	if pd.FullWidth != 8000 || pd.FullHeight != 4000 || pd.CroppedY != 500 || pd.CroppedX != 0 {
		t.Errorf("PanoData = %+v", pd)
	}
	if math.Abs(float64(pd.PoseHeading)-math.Pi/2) > 1e-6 {
		t.Errorf("PoseHeading = %v, want pi/2", pd.PoseHeading)
	}

	if _, ok := Default().ExplicitPanoData(); ok {
		t.Error("defaults should have no explicit pano data")
	}
}

func TestTileURL(t *testing.T) {
	c, err := Parse([]byte(multiLevel))
	if err != nil {
		t.Fatal(err)
	}
	tileURL := c.TileURL()

	tests := []struct {
		col, row, level int
		want            string
		ok              bool
	}{
		{3, 5, 0, "https://example.com/pano/0/3_5.jpg", true},
		{31, 15, 1, "https://example.com/pano/1/31_15.jpg", true},
		{16, 0, 0, "", false},
		{0, 16, 1, "", false},
		{0, 0, 2, "", false},
		{-1, 0, 0, "", false},
	}
	for _, tt := range tests {
		got, ok := tileURL(tt.col, tt.row, tt.level)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TileURL(%d,%d,%d) = %q,%v want %q,%v", tt.col, tt.row, tt.level, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"missing tile url", "panorama: {width: 1, cols: 8, rows: 4}", "panorama.tile_url"},
		{"odd resolution", "panorama: {tile_url: x, width: 1, cols: 8, rows: 4}\nsphere: {resolution: 15}", "sphere.resolution"},
		{"bad radius", "panorama: {tile_url: x, width: 1, cols: 8, rows: 4}\nsphere: {radius: 0}", "sphere.radius"},
		{"bad concurrency", "panorama: {tile_url: x, width: 1, cols: 8, rows: 4}\nstreaming: {max_concurrency: 0}", "streaming.max_concurrency"},
		{"unknown policy", "panorama: {tile_url: x, width: 1, cols: 8, rows: 4}\nstreaming: {zoom_policy: magic}", "streaming.zoom_policy"},
		{"zero zoom speed", "panorama: {tile_url: x, width: 1, cols: 8, rows: 4}\ncamera: {zoom_speed: 0}", "camera.zoom_speed"},
		{"inverted fov", "panorama: {tile_url: x, width: 1, cols: 8, rows: 4}\ncamera: {min_fov: 100, max_fov: 50}", "camera"},
		{"tick rate", "panorama: {tile_url: x, width: 1, cols: 8, rows: 4}\nengine: {tick_rate_hz: 0}", "engine.tick_rate_hz"},
		{"no levels", "panorama: {tile_url: x}", "levels"},
		{"too many cols", "panorama: {tile_url: x, width: 1, cols: 128, rows: 4}", "levels[0].cols"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			var ce *common.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *common.ConfigError", err)
			}
			if !strings.HasPrefix(ce.Field, tt.field) {
				t.Errorf("Field = %q, want prefix %q", ce.Field, tt.field)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("panorama: [unclosed"))
	if err == nil {
		t.Fatal("malformed YAML should fail")
	}
	var ce *common.ConfigError
	if errors.As(err, &ce) {
		t.Error("decode failure is not a configuration error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pano.yaml")
	if err := os.WriteFile(path, []byte(multiLevel), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Panorama.BaseURL != "https://example.com/pano/base.jpg" {
		t.Errorf("BaseURL = %q", c.Panorama.BaseURL)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}
