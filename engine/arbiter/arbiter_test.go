package arbiter

import (
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/material"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/pyramid"
)

// threeLevels builds 4x2, 8x4 and 16x8 tile levels over a 16x8 patch grid.
func threeLevels(t *testing.T) pyramid.Pyramid {
	t.Helper()
	p, err := pyramid.NewPyramid([]pyramid.Level{
		{ZoomRange: [2]float64{0, 30}, Width: 4096, Cols: 4, Rows: 2},
		{ZoomRange: [2]float64{30, 60}, Width: 8192, Cols: 8, Rows: 4},
		{ZoomRange: [2]float64{60, 100}, Width: 16384, Cols: 16, Rows: 8},
	}, 16, 8)
	if err != nil {
		t.Fatalf("NewPyramid: %v", err)
	}
	return p
}

func tileAt(t *testing.T, p pyramid.Pyramid, col, row, level int) Tile {
	t.Helper()
	cfg, ok := p.Level(level)
	if !ok {
		t.Fatalf("level %d missing", level)
	}
	return Tile{Col: col, Row: row, Config: cfg}
}

func tileMaterial(level int) material.Material {
	return material.NewMaterial(material.WithLevel(level), material.WithName(pyramid.TileKey(0, 0, level)))
}

func placeholder() material.Material {
	return material.NewMaterial(material.WithName("error"), material.AsErrorPlaceholder())
}

func TestApplyUpgradesResolution(t *testing.T) {
	sphere := model.NewSphere(model.WithResolution(16))
	pyr := threeLevels(t)
	a := NewArbiter(sphere, WithErrorMaterial(placeholder()))

	coarse := tileMaterial(0)
	if n := a.Apply(tileAt(t, pyr, 0, 0, 0), coarse); n != 16 {
		t.Fatalf("level 0 tile updated %d patches, want 16", n)
	}
	fine := tileMaterial(1)
	if n := a.Apply(tileAt(t, pyr, 0, 0, 1), fine); n != 4 {
		t.Fatalf("level 1 tile updated %d patches, want 4", n)
	}

	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			p := sphere.Patch(r, c)
			want, wantMat := 0, coarse
			if r < 2 && c < 2 {
				want, wantMat = 1, fine
			}
			if got, ok := a.Level(p); !ok || got != want {
				t.Errorf("patch %d,%d level = %d (%v), want %d", r, c, got, ok, want)
			}
			if sphere.Material(p) != wantMat {
				t.Errorf("patch %d,%d bound to the wrong material", r, c)
			}
		}
	}
	if _, ok := a.Level(sphere.Patch(5, 5)); ok {
		t.Error("uncovered patch should have no state")
	}
}

func TestApplyNeverRegresses(t *testing.T) {
	sphere := model.NewSphere(model.WithResolution(16))
	pyr := threeLevels(t)
	a := NewArbiter(sphere, WithErrorMaterial(placeholder()))

	sharp := tileMaterial(2)
	a.Apply(tileAt(t, pyr, 1, 1, 2), sharp)
	p := sphere.Patch(1, 1)
	uvs := append([]common.UV(nil), sphere.PatchUVs(p)...)

	// A stale level 1 tile covering the same patch arrives late.
	if n := a.Apply(tileAt(t, pyr, 0, 0, 1), tileMaterial(1)); n != 3 {
		t.Errorf("stale tile updated %d patches, want 3", n)
	}
	if got, _ := a.Level(p); got != 2 {
		t.Errorf("level = %d, want 2", got)
	}
	if sphere.Material(p) != sharp {
		t.Error("stale tile replaced the sharper material")
	}
	for i, uv := range sphere.PatchUVs(p) {
		if uv != uvs[i] {
			t.Fatalf("stale tile changed uv %d", i)
		}
	}

	if n := a.Apply(tileAt(t, pyr, 1, 1, 2), tileMaterial(2)); n != 1 {
		t.Errorf("same level tile updated %d patches, want 1", n)
	}
}

func TestApplyError(t *testing.T) {
	sphere := model.NewSphere(model.WithResolution(16))
	pyr := threeLevels(t)
	errMat := placeholder()
	a := NewArbiter(sphere, WithErrorMaterial(errMat))

	a.Apply(tileAt(t, pyr, 0, 0, 2), tileMaterial(2))
	if n := a.ApplyError(tileAt(t, pyr, 0, 0, 1)); n != 3 {
		t.Fatalf("error tile updated %d patches, want 3", n)
	}
	if got, _ := a.Level(sphere.Patch(0, 0)); got != 2 {
		t.Errorf("valid patch downgraded to %d", got)
	}
	p := sphere.Patch(1, 1)
	if got, _ := a.Level(p); got != ErrorLevel {
		t.Errorf("level = %d, want ErrorLevel", got)
	}
	if !sphere.Material(p).IsError() {
		t.Error("patch should show the placeholder")
	}

	if n := a.ApplyError(tileAt(t, pyr, 0, 0, 1)); n != 3 {
		t.Errorf("repeated error updated %d patches, want 3", n)
	}
	if n := a.Apply(tileAt(t, pyr, 0, 0, 0), tileMaterial(0)); n != 15 {
		t.Errorf("level 0 tile over errors updated %d patches, want 15", n)
	}
	if got, _ := a.Level(p); got != 0 {
		t.Errorf("level after recovery = %d, want 0", got)
	}
}

func TestApplyErrorDisabled(t *testing.T) {
	sphere := model.NewSphere(model.WithResolution(16))
	a := NewArbiter(sphere, WithErrorTile(false))
	if a.ErrorMaterial() != nil {
		t.Error("disabled placeholder should have no material")
	}
	if n := a.ApplyError(tileAt(t, threeLevels(t), 0, 0, 0)); n != 0 {
		t.Errorf("ApplyError updated %d patches", n)
	}
	if len(a.Levels()) != 0 {
		t.Error("disabled placeholder must not record state")
	}
}

func TestDefaultErrorMaterial(t *testing.T) {
	a := NewArbiter(model.NewSphere(model.WithResolution(8)))
	m := a.ErrorMaterial()
	if m == nil || !m.IsError() || m.Texture() == nil {
		t.Fatalf("default placeholder = %v", m)
	}
}

func TestPatchUVs(t *testing.T) {
	sphere := model.NewSphere(model.WithResolution(16))
	pyr := threeLevels(t)
	a := NewArbiter(sphere, WithErrorTile(false))

	a.Apply(tileAt(t, pyr, 0, 0, 1), tileMaterial(1))
	a.Apply(tileAt(t, pyr, 3, 3, 1), tileMaterial(1))

	tests := []struct {
		name     string
		row, col int
		want     []common.UV
	}{
		{"north pole", 0, 0, []common.UV{{0.25, 1}, {0, 0.5}, {0.5, 0.5}}},
		{"north pole right", 0, 1, []common.UV{{0.75, 1}, {0.5, 0.5}, {1, 0.5}}},
		{"quad", 1, 1, []common.UV{{1, 0.5}, {0.5, 0.5}, {1, 0}, {0.5, 0.5}, {0.5, 0}, {1, 0}}},
		{"quad above south pole", 6, 6, []common.UV{{0.5, 1}, {0, 1}, {0.5, 0.5}, {0, 1}, {0, 0.5}, {0.5, 0.5}}},
		{"south pole", 7, 7, []common.UV{{1, 0.5}, {0.5, 0.5}, {0.75, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sphere.PatchUVs(sphere.Patch(tt.row, tt.col))
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("uv[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLevelsMonotonic(t *testing.T) {
	sphere := model.NewSphere(model.WithResolution(16))
	pyr := threeLevels(t)
	a := NewArbiter(sphere, WithErrorMaterial(placeholder()))
	rng := rand.New(rand.NewSource(7))

	prev := map[int]int{}
	for i := 0; i < 500; i++ {
		level := rng.Intn(3)
		cfg, _ := pyr.Level(level)
		tile := Tile{Col: rng.Intn(cfg.Cols), Row: rng.Intn(cfg.Rows), Config: cfg}
		if rng.Intn(4) == 0 {
			a.ApplyError(tile)
		} else {
			a.Apply(tile, tileMaterial(level))
		}

		now := a.Levels()
		for idx, before := range prev {
			after := now[idx]
			if after < before && after != ErrorLevel {
				t.Fatalf("step %d: patch %d regressed %d -> %d", i, idx, before, after)
			}
			if after == ErrorLevel && before > ErrorLevel {
				t.Fatalf("step %d: patch %d at level %d replaced by the placeholder", i, idx, before)
			}
		}
		prev = now
	}
}

func TestApplyOutsideGridPanics(t *testing.T) {
	sphere := model.NewSphere(model.WithResolution(16))
	a := NewArbiter(sphere, WithErrorTile(false))
	defer func() {
		if recover() == nil {
			t.Error("tile outside the grid should panic")
		}
	}()
	a.Apply(tileAt(t, threeLevels(t), 4, 0, 0), tileMaterial(0))
}

func TestResetUnbindsAppliedPatches(t *testing.T) {
	sphere := model.NewSphere(model.WithResolution(16))
	pyr := threeLevels(t)
	a := NewArbiter(sphere, WithErrorMaterial(placeholder()))

	a.Apply(tileAt(t, pyr, 1, 0, 1), tileMaterial(1))
	a.ApplyError(tileAt(t, pyr, 0, 1, 1))
	a.Reset()

	if n := len(a.Levels()); n != 0 {
		t.Fatalf("Levels after Reset = %d entries, want 0", n)
	}
	for _, rc := range [][2]int{{0, 2}, {1, 3}, {2, 0}, {3, 1}} {
		m := sphere.Material(sphere.Patch(rc[0], rc[1]))
		if m.Opacity() != 0 || m.Texture() != nil || m.IsError() {
			t.Errorf("patch %v after Reset = %q opacity %v, want transparent", rc, m.Name(), m.Opacity())
		}
	}
	if lvl, ok := a.Level(sphere.Patch(0, 2)); ok {
		t.Errorf("Level after Reset = %d, want none", lvl)
	}
}
