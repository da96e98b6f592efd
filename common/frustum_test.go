package common

import (
	"math"
	"testing"
)

func lookingAlongZ(fovDeg float32) Frustum {
	var view, proj, vp [16]float32
	LookAt(view[:], 0, 0, 0, 0, 0, 1, 0, 1, 0)
	Perspective(proj[:], fovDeg*math.Pi/180, 1, 0.1, 20)
	Mul4(vp[:], proj[:], view[:])
	return ExtractFrustumFromMatrix(vp)
}

func TestFrustumContainsPoint(t *testing.T) {
	f := lookingAlongZ(90)

	tests := []struct {
		name string
		p    Vec3
		want bool
	}{
		{"straight ahead", Vec3{0, 0, 10}, true},
		{"behind", Vec3{0, 0, -10}, false},
		{"far to the side", Vec3{10, 0, 1}, false},
		{"inside the cone", Vec3{3, 3, 10}, true},
		{"beyond far plane", Vec3{0, 0, 30}, false},
		{"before near plane", Vec3{0, 0, 0.01}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ContainsPoint(tt.p); got != tt.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestFrustumContainsAny(t *testing.T) {
	f := lookingAlongZ(60)
	if f.ContainsAny(nil) {
		t.Error("empty point set should not be visible")
	}
	if !f.ContainsAny([]Vec3{{0, 0, -10}, {0, 0, 10}}) {
		t.Error("one visible point should make the set visible")
	}
	if f.ContainsAny([]Vec3{{0, 0, -10}, {0, 10, -1}}) {
		t.Error("no visible point should make the set invisible")
	}
}

func TestFrustumMayIntersect(t *testing.T) {
	f := lookingAlongZ(90)

	tests := []struct {
		name   string
		points []Vec3
		want   bool
	}{
		{"empty", nil, false},
		{"corner inside", []Vec3{{0, 0, 10}, {30, 0, 10}, {30, 30, 10}}, true},
		{"wider than the view", []Vec3{{-15, -15, 10}, {15, -15, 10}, {15, 15, 10}, {-15, 15, 10}}, true},
		{"behind", []Vec3{{-15, -15, -10}, {15, -15, -10}, {15, 15, -10}, {-15, 15, -10}}, false},
		{"off to one side", []Vec3{{30, -1, 10}, {40, -1, 10}, {40, 1, 10}, {30, 1, 10}}, false},
		{"beyond far plane", []Vec3{{-1, 0, 30}, {1, 0, 30}, {0, 1, 40}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.MayIntersect(tt.points); got != tt.want {
				t.Errorf("MayIntersect = %v, want %v", got, tt.want)
			}
			if f.ContainsAny(tt.points) && !tt.want {
				t.Error("a contained point must imply intersection")
			}
		})
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	f := lookingAlongZ(75)
	for i, p := range f.Planes {
		l := math.Sqrt(float64(p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2]))
		if math.Abs(l-1) > 1e-4 {
			t.Errorf("plane %d normal length = %f, want 1", i, l)
		}
	}
}
