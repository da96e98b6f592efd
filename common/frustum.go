package common

import (
	"math"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix produced by Perspective (depth in [0, 1]).
// Uses the Gribb/Hartmann method for plane extraction; the near plane is row2 alone because of the [0, 1] depth range.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: 16 float32 values representing the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj [16]float32) Frustum {
	var f Frustum

	// For column-major matrix M, row r is (M[r], M[4+r], M[8+r], M[12+r]).
	row := func(r int) [4]float32 {
		return [4]float32{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	set := func(index int, sign float32, r [4]float32, base [4]float32) {
		p := &f.Planes[index]
		p.Normal = [3]float32{base[0] + sign*r[0], base[1] + sign*r[1], base[2] + sign*r[2]}
		p.Distance = base[3] + sign*r[3]
	}

	set(FrustumLeft, 1, r0, r3)
	set(FrustumRight, -1, r0, r3)
	set(FrustumBottom, 1, r1, r3)
	set(FrustumTop, -1, r1, r3)
	set(FrustumNear, 1, r2, [4]float32{})
	set(FrustumFar, -1, r2, r3)

	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// ContainsPoint reports whether p lies inside (or on) every plane of the frustum.
//
// Parameters:
//   - p: the world-space point
//
// Returns:
//   - bool: true if the point is inside the frustum
func (f *Frustum) ContainsPoint(p Vec3) bool {
	for i := range f.Planes {
		pl := &f.Planes[i]
		if pl.Normal[0]*p[0]+pl.Normal[1]*p[1]+pl.Normal[2]*p[2]+pl.Distance < 0 {
			return false
		}
	}
	return true
}

// ContainsAny reports whether at least one of the points lies inside the frustum.
// A facet is treated as visible as soon as one of its vertices is.
//
// Parameters:
//   - points: the world-space points
//
// Returns:
//   - bool: true if any point is inside
func (f *Frustum) ContainsAny(points []Vec3) bool {
	for _, p := range points {
		if f.ContainsPoint(p) {
			return true
		}
	}
	return false
}

// MayIntersect reports whether the convex hull of points may intersect the frustum. It is false only
// when every point lies outside the same plane, so a facet larger than the view, with all of its
// vertices outside the frustum but on different sides, still counts as intersecting.
//
// Parameters:
//   - points: the world-space points
//
// Returns:
//   - bool: false if the points are entirely outside one plane
func (f *Frustum) MayIntersect(points []Vec3) bool {
	if len(points) == 0 {
		return false
	}
	for i := range f.Planes {
		pl := &f.Planes[i]
		outside := true
		for _, p := range points {
			if pl.Normal[0]*p[0]+pl.Normal[1]*p[1]+pl.Normal[2]*p[2]+pl.Distance >= 0 {
				outside = false
				break
			}
		}
		if outside {
			return false
		}
	}
	return true
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := float32(math.Sqrt(float64(
		p.Normal[0]*p.Normal[0] +
			p.Normal[1]*p.Normal[1] +
			p.Normal[2]*p.Normal[2],
	)))

	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
}
