package model

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/material"
)

// sphere is the implementation of the Sphere interface.
type sphere struct {
	mu *sync.Mutex

	cols   int
	rows   int
	radius float32

	rotation       [3]float32
	rotationMatrix [16]float32

	positions  []common.Vec3
	uvs        []common.UV
	initialUVs []common.UV
	patches    []Patch
	materials  []material.Material
	version    uint64
}

// Sphere is the tiles mesh: a non-indexed UV sphere seen from the inside, split into patches
// that each carry their own material and texture coordinates. The horizontal texture coordinate
// 0.5 faces +Z.
//
// Positions and patches are fixed at construction. Materials and UVs are mutated through
// BindMaterial and SetUV, and every mutation bumps Version so a renderer can re-upload lazily.
type Sphere interface {
	// Segments returns the patch grid of the sphere.
	//
	// Returns:
	//   - cols: horizontal segments
	//   - rows: vertical segments
	Segments() (cols, rows int)

	// Radius returns the sphere radius.
	//
	// Returns:
	//   - float32: the radius
	Radius() float32

	// VertexCount returns the number of vertices of the non-indexed mesh.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Patches returns every patch in index order. The slice must not be modified.
	//
	// Returns:
	//   - []Patch: the patches
	Patches() []Patch

	// Patch returns the patch at (row, col). Panics if out of range.
	//
	// Parameters:
	//   - row: patch row
	//   - col: patch column
	//
	// Returns:
	//   - Patch: the patch
	Patch(row, col int) Patch

	// Rotation returns the mesh rotation as Euler angles in radians.
	//
	// Returns:
	//   - [3]float32: rotation around X, Y and Z
	Rotation() [3]float32

	// SetRotation sets the mesh rotation, applied in Y, X, Z order.
	//
	// Parameters:
	//   - x, y, z: rotation angles in radians
	SetRotation(x, y, z float32)

	// WorldVertices appends the rotated vertex positions of a patch to dst.
	//
	// Parameters:
	//   - p: the patch
	//   - dst: destination slice, may be nil
	//
	// Returns:
	//   - []common.Vec3: dst with the patch vertices appended
	WorldVertices(p Patch, dst []common.Vec3) []common.Vec3

	// WorldCenter returns the rotated centroid of a patch's vertices.
	//
	// Parameters:
	//   - p: the patch
	//
	// Returns:
	//   - common.Vec3: the centroid
	WorldCenter(p Patch) common.Vec3

	// BindMaterial sets the material drawn on a patch.
	//
	// Parameters:
	//   - p: the patch
	//   - m: the material
	BindMaterial(p Patch, m material.Material)

	// SetUV overwrites the texture coordinates of a patch. len(uvs) must equal p.VertexCount.
	//
	// Parameters:
	//   - p: the patch
	//   - uvs: one coordinate per patch vertex
	SetUV(p Patch, uvs []common.UV)

	// Material returns the material currently bound to a patch.
	//
	// Parameters:
	//   - p: the patch
	//
	// Returns:
	//   - material.Material: the bound material
	Material(p Patch) material.Material

	// PatchUVs returns a copy of the texture coordinates of a patch.
	//
	// Parameters:
	//   - p: the patch
	//
	// Returns:
	//   - []common.UV: the coordinates
	PatchUVs(p Patch) []common.UV

	// Version returns a counter incremented on every material or UV mutation.
	//
	// Returns:
	//   - uint64: the version
	Version() uint64

	// VertexData packs positions and current UVs as consecutive GPUVertex records.
	//
	// Returns:
	//   - []byte: the vertex buffer
	VertexData() []byte

	// Reset rebinds every patch to the transparent material and restores the initial UVs.
	Reset()
}

var _ Sphere = &sphere{}

// NewSphere builds the sphere mesh with the provided options.
// The resolution must be even and at least 4 so that both polar rows exist.
//
// Parameters:
//   - options: variadic list of SphereBuilderOption functions
//
// Returns:
//   - Sphere: the mesh
func NewSphere(options ...SphereBuilderOption) Sphere {
	s := &sphere{
		mu:     &sync.Mutex{},
		cols:   DefaultResolution,
		rows:   DefaultResolution / 2,
		radius: DefaultRadius,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.cols < 4 || s.cols%2 != 0 {
		panic(fmt.Sprintf("model: sphere resolution must be an even number >= 4, got %d", s.cols))
	}

	common.BuildRotationMatrix(s.rotationMatrix[:], s.rotation[0], s.rotation[1], s.rotation[2])
	s.build()
	return s
}

// build generates the non-indexed geometry. Grid vertex (ix, iy) sits at horizontal fraction u = ix/cols
// and vertical fraction v = iy/rows, with u = 0 at -Z, u = 0.25 at +X and u = 0.5 at +Z.
// Each patch uses corners a=(ix+1,iy) b=(ix,iy) c=(ix,iy+1) d=(ix+1,iy+1) and emits [b c d] on the
// first row, [a b d] on the last row and [a b d b c d] elsewhere.
func (s *sphere) build() {
	w, h := s.cols, s.rows
	r := float64(s.radius)

	gridPos := make([]common.Vec3, (w+1)*(h+1))
	gridUV := make([]common.UV, (w+1)*(h+1))
	for iy := 0; iy <= h; iy++ {
		v := float64(iy) / float64(h)
		uOffset := 0.0
		switch iy {
		case 0:
			uOffset = 0.5 / float64(w)
		case h:
			uOffset = -0.5 / float64(w)
		}
		theta := v * math.Pi
		for ix := 0; ix <= w; ix++ {
			u := float64(ix) / float64(w)
			phi := -math.Pi/2 + u*2*math.Pi
			i := iy*(w+1) + ix
			gridPos[i] = common.Vec3{
				float32(r * math.Cos(phi) * math.Sin(theta)),
				float32(r * math.Cos(theta)),
				float32(r * math.Sin(phi) * math.Sin(theta)),
			}
			gridUV[i] = common.UV{float32(u + uOffset), float32(1 - v)}
		}
	}

	n := VertexCountFor(w, h)
	s.positions = make([]common.Vec3, 0, n)
	s.uvs = make([]common.UV, 0, n)
	s.patches = make([]Patch, 0, w*h)
	s.materials = make([]material.Material, w*h)

	transparent := material.NewTransparent()
	for iy := 0; iy < h; iy++ {
		for ix := 0; ix < w; ix++ {
			a := iy*(w+1) + ix + 1
			b := iy*(w+1) + ix
			c := (iy+1)*(w+1) + ix
			d := (iy+1)*(w+1) + ix + 1

			var corners []int
			switch iy {
			case 0:
				corners = []int{b, c, d}
			case h - 1:
				corners = []int{a, b, d}
			default:
				corners = []int{a, b, d, b, c, d}
			}

			p := Patch{
				Index:       iy*w + ix,
				Row:         iy,
				Col:         ix,
				FirstVertex: len(s.positions),
				VertexCount: len(corners),
			}
			for _, k := range corners {
				s.positions = append(s.positions, gridPos[k])
				s.uvs = append(s.uvs, gridUV[k])
			}
			s.patches = append(s.patches, p)
			s.materials[p.Index] = transparent
		}
	}
	s.initialUVs = append([]common.UV(nil), s.uvs...)
}

func (s *sphere) Segments() (int, int) {
	return s.cols, s.rows
}

func (s *sphere) Radius() float32 {
	return s.radius
}

func (s *sphere) VertexCount() int {
	return len(s.positions)
}

func (s *sphere) Patches() []Patch {
	return s.patches
}

func (s *sphere) Patch(row, col int) Patch {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		panic(fmt.Sprintf("model: patch (%d, %d) outside %dx%d grid", row, col, s.cols, s.rows))
	}
	return s.patches[row*s.cols+col]
}

func (s *sphere) Rotation() [3]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotation
}

func (s *sphere) SetRotation(x, y, z float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotation = [3]float32{x, y, z}
	common.BuildRotationMatrix(s.rotationMatrix[:], x, y, z)
}

func (s *sphere) WorldVertices(p Patch, dst []common.Vec3) []common.Vec3 {
	s.mu.Lock()
	m := s.rotationMatrix
	s.mu.Unlock()
	for _, v := range s.positions[p.FirstVertex : p.FirstVertex+p.VertexCount] {
		dst = append(dst, common.TransformPoint(m[:], v))
	}
	return dst
}

func (s *sphere) WorldCenter(p Patch) common.Vec3 {
	var buf [VerticesPerQuad]common.Vec3
	var c common.Vec3
	verts := s.WorldVertices(p, buf[:0])
	for _, v := range verts {
		c[0] += v[0]
		c[1] += v[1]
		c[2] += v[2]
	}
	n := float32(len(verts))
	return common.Vec3{c[0] / n, c[1] / n, c[2] / n}
}

func (s *sphere) BindMaterial(p Patch, m material.Material) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[p.Index] = m
	s.version++
}

func (s *sphere) SetUV(p Patch, uvs []common.UV) {
	if len(uvs) != p.VertexCount {
		panic(fmt.Sprintf("model: patch %d takes %d uvs, got %d", p.Index, p.VertexCount, len(uvs)))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.uvs[p.FirstVertex:p.FirstVertex+p.VertexCount], uvs)
	s.version++
}

func (s *sphere) Material(p Patch) material.Material {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materials[p.Index]
}

func (s *sphere) PatchUVs(p Patch) []common.UV {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]common.UV(nil), s.uvs[p.FirstVertex:p.FirstVertex+p.VertexCount]...)
}

func (s *sphere) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *sphere) VertexData() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v GPUVertex
	stride := v.Size()
	buf := make([]byte, len(s.positions)*stride)
	for i := range s.positions {
		v.Position = s.positions[i]
		v.TexCoord = s.uvs[i]
		v.MarshalInto(buf[i*stride:])
	}
	return buf
}

func (s *sphere) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	transparent := material.NewTransparent()
	for i := range s.materials {
		s.materials[i] = transparent
	}
	copy(s.uvs, s.initialUVs)
	s.version++
}
