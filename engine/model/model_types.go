package model

// Vertex counts of the two patch shapes of a non-indexed UV sphere.
const (
	// VerticesPerQuad is the vertex count of a patch outside the polar rows (two triangles).
	VerticesPerQuad = 6
	// VerticesPerPole is the vertex count of a patch in the first or last row (one triangle).
	VerticesPerPole = 3
)

// Default sphere parameters.
const (
	DefaultResolution = 64
	DefaultRadius     = 10
)

// Patch is one facet of the sphere mesh, the unit a tile texture is applied to.
// Patches are laid out row by row from the north pole, each row running along increasing
// horizontal texture coordinate.
type Patch struct {
	// Index is the patch number, Row*cols + Col.
	Index int
	// Row is the patch row, 0 at the north pole.
	Row int
	// Col is the patch column.
	Col int
	// FirstVertex is the offset of the patch's first vertex in the non-indexed vertex buffer.
	FirstVertex int
	// VertexCount is VerticesPerPole for polar rows and VerticesPerQuad otherwise.
	VertexCount int
}

// IsPolar reports whether the patch is a triangle touching a pole.
//
// Returns:
//   - bool: true for the first and last patch rows
func (p Patch) IsPolar() bool {
	return p.VertexCount == VerticesPerPole
}

// VertexCountFor returns the total vertex count of a non-indexed sphere with cols x rows patches.
//
// Parameters:
//   - cols: horizontal segments
//   - rows: vertical segments
//
// Returns:
//   - int: the number of vertices
func VertexCountFor(cols, rows int) int {
	return 2*cols*VerticesPerPole + (rows-2)*cols*VerticesPerQuad
}

// FirstVertexOf returns the offset of the first vertex of the patch at (row, col).
//
// Parameters:
//   - row: patch row
//   - col: patch column
//   - cols: horizontal segments
//   - rows: vertical segments
//
// Returns:
//   - int: the vertex offset
func FirstVertexOf(row, col, cols, rows int) int {
	switch row {
	case 0:
		return col * VerticesPerPole
	case rows - 1:
		return VertexCountFor(cols, rows) - cols*VerticesPerPole + col*VerticesPerPole
	default:
		return cols*VerticesPerPole + (row-1)*cols*VerticesPerQuad + col*VerticesPerQuad
	}
}
