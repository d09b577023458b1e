package puzzle

import (
	"fmt"

	"github.com/chazu/twisty/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// MeshData is the wire form of a triangle mesh. All arrays are flat:
// vertices has 3 floats per vertex (x,y,z), triangles has 3 indices per
// triangle.
type MeshData struct {
	Vertices  []float64 `json:"vertices"`  // [x0,y0,z0, x1,y1,z1, ...]
	Triangles []int     `json:"triangles"` // [i0,i1,i2, ...]
}

// NewMeshData flattens m.
func NewMeshData(m *mesh.Mesh) MeshData {
	d := MeshData{
		Vertices:  make([]float64, 0, 3*len(m.Vertices)),
		Triangles: make([]int, 0, 3*len(m.Triangles)),
	}
	for _, v := range m.Vertices {
		d.Vertices = append(d.Vertices, v.X, v.Y, v.Z)
	}
	for _, t := range m.Triangles {
		d.Triangles = append(d.Triangles, t[0], t[1], t[2])
	}
	return d
}

// VertexCount returns the number of vertices.
func (d MeshData) VertexCount() int {
	return len(d.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (d MeshData) TriangleCount() int {
	return len(d.Triangles) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (d MeshData) IsEmpty() bool {
	return len(d.Vertices) == 0
}

// Mesh rebuilds the indexed mesh, checking array lengths and index bounds.
func (d MeshData) Mesh() (*mesh.Mesh, error) {
	if len(d.Vertices)%3 != 0 {
		return nil, fmt.Errorf("puzzle: vertex array length %d is not a multiple of 3", len(d.Vertices))
	}
	if len(d.Triangles)%3 != 0 {
		return nil, fmt.Errorf("puzzle: triangle array length %d is not a multiple of 3", len(d.Triangles))
	}
	m := &mesh.Mesh{
		Vertices:  make([]v3.Vec, d.VertexCount()),
		Triangles: make([]mesh.Triangle, d.TriangleCount()),
	}
	for i := range m.Vertices {
		m.Vertices[i] = v3.Vec{X: d.Vertices[3*i], Y: d.Vertices[3*i+1], Z: d.Vertices[3*i+2]}
	}
	for i := range m.Triangles {
		for k := 0; k < 3; k++ {
			idx := d.Triangles[3*i+k]
			if idx < 0 || idx >= len(m.Vertices) {
				return nil, fmt.Errorf("puzzle: triangle %d references vertex %d of %d", i, idx, len(m.Vertices))
			}
			m.Triangles[i][k] = idx
		}
	}
	return m, nil
}

// Vec3 is the wire form of a vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ToVec3 converts an sdfx vector to its wire form.
func ToVec3(v v3.Vec) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Vec returns the sdfx vector.
func (v Vec3) Vec() v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}
