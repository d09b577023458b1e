// Package mesh is the geometric primitive layer: an indexed triangle mesh
// with the plane splitting, welding and construction operations the
// decomposition engine is built on. Vectors and affine transforms come from
// github.com/deadsy/sdfx so the mesh interoperates with the sdfx kernel.
package mesh

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Eps is the default tolerance used when classifying points against planes.
const Eps = 1e-7

// Triangle holds three vertex indices in counter-clockwise order when seen
// from the side the triangle faces.
type Triangle [3]int

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices  []v3.Vec
	Triangles []Triangle
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Triangles) == 0
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices:  make([]v3.Vec, len(m.Vertices)),
		Triangles: make([]Triangle, len(m.Triangles)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Triangles, m.Triangles)
	return c
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(v v3.Vec) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

// AddTriangle appends a triangle over three new vertices.
func (m *Mesh) AddTriangle(a, b, c v3.Vec) {
	i := m.AddVertex(a)
	j := m.AddVertex(b)
	k := m.AddVertex(c)
	m.Triangles = append(m.Triangles, Triangle{i, j, k})
}

// Corners returns the three vertex positions of triangle i.
func (m *Mesh) Corners(i int) (a, b, c v3.Vec) {
	t := m.Triangles[i]
	return m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
}

// triangleCross returns the unnormalized normal of triangle i. Its length is
// twice the triangle's area.
func (m *Mesh) triangleCross(i int) v3.Vec {
	a, b, c := m.Corners(i)
	return b.Sub(a).Cross(c.Sub(a))
}

// TriangleArea returns the area of triangle i.
func (m *Mesh) TriangleArea(i int) float64 {
	return m.triangleCross(i).Length() / 2
}

// TriangleNormal returns the unit normal of triangle i, or the zero vector
// for a degenerate triangle.
func (m *Mesh) TriangleNormal(i int) v3.Vec {
	n := m.triangleCross(i)
	l := n.Length()
	if l < 1e-15 {
		return v3.Vec{}
	}
	return n.DivScalar(l)
}

// TriangleCentroid returns the centroid of triangle i.
func (m *Mesh) TriangleCentroid(i int) v3.Vec {
	a, b, c := m.Corners(i)
	return a.Add(b).Add(c).DivScalar(3)
}

// Area returns the total surface area of the mesh.
func (m *Mesh) Area() float64 {
	var area float64
	for i := range m.Triangles {
		area += m.TriangleArea(i)
	}
	return area
}

// LargestTriangle returns the index of the triangle with the largest area,
// or -1 for an empty mesh.
func (m *Mesh) LargestTriangle() int {
	best, bestArea := -1, -1.0
	for i := range m.Triangles {
		if a := m.TriangleArea(i); a > bestArea {
			best, bestArea = i, a
		}
	}
	return best
}

// BoundingBox returns the axis-aligned bounding box of the vertices.
func (m *Mesh) BoundingBox() sdf.Box3 {
	if len(m.Vertices) == 0 {
		return sdf.Box3{}
	}
	lo := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range m.Vertices {
		lo = v3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = v3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return sdf.Box3{Min: lo, Max: hi}
}

// Transform returns a copy of the mesh with every vertex mapped through the
// affine transform t. Triangle winding is preserved, so t must not mirror.
func (m *Mesh) Transform(t sdf.M44) *Mesh {
	c := m.Clone()
	for i, v := range c.Vertices {
		c.Vertices[i] = t.MulPosition(v)
	}
	return c
}

// Merge concatenates meshes into one. Vertices are not welded.
func Merge(meshes ...*Mesh) *Mesh {
	out := New()
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, t := range m.Triangles {
			out.Triangles = append(out.Triangles, Triangle{t[0] + base, t[1] + base, t[2] + base})
		}
	}
	return out
}

// RotationAbout returns the rigid motion rotating by angle radians around
// axis through center, following the right hand rule.
func RotationAbout(center, axis v3.Vec, angle float64) sdf.M44 {
	return sdf.Translate3d(center).
		Mul(sdf.Rotate3d(axis.Normalize(), angle)).
		Mul(sdf.Translate3d(center.Neg()))
}

// Near reports whether a and b are within tol of each other.
func Near(a, b v3.Vec, tol float64) bool {
	return a.Sub(b).Length() <= tol
}
