package postprocess

import (
	"github.com/chazu/twisty/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Normals generates per-vertex normals by averaging the face normals of all
// triangles incident on each vertex, weighted by triangle area. Vertices
// used by no non-degenerate triangle get a zero normal.
func Normals(m *mesh.Mesh) []v3.Vec {
	normals := make([]v3.Vec, len(m.Vertices))
	for t, tri := range m.Triangles {
		a, b, c := m.Corners(t)
		// The unnormalized cross product is already weighted by area.
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range tri {
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i, n := range normals {
		if l := n.Length(); l > 1e-12 {
			normals[i] = n.DivScalar(l)
		} else {
			normals[i] = v3.Vec{}
		}
	}
	return normals
}
