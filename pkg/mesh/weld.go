package mesh

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

type cell [3]int64

func cellOf(v v3.Vec, size float64) cell {
	return cell{
		int64(math.Floor(v.X / size)),
		int64(math.Floor(v.Y / size)),
		int64(math.Floor(v.Z / size)),
	}
}

// Weld returns a copy of the mesh in which vertices closer than eps are
// merged and triangles that collapse as a result are dropped. Vertex order
// follows first use so the output is deterministic.
func (m *Mesh) Weld(eps float64) *Mesh {
	if eps <= 0 {
		eps = Eps
	}
	out := New()
	grid := make(map[cell][]int)
	remap := make([]int, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}

	lookup := func(v v3.Vec) int {
		c := cellOf(v, eps)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, j := range grid[cell{c[0] + dx, c[1] + dy, c[2] + dz}] {
						if Near(out.Vertices[j], v, eps) {
							return j
						}
					}
				}
			}
		}
		j := out.AddVertex(v)
		grid[c] = append(grid[c], j)
		return j
	}

	for _, t := range m.Triangles {
		var nt Triangle
		for k, idx := range t {
			if remap[idx] < 0 {
				remap[idx] = lookup(m.Vertices[idx])
			}
			nt[k] = remap[idx]
		}
		if nt[0] == nt[1] || nt[1] == nt[2] || nt[2] == nt[0] {
			continue
		}
		out.Triangles = append(out.Triangles, nt)
	}
	return out
}
