package mesh

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PolyhedronKind selects one of the built-in convex solids.
type PolyhedronKind int

const (
	Tetrahedron PolyhedronKind = iota
	Hexahedron
	Octahedron
	Icosahedron
)

func (k PolyhedronKind) String() string {
	switch k {
	case Tetrahedron:
		return "tetrahedron"
	case Hexahedron:
		return "hexahedron"
	case Octahedron:
		return "octahedron"
	case Icosahedron:
		return "icosahedron"
	default:
		return fmt.Sprintf("PolyhedronKind(%d)", int(k))
	}
}

// ParsePolyhedronKind maps a name such as "cube" or "icosahedron" to a kind.
func ParsePolyhedronKind(name string) (PolyhedronKind, error) {
	switch name {
	case "tetrahedron":
		return Tetrahedron, nil
	case "hexahedron", "cube":
		return Hexahedron, nil
	case "octahedron":
		return Octahedron, nil
	case "icosahedron":
		return Icosahedron, nil
	}
	return 0, fmt.Errorf("mesh: unknown polyhedron %q", name)
}

// Quad returns a two-triangle mesh over the corners a, b, c, d given in
// counter-clockwise order.
func Quad(a, b, c, d v3.Vec) *Mesh {
	return &Mesh{
		Vertices:  []v3.Vec{a, b, c, d},
		Triangles: []Triangle{{0, 1, 2}, {0, 2, 3}},
	}
}

// Disk returns a flat regular polygon of the given number of sides around
// center, facing along normal. As a cut surface its back side is the side
// opposite the normal.
func Disk(center, normal v3.Vec, radius float64, sides int) *Mesh {
	if sides < 3 {
		sides = 3
	}
	n := normal.Normalize()
	u := Perpendicular(n)
	w := n.Cross(u)

	m := New()
	m.AddVertex(center)
	for i := 0; i < sides; i++ {
		theta := 2 * math.Pi * float64(i) / float64(sides)
		p := center.
			Add(u.MulScalar(radius * math.Cos(theta))).
			Add(w.MulScalar(radius * math.Sin(theta)))
		m.AddVertex(p)
	}
	for i := 0; i < sides; i++ {
		m.Triangles = append(m.Triangles, Triangle{0, 1 + i, 1 + (i+1)%sides})
	}
	return m
}

// Polyhedron returns the closed convex solid of the given kind centered on
// the origin with outward-facing triangles. The hexahedron spans [-1, 1] on
// every axis; the other solids use their canonical integer or golden-ratio
// coordinates.
func Polyhedron(kind PolyhedronKind) *Mesh {
	switch kind {
	case Hexahedron:
		return cube()
	case Tetrahedron:
		return hullByEdgeLength([]v3.Vec{
			{X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: -1},
			{X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1},
		}, 2*math.Sqrt2)
	case Octahedron:
		return hullByEdgeLength([]v3.Vec{
			{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
		}, math.Sqrt2)
	case Icosahedron:
		phi := (1 + math.Sqrt(5)) / 2
		var pts []v3.Vec
		for _, a := range []float64{-1, 1} {
			for _, b := range []float64{-phi, phi} {
				pts = append(pts,
					v3.Vec{X: 0, Y: a, Z: b},
					v3.Vec{X: a, Y: b, Z: 0},
					v3.Vec{X: b, Y: 0, Z: a},
				)
			}
		}
		return hullByEdgeLength(pts, 2)
	}
	panic(fmt.Sprintf("mesh: unsupported polyhedron kind %v", kind))
}

func cube() *Mesh {
	m := New()
	quads := [6][4]v3.Vec{
		{{X: -1, Y: -1, Z: -1}, {X: -1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: -1}},
		{{X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: 1}},
		{{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: 1}, {X: -1, Y: -1, Z: 1}},
		{{X: -1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: -1}},
		{{X: -1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: -1, Z: -1}},
		{{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1}},
	}
	for _, q := range quads {
		m = Merge(m, Quad(q[0], q[1], q[2], q[3]))
	}
	return m.Weld(Eps)
}

// hullByEdgeLength builds the triangular faces of a regular deltahedron
// (every face an equilateral triangle of side edge) from its vertices, and
// orients each face outward from the origin.
func hullByEdgeLength(pts []v3.Vec, edge float64) *Mesh {
	const tol = 1e-9
	isEdge := func(a, b v3.Vec) bool {
		return math.Abs(a.Sub(b).Length()-edge) < tol
	}
	m := &Mesh{Vertices: pts}
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if !isEdge(pts[i], pts[j]) {
				continue
			}
			for k := j + 1; k < len(pts); k++ {
				if !isEdge(pts[i], pts[k]) || !isEdge(pts[j], pts[k]) {
					continue
				}
				t := Triangle{i, j, k}
				n := pts[j].Sub(pts[i]).Cross(pts[k].Sub(pts[i]))
				if n.Dot(pts[i]) < 0 {
					t = Triangle{i, k, j}
				}
				m.Triangles = append(m.Triangles, t)
			}
		}
	}
	return m
}

// Sphere returns a geodesic sphere: an icosahedron subdivided the given
// number of times with every vertex pushed onto the sphere.
func Sphere(center v3.Vec, radius float64, subdivisions int) *Mesh {
	m := Polyhedron(Icosahedron)
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Normalize()
	}
	for s := 0; s < subdivisions; s++ {
		mid := make(map[edgeKey]int)
		midpoint := func(a, b int) int {
			key := makeEdgeKey(a, b)
			if idx, ok := mid[key]; ok {
				return idx
			}
			p := m.Vertices[a].Add(m.Vertices[b]).Normalize()
			idx := m.AddVertex(p)
			mid[key] = idx
			return idx
		}
		tris := make([]Triangle, 0, 4*len(m.Triangles))
		for _, t := range m.Triangles {
			ab := midpoint(t[0], t[1])
			bc := midpoint(t[1], t[2])
			ca := midpoint(t[2], t[0])
			tris = append(tris,
				Triangle{t[0], ab, ca},
				Triangle{t[1], bc, ab},
				Triangle{t[2], ca, bc},
				Triangle{ab, bc, ca},
			)
		}
		m.Triangles = tris
	}
	for i, v := range m.Vertices {
		m.Vertices[i] = center.Add(v.MulScalar(radius))
	}
	return m
}
