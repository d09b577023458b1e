package postprocess

import (
	"cmp"
	"math"
	"slices"

	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
	"golang.org/x/image/math/f64"
)

const (
	// parallelTol is the minimum normal dot product for two fragments to
	// share a texture plane.
	parallelTol = 1 - 1e-6
	// depthTol is the largest depth difference still counted as coplanar.
	depthTol = 1e-6
	// overlapTol is the separation below which projected triangles are
	// considered to touch rather than overlap.
	overlapTol = 1e-9
)

// texturePlane is a group of parallel fragments sharing one UV frame. The
// frame's x and y axes and the plane normal form a right-handed basis.
type texturePlane struct {
	normal v3.Vec
	depth  float64
	x, y   v3.Vec

	members []*puzzle.Fragment
	tris    [][3]f64.Vec2
}

type candidate struct {
	frag  *puzzle.Fragment
	plane mesh.Plane
	depth float64
}

// AssignUVs groups the visible fragments into texture planes and writes
// per-vertex UVs in [0,1]x[0,1] for each. Fragments are processed from the
// farthest plane inward, so an outer layer defines the frame for the layers
// beneath it. Invisible fragments, and fragments without a well-defined
// facing, keep TextureNumber -1 and no UVs. It returns the number of
// texture planes.
func AssignUVs(frags []*puzzle.Fragment) int {
	for _, f := range frags {
		f.UVs = nil
		f.TextureNumber = -1
	}

	visible := lo.Filter(frags, func(f *puzzle.Fragment, _ int) bool {
		return f.Mesh != nil && f.Visible() && !f.Mesh.IsEmpty()
	})
	var cands []candidate
	for _, f := range visible {
		p, ok := fragmentPlane(f.Mesh)
		if !ok {
			continue
		}
		cands = append(cands, candidate{frag: f, plane: p, depth: p.Offset()})
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(b.depth, a.depth)
	})

	var planes []*texturePlane
	for _, c := range cands {
		tp := findPlane(planes, c)
		if tp == nil {
			tp = newTexturePlane(c)
			planes = append(planes, tp)
		}
		tp.add(c.frag)
		c.frag.TextureNumber = slices.Index(planes, tp)
	}
	for _, tp := range planes {
		tp.assign()
	}
	return len(planes)
}

// fragmentPlane fits a least-squares plane to the fragment's vertices and
// orients its normal with the fragment's area-weighted facing.
func fragmentPlane(m *mesh.Mesh) (mesh.Plane, bool) {
	p, err := mesh.FitPlane(m.Vertices)
	if err != nil {
		return mesh.Plane{}, false
	}
	var facing v3.Vec
	for i := range m.Triangles {
		facing = facing.Add(m.TriangleNormal(i).MulScalar(m.TriangleArea(i)))
	}
	if facing.Length() < 1e-12 {
		return mesh.Plane{}, false
	}
	if p.Normal.Dot(facing) < 0 {
		p.Normal = p.Normal.Neg()
	}
	return p, true
}

// findPlane returns the texture plane c can join: a parallel plane at the
// same depth, or at another depth when c does not overlap any of its
// members in projection.
func findPlane(planes []*texturePlane, c candidate) *texturePlane {
	for _, tp := range planes {
		if tp.normal.Dot(c.plane.Normal) < parallelTol {
			continue
		}
		if math.Abs(tp.depth-c.depth) <= depthTol {
			return tp
		}
		if !tp.overlaps(tp.project(c.frag.Mesh)) {
			return tp
		}
	}
	return nil
}

func newTexturePlane(c candidate) *texturePlane {
	n := c.plane.Normal
	x := mesh.Perpendicular(n)
	return &texturePlane{
		normal: n,
		depth:  c.depth,
		x:      x,
		y:      n.Cross(x),
	}
}

func (tp *texturePlane) uv(v v3.Vec) f64.Vec2 {
	return f64.Vec2{v.Dot(tp.x), v.Dot(tp.y)}
}

// project maps every triangle of m into the plane's frame.
func (tp *texturePlane) project(m *mesh.Mesh) [][3]f64.Vec2 {
	out := make([][3]f64.Vec2, len(m.Triangles))
	for i := range m.Triangles {
		a, b, c := m.Corners(i)
		out[i] = [3]f64.Vec2{tp.uv(a), tp.uv(b), tp.uv(c)}
	}
	return out
}

func (tp *texturePlane) add(f *puzzle.Fragment) {
	tp.members = append(tp.members, f)
	tp.tris = append(tp.tris, tp.project(f.Mesh)...)
}

func (tp *texturePlane) overlaps(tris [][3]f64.Vec2) bool {
	for _, a := range tris {
		for _, b := range tp.tris {
			if trianglesOverlap(a, b) {
				return true
			}
		}
	}
	return false
}

// assign writes normalized UVs for every member. The shorter side of the
// group's bounding box is expanded about its middle so the texture is not
// stretched.
func (tp *texturePlane) assign() {
	low := f64.Vec2{math.Inf(1), math.Inf(1)}
	high := f64.Vec2{math.Inf(-1), math.Inf(-1)}
	for _, f := range tp.members {
		for _, v := range f.Mesh.Vertices {
			p := tp.uv(v)
			for k := 0; k < 2; k++ {
				low[k] = math.Min(low[k], p[k])
				high[k] = math.Max(high[k], p[k])
			}
		}
	}
	du, dv := high[0]-low[0], high[1]-low[1]
	size := math.Max(du, dv)
	if size < 1e-12 {
		size = 1
	}
	low[0] -= (size - du) / 2
	low[1] -= (size - dv) / 2

	for _, f := range tp.members {
		f.UVs = make([]f64.Vec2, len(f.Mesh.Vertices))
		for i, v := range f.Mesh.Vertices {
			p := tp.uv(v)
			f.UVs[i] = f64.Vec2{(p[0] - low[0]) / size, (p[1] - low[1]) / size}
		}
	}
}

// trianglesOverlap reports whether two 2D triangles share interior area,
// by the separating axis test over both triangles' edge normals. Triangles
// that only touch along an edge or at a vertex do not overlap.
func trianglesOverlap(a, b [3]f64.Vec2) bool {
	for _, tri := range [2][3]f64.Vec2{a, b} {
		for k := 0; k < 3; k++ {
			p, q := tri[k], tri[(k+1)%3]
			axis := f64.Vec2{q[1] - p[1], p[0] - q[0]}
			if l := math.Hypot(axis[0], axis[1]); l > 0 {
				axis = f64.Vec2{axis[0] / l, axis[1] / l}
			}
			aLo, aHi := projectTriangle(a, axis)
			bLo, bHi := projectTriangle(b, axis)
			if aHi <= bLo+overlapTol || bHi <= aLo+overlapTol {
				return false
			}
		}
	}
	return true
}

func projectTriangle(t [3]f64.Vec2, axis f64.Vec2) (low, high float64) {
	low, high = math.Inf(1), math.Inf(-1)
	for _, p := range t {
		d := p[0]*axis[0] + p[1]*axis[1]
		low = math.Min(low, d)
		high = math.Max(high, d)
	}
	return low, high
}
