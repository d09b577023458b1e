package postprocess

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/kernel/sdfx"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/image/math/f64"
)

// square returns a fragment covering a square of side 2 centered on
// center, lying in the plane with the given normal and rotated in-plane
// by theta.
func square(center, normal v3.Vec, theta float64) *puzzle.Fragment {
	n := normal.Normalize()
	u := mesh.Perpendicular(n)
	w := n.Cross(u)
	corner := func(a, b float64) v3.Vec {
		c, s := math.Cos(theta), math.Sin(theta)
		x, y := a*c-b*s, a*s+b*c
		return center.Add(u.MulScalar(x)).Add(w.MulScalar(y))
	}
	q := mesh.Quad(corner(-1, -1), corner(1, -1), corner(1, 1), corner(-1, 1))
	return puzzle.NewFragment(q, puzzle.White)
}

func uvBounds(uvs []f64.Vec2) (low, high f64.Vec2) {
	low = f64.Vec2{math.Inf(1), math.Inf(1)}
	high = f64.Vec2{math.Inf(-1), math.Inf(-1)}
	for _, p := range uvs {
		for k := 0; k < 2; k++ {
			low[k] = math.Min(low[k], p[k])
			high[k] = math.Max(high[k], p[k])
		}
	}
	return low, high
}

func sub(a, b f64.Vec2) f64.Vec2 { return f64.Vec2{a[0] - b[0], a[1] - b[1]} }
func dot(a, b f64.Vec2) float64  { return a[0]*b[0] + a[1]*b[1] }

// --- UV tests ---

func TestUVAspectPreservation(t *testing.T) {
	normals := []v3.Vec{{Z: 1}, {X: 1, Y: 2, Z: 3}, {X: -1}, {Y: -1, Z: 0.5}}
	angles := []float64{0, 0.3, math.Pi / 4, 1, 2.5}
	const tol = 1e-9
	for _, n := range normals {
		for _, theta := range angles {
			f := square(v3.Vec{X: 0.2, Y: -0.4, Z: 0.7}, n, theta)
			if got := AssignUVs([]*puzzle.Fragment{f}); got != 1 {
				t.Fatalf("AssignUVs() = %d planes, want 1", got)
			}
			low, high := uvBounds(f.UVs)
			if math.Abs(low[0]) > tol || math.Abs(low[1]) > tol ||
				math.Abs(high[0]-1) > tol || math.Abs(high[1]-1) > tol {
				t.Errorf("normal %v theta %f: uv bounds [%v, %v], want [0,1]^2", n, theta, low, high)
			}
			e1 := sub(f.UVs[1], f.UVs[0])
			e2 := sub(f.UVs[3], f.UVs[0])
			if math.Abs(dot(e1, e2)) > tol {
				t.Errorf("normal %v theta %f: uv edges sheared (dot %g)", n, theta, dot(e1, e2))
			}
			if math.Abs(dot(e1, e1)-dot(e2, e2)) > tol {
				t.Errorf("normal %v theta %f: uv edges differ in length", n, theta)
			}
		}
	}
}

func TestUVFrameIsNotMirrored(t *testing.T) {
	f := square(v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1}, 0.4)
	AssignUVs([]*puzzle.Fragment{f})
	e1 := sub(f.UVs[1], f.UVs[0])
	e2 := sub(f.UVs[2], f.UVs[0])
	// The quad is counter-clockwise seen from its normal, and must stay
	// counter-clockwise in texture space.
	if cross := e1[0]*e2[1] - e1[1]*e2[0]; cross <= 0 {
		t.Errorf("uv winding flipped (cross %g)", cross)
	}
}

func TestUVRectangleExpandsShortAxis(t *testing.T) {
	q := mesh.Quad(v3.Vec{}, v3.Vec{X: 4}, v3.Vec{X: 4, Y: 1}, v3.Vec{Y: 1})
	f := puzzle.NewFragment(q, puzzle.Red)
	AssignUVs([]*puzzle.Fragment{f})
	low, high := uvBounds(f.UVs)
	long := math.Max(high[0]-low[0], high[1]-low[1])
	short := math.Min(high[0]-low[0], high[1]-low[1])
	if math.Abs(long-1) > 1e-9 || math.Abs(short-0.25) > 1e-9 {
		t.Errorf("uv extents = %f x %f, want 1 x 0.25", long, short)
	}
	for k := 0; k < 2; k++ {
		if high[k]-low[k] < 0.5 && math.Abs((low[k]+high[k])/2-0.5) > 1e-9 {
			t.Errorf("short axis not centered: [%f, %f]", low[k], high[k])
		}
	}
}

func TestTexturePlaneGrouping(t *testing.T) {
	tests := []struct {
		name   string
		frags  func() []*puzzle.Fragment
		planes int
		want   []int
	}{
		{
			name: "coplanar squares share a plane",
			frags: func() []*puzzle.Fragment {
				return []*puzzle.Fragment{
					square(v3.Vec{Z: 1}, v3.Vec{Z: 1}, 0),
					square(v3.Vec{X: 5, Z: 1}, v3.Vec{Z: 1}, 0),
				}
			},
			planes: 1,
			want:   []int{0, 0},
		},
		{
			name: "opposite facing squares do not",
			frags: func() []*puzzle.Fragment {
				return []*puzzle.Fragment{
					square(v3.Vec{Z: 1}, v3.Vec{Z: 1}, 0),
					square(v3.Vec{Z: -1}, v3.Vec{Z: -1}, 0),
				}
			},
			planes: 2,
			want:   []int{0, 1},
		},
		{
			name: "stacked layers split, outer first",
			frags: func() []*puzzle.Fragment {
				return []*puzzle.Fragment{
					square(v3.Vec{Z: 0.5}, v3.Vec{Z: 1}, 0),
					square(v3.Vec{Z: 1}, v3.Vec{Z: 1}, 0),
				}
			},
			planes: 2,
			want:   []int{1, 0},
		},
		{
			name: "layers without overlap share a plane",
			frags: func() []*puzzle.Fragment {
				return []*puzzle.Fragment{
					square(v3.Vec{Z: 0.5}, v3.Vec{Z: 1}, 0),
					square(v3.Vec{X: 2, Z: 1}, v3.Vec{Z: 1}, 0),
				}
			},
			planes: 1,
			want:   []int{0, 0},
		},
		{
			name: "invisible fragments are skipped",
			frags: func() []*puzzle.Fragment {
				hidden := square(v3.Vec{Z: 1}, v3.Vec{Z: 1}, 0)
				hidden.Alpha = 0
				return []*puzzle.Fragment{hidden, square(v3.Vec{X: 3, Z: 1}, v3.Vec{Z: 1}, 0)}
			},
			planes: 1,
			want:   []int{-1, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags := tt.frags()
			if got := AssignUVs(frags); got != tt.planes {
				t.Errorf("AssignUVs() = %d planes, want %d", got, tt.planes)
			}
			for i, f := range frags {
				if f.TextureNumber != tt.want[i] {
					t.Errorf("fragment %d texture = %d, want %d", i, f.TextureNumber, tt.want[i])
				}
				if (f.TextureNumber < 0) != (f.UVs == nil) {
					t.Errorf("fragment %d: texture %d with %d uvs", i, f.TextureNumber, len(f.UVs))
				}
			}
		})
	}
}

func TestTrianglesOverlap(t *testing.T) {
	base := [3]f64.Vec2{{0, 0}, {1, 0}, {0, 1}}
	tests := []struct {
		name  string
		other [3]f64.Vec2
		want  bool
	}{
		{"same", base, true},
		{"shared edge", [3]f64.Vec2{{1, 0}, {1, 1}, {0, 1}}, false},
		{"shared vertex", [3]f64.Vec2{{1, 0}, {2, 0}, {2, 1}}, false},
		{"far", [3]f64.Vec2{{5, 5}, {6, 5}, {5, 6}}, false},
		{"inside", [3]f64.Vec2{{0.1, 0.1}, {0.2, 0.1}, {0.1, 0.2}}, true},
		{"crossing", [3]f64.Vec2{{0.2, -0.5}, {0.3, 2}, {0.25, 2}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trianglesOverlap(base, tt.other); got != tt.want {
				t.Errorf("trianglesOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Normal and border tests ---

func TestNormalsFlat(t *testing.T) {
	f := square(v3.Vec{}, v3.Vec{X: 1, Y: -1}, 0.2)
	want := v3.Vec{X: 1, Y: -1}.Normalize()
	for i, n := range Normals(f.Mesh) {
		if !mesh.Near(n, want, 1e-12) {
			t.Errorf("normal %d = %v, want %v", i, n, want)
		}
	}
}

func TestNormalsSphere(t *testing.T) {
	m := mesh.Sphere(v3.Vec{X: 1}, 2, 2)
	for i, n := range Normals(m) {
		radial := m.Vertices[i].Sub(v3.Vec{X: 1}).Normalize()
		if n.Dot(radial) < 0.99 {
			t.Errorf("normal %d = %v, radial %v", i, n, radial)
		}
	}
}

func TestNormalsUnusedVertex(t *testing.T) {
	m := mesh.Quad(v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1})
	m.AddVertex(v3.Vec{Z: 5})
	n := Normals(m)
	if n[4] != (v3.Vec{}) {
		t.Errorf("unused vertex normal = %v, want zero", n[4])
	}
}

func TestBorder(t *testing.T) {
	open := puzzle.NewFragment(mesh.Quad(v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}), puzzle.Red)
	closed := puzzle.NewFragment(mesh.Polyhedron(mesh.Hexahedron), puzzle.Red)
	if got := Border(open); len(got) != 4 {
		t.Errorf("Border(quad) = %v, want 4 vertices", got)
	}
	if got := Border(closed); got != nil {
		t.Errorf("Border(cube) = %v, want nil", got)
	}
}

// --- Pipeline test ---

func TestRunOnCubeStickers(t *testing.T) {
	axes := []v3.Vec{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}, {Z: -1}, {Z: 1}}
	var gens []*puzzle.Generator
	for _, a := range axes {
		gens = append(gens, puzzle.NewGenerator(mesh.Disk(a.MulScalar(1.0/3), a.Neg(), 4, 4), v3.Vec{}, a, math.Pi/2))
	}
	res, err := decompose.New(sdfx.New()).Run(&decompose.Scheduled{Generators: gens})
	if err != nil {
		t.Fatal(err)
	}

	planes, err := Run(res.Fragments, Options{Workers: 4})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if planes != 6 {
		t.Errorf("Run() = %d texture planes, want 6", planes)
	}
	counts := map[int]int{}
	for i, f := range res.Fragments {
		counts[f.TextureNumber]++
		if len(f.UVs) != f.Mesh.VertexCount() || len(f.Normals) != f.Mesh.VertexCount() {
			t.Errorf("fragment %d attribute lengths: %d uvs, %d normals, %d vertices",
				i, len(f.UVs), len(f.Normals), f.Mesh.VertexCount())
		}
		if !f.HasBorder() {
			t.Errorf("fragment %d has no border loop", i)
		}
		for _, uv := range f.UVs {
			if uv[0] < -1e-9 || uv[0] > 1+1e-9 || uv[1] < -1e-9 || uv[1] > 1+1e-9 {
				t.Errorf("fragment %d uv %v outside [0,1]", i, uv)
			}
		}
	}
	for tex, n := range counts {
		if n != 9 {
			t.Errorf("texture plane %d has %d stickers, want 9", tex, n)
		}
	}
}

func TestRunRejectsMissingMesh(t *testing.T) {
	frags := []*puzzle.Fragment{
		puzzle.NewFragment(mesh.Quad(v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}), puzzle.Red),
		{TextureNumber: -1},
	}
	_, err := Run(frags, Options{Workers: 2})
	if !errors.Is(err, ErrNoMesh) {
		t.Fatalf("Run() error = %v, want ErrNoMesh", err)
	}
	if !strings.Contains(err.Error(), "fragment 1") {
		t.Errorf("error %q does not name the fragment", err)
	}
}
