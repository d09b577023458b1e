// Package puzzle holds the data model shared by the decomposition engine,
// the post-processor and the persistence layer: fragments, cut generators,
// capture trees and the serialized puzzle description.
package puzzle

import (
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/image/math/f64"
)

// Color is an RGB triple with components in [0, 1].
type Color [3]float64

// Standard cube face colors.
var (
	Blue   = Color{0, 0, 1}
	Green  = Color{0, 1, 0}
	White  = Color{1, 1, 1}
	Yellow = Color{1, 1, 0}
	Orange = Color{1, 0.5, 0}
	Red    = Color{1, 0, 0}
)

// Fragment is a candidate or final piece of the puzzle surface together with
// its rendering attributes. UVs, Normals, TextureNumber, Border and Center
// are filled in by the post-processor.
type Fragment struct {
	Mesh  *mesh.Mesh
	Color Color
	// Alpha is the opacity; 0 marks invisible helper geometry.
	Alpha float64

	UVs           []f64.Vec2
	Normals       []v3.Vec
	TextureNumber int
	// Border is the single outer boundary cycle as vertex indices, or nil
	// when the boundary is not one simple loop.
	Border []int
	Center v3.Vec
}

// NewFragment returns an opaque fragment with no texture plane assigned.
func NewFragment(m *mesh.Mesh, c Color) *Fragment {
	return &Fragment{Mesh: m, Color: c, Alpha: 1, TextureNumber: -1}
}

// Clone returns a deep copy of the fragment.
func (f *Fragment) Clone() *Fragment {
	c := *f
	if f.Mesh != nil {
		c.Mesh = f.Mesh.Clone()
	}
	c.UVs = append([]f64.Vec2(nil), f.UVs...)
	c.Normals = append([]v3.Vec(nil), f.Normals...)
	if f.Border != nil {
		c.Border = append([]int{}, f.Border...)
	}
	return &c
}

// Derive returns a new fragment over m that inherits f's color and alpha.
// Post-processing attributes are not carried over since they describe f's
// geometry.
func (f *Fragment) Derive(m *mesh.Mesh) *Fragment {
	return &Fragment{Mesh: m, Color: f.Color, Alpha: f.Alpha, TextureNumber: -1}
}

// Visible reports whether the fragment is rendered at all.
func (f *Fragment) Visible() bool {
	return f.Alpha > 0
}

// HasBorder reports whether a border loop was extracted.
func (f *Fragment) HasBorder() bool {
	return len(f.Border) > 0
}

// Area returns the fragment's surface area.
func (f *Fragment) Area() float64 {
	if f.Mesh == nil {
		return 0
	}
	return f.Mesh.Area()
}

// RepresentativePoint returns the centroid of the fragment's largest
// triangle. It lies inside convex fragments and is used both for capture
// tests and as the fragment's center.
func (f *Fragment) RepresentativePoint() v3.Vec {
	if f.Mesh.IsEmpty() {
		return v3.Vec{}
	}
	return f.Mesh.TriangleCentroid(f.Mesh.LargestTriangle())
}

// Transform moves the fragment's geometry by the rigid motion t. Normals
// computed earlier are rotated along with it.
func (f *Fragment) Transform(t sdf.M44) {
	f.Mesh = f.Mesh.Transform(t)
	origin := t.MulPosition(v3.Vec{})
	for i, n := range f.Normals {
		f.Normals[i] = t.MulPosition(n).Sub(origin)
	}
	f.Center = t.MulPosition(f.Center)
}
