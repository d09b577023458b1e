// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/twisty/pkg/kernel"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// worldExtent bounds regions that are unbounded half-spaces or slabs, such
// as the region behind a single disk generator.
const worldExtent = 1e3

// sdfxRegion wraps an sdf.SDF3 to implement kernel.Region.
type sdfxRegion struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (r *sdfxRegion) BoundingBox() (min, max [3]float64) {
	bb := r.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Distance evaluates the underlying SDF at p.
func (r *sdfxRegion) Distance(p v3.Vec) float64 {
	return r.s.Evaluate(p)
}

// polytope is the convex intersection of half-spaces as an sdf.SDF3. Its
// value is the largest signed plane distance, which is exact on the faces
// and a lower bound elsewhere.
type polytope struct {
	planes []mesh.Plane
	bb     sdf.Box3
}

var _ sdf.SDF3 = (*polytope)(nil)

func (p *polytope) Evaluate(q v3.Vec) float64 {
	d := math.Inf(-1)
	for _, pl := range p.planes {
		d = math.Max(d, pl.Distance(q))
	}
	return d
}

func (p *polytope) BoundingBox() sdf.Box3 {
	return p.bb
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Region.
func unwrap(r kernel.Region) sdf.SDF3 {
	return r.(*sdfxRegion).s
}

// wrap creates a kernel.Region from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Region {
	return &sdfxRegion{s: s}
}

// Polytope returns the convex region behind every plane.
func (k *SdfxKernel) Polytope(planes []mesh.Plane) kernel.Region {
	ps := make([]mesh.Plane, len(planes))
	copy(ps, planes)
	w := v3.Vec{X: worldExtent, Y: worldExtent, Z: worldExtent}
	return wrap(&polytope{
		planes: ps,
		bb:     sdf.Box3{Min: w.Neg(), Max: w},
	})
}

// Union returns the union of two regions.
func (k *SdfxKernel) Union(a, b kernel.Region) kernel.Region {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Region) kernel.Region {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two regions.
func (k *SdfxKernel) Intersection(a, b kernel.Region) kernel.Region {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Triangles converts meshes to the sdfx triangle soup used by the render
// package.
func Triangles(meshes ...*mesh.Mesh) []*sdf.Triangle3 {
	var out []*sdf.Triangle3
	for _, m := range meshes {
		for i := range m.Triangles {
			a, b, c := m.Corners(i)
			out = append(out, &sdf.Triangle3{a, b, c})
		}
	}
	return out
}

// SaveSTL writes meshes as a single binary STL file.
func SaveSTL(path string, meshes ...*mesh.Mesh) error {
	tris := Triangles(meshes...)
	if len(tris) == 0 {
		return fmt.Errorf("sdfx: no triangles to write to %s", path)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("sdfx: save stl: %w", err)
	}
	return nil
}
