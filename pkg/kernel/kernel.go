// Package kernel defines the abstract geometry kernel used to resolve
// capture regions. A capture region is the volume a generator's rotation
// moves: a single convex polytope bounded by the generator's planes, or a
// boolean combination of several of them. Implementations (sdfx) provide
// the boolean operations behind this interface so the rest of the system
// only ever asks a Region which side of it a point lies on.
package kernel

import (
	"github.com/chazu/twisty/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Region is an opaque handle to a kernel solid used for capture tests.
// Implementations wrap their internal representation.
type Region interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Distance returns a signed distance bound for p: negative inside the
	// region, positive outside, near zero on its surface.
	Distance(p v3.Vec) float64
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives

	// Polytope returns the convex region behind every plane. Plane normals
	// point out of the region.
	Polytope(planes []mesh.Plane) Region

	// Boolean operations
	Union(a, b Region) Region
	Difference(a, b Region) Region
	Intersection(a, b Region) Region
}

// Classify reports which side of r the point p lies on: SideBack inside,
// SideFront outside, SideOn within eps of the surface.
func Classify(r Region, p v3.Vec, eps float64) mesh.Side {
	d := r.Distance(p)
	switch {
	case d < -eps:
		return mesh.SideBack
	case d > eps:
		return mesh.SideFront
	default:
		return mesh.SideOn
	}
}
