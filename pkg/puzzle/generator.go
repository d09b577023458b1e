package puzzle

import (
	"math"

	"github.com/chazu/twisty/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Generator is a bounded cutting surface paired with the rotation it
// performs on the fragments it captures. Its triangles bound a convex
// region; a fragment is captured when it lies behind every supporting plane.
//
// A Generator never owns fragments. Its geometry and rotation are fixed at
// construction; only PickPoint and CaptureTree are set afterwards while a
// puzzle is being authored.
type Generator struct {
	Mesh   *mesh.Mesh
	Center v3.Vec
	Axis   v3.Vec
	Angle  float64

	// PickPoint is a UI hint with no algorithmic weight.
	PickPoint *v3.Vec
	// Capture count bounds for policy-level checks; 0 means unset.
	MinCaptureCount int
	MaxCaptureCount int
	// CaptureTree replaces the generator's own region for capture tests
	// when set. Cutting always uses Mesh.
	CaptureTree *CaptureNode

	planes []mesh.Plane
}

// NewGenerator builds a generator over m rotating by angle radians about
// axis through center. The plane list is derived here, once.
func NewGenerator(m *mesh.Mesh, center, axis v3.Vec, angle float64) *Generator {
	return &Generator{
		Mesh:   m,
		Center: center,
		Axis:   axis,
		Angle:  angle,
		planes: m.Planes(mesh.Eps),
	}
}

// Planes returns the generator's supporting planes. Normals point away from
// the captured side.
func (g *Generator) Planes() []mesh.Plane {
	return g.planes
}

// Side classifies p against the generator's own convex region: SideBack
// inside, SideFront outside. The capture tree is not consulted.
func (g *Generator) Side(p v3.Vec, eps float64) mesh.Side {
	d := math.Inf(-1)
	for _, pl := range g.planes {
		d = math.Max(d, pl.Distance(p))
	}
	switch {
	case d < -eps:
		return mesh.SideBack
	case d > eps:
		return mesh.SideFront
	default:
		return mesh.SideOn
	}
}

// RotationOrder returns the smallest n > 0 with n*Angle a whole turn, or 0
// if the angle does not divide a full rotation.
func (g *Generator) RotationOrder() int {
	a := math.Abs(g.Angle)
	if a < 1e-12 {
		return 0
	}
	n := math.Round(2 * math.Pi / a)
	if n < 1 || math.Abs(n*a-2*math.Pi) > 1e-9 {
		return 0
	}
	return int(n)
}
