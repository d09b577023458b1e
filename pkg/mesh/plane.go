package mesh

import (
	"errors"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"
)

// Side classifies a point relative to a plane.
type Side int

const (
	SideOn    Side = iota // within tolerance of the plane
	SideBack              // behind the plane (negative distance)
	SideFront             // in front of the plane (positive distance)
)

func (s Side) String() string {
	switch s {
	case SideOn:
		return "on"
	case SideBack:
		return "back"
	case SideFront:
		return "front"
	default:
		return "unknown"
	}
}

// Plane is an oriented plane through Center with unit normal Normal.
type Plane struct {
	Center v3.Vec
	Normal v3.Vec
}

// NewPlane returns the plane through center with the given normal,
// normalizing the normal.
func NewPlane(center, normal v3.Vec) Plane {
	return Plane{Center: center, Normal: normal.Normalize()}
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(q v3.Vec) float64 {
	return q.Sub(p.Center).Dot(p.Normal)
}

// Side classifies q against the plane with tolerance eps.
func (p Plane) Side(q v3.Vec, eps float64) Side {
	d := p.Distance(q)
	switch {
	case d < -eps:
		return SideBack
	case d > eps:
		return SideFront
	default:
		return SideOn
	}
}

// Offset returns the signed distance of the plane from the origin along its normal.
func (p Plane) Offset() float64 {
	return p.Center.Dot(p.Normal)
}

// Coincident reports whether two planes share orientation and position.
func (p Plane) Coincident(q Plane, eps float64) bool {
	return p.Normal.Dot(q.Normal) > 1-1e-9 && math.Abs(p.Distance(q.Center)) <= eps
}

// Planes returns the distinct supporting planes of the mesh's triangles.
// Degenerate triangles are ignored. For a closed convex mesh with outward
// winding this is the plane list of the convex region it bounds.
func (m *Mesh) Planes(eps float64) []Plane {
	var planes []Plane
	for i := range m.Triangles {
		n := m.TriangleNormal(i)
		if n == (v3.Vec{}) {
			continue
		}
		p := Plane{Center: m.TriangleCentroid(i), Normal: n}
		dup := false
		for _, q := range planes {
			if q.Coincident(p, eps) {
				dup = true
				break
			}
		}
		if !dup {
			planes = append(planes, p)
		}
	}
	return planes
}

// ErrTooFewPoints is returned by FitPlane when fewer than three points are given.
var ErrTooFewPoints = errors.New("mesh: plane fit needs at least three points")

// FitPlane returns the least-squares plane through points: the centroid and
// the eigenvector of the smallest eigenvalue of the covariance matrix. The
// normal's sign is arbitrary; callers orient it.
func FitPlane(points []v3.Vec) (Plane, error) {
	if len(points) < 3 {
		return Plane{}, ErrTooFewPoints
	}

	var c v3.Vec
	for _, p := range points {
		c = c.Add(p)
	}
	c = c.DivScalar(float64(len(points)))

	var xx, xy, xz, yy, yz, zz float64
	for _, p := range points {
		d := p.Sub(c)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}
	cov := mat.NewSymDense(3, []float64{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return Plane{}, errors.New("mesh: plane fit eigen decomposition failed")
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues are ascending; column 0 spans the direction of least spread.
	n := v3.Vec{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}
	if n.Length() < 1e-12 {
		return Plane{}, errors.New("mesh: plane fit produced a zero normal")
	}
	return NewPlane(c, n), nil
}

// Perpendicular returns a unit vector perpendicular to n. The choice is
// deterministic: n is crossed with the coordinate axis it is least aligned with.
func Perpendicular(n v3.Vec) v3.Vec {
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	var e v3.Vec
	switch {
	case ax <= ay && ax <= az:
		e = v3.Vec{X: 1}
	case ay <= az:
		e = v3.Vec{Y: 1}
	default:
		e = v3.Vec{Z: 1}
	}
	return n.Cross(e).Normalize()
}
