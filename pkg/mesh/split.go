package mesh

import (
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// edgeKey identifies an undirected edge between two vertex indices.
type edgeKey struct{ lo, hi int }

func makeEdgeKey(a, b int) edgeKey {
	if a < b {
		return edgeKey{a, b}
	}
	return edgeKey{b, a}
}

// SplitPlane splits the mesh against plane, returning the part behind the
// plane and the part in front of it. Triangles crossing the plane are cut
// exactly; the intersection vertex on a shared edge is created once so both
// halves stay watertight along the cut. Triangles lying in the plane go to
// the front half. Either half may be empty.
func (m *Mesh) SplitPlane(plane Plane, eps float64) (back, front *Mesh) {
	pool := make([]v3.Vec, len(m.Vertices), len(m.Vertices)+8)
	copy(pool, m.Vertices)

	var backTris, frontTris []Triangle
	pool = splitTriangles(pool, m.Triangles, plane, eps, func(_ int, t Triangle, isFront bool) {
		if isFront {
			frontTris = append(frontTris, t)
		} else {
			backTris = append(backTris, t)
		}
	})
	return compact(pool, backTris), compact(pool, frontTris)
}

// splitTriangles cuts tris, indexing pool, against plane. Cut vertices are
// appended to pool, which is returned. emit receives every output triangle
// with the index of the input triangle it came from and its side.
func splitTriangles(pool []v3.Vec, tris []Triangle, plane Plane, eps float64, emit func(parent int, t Triangle, front bool)) []v3.Vec {
	n := len(pool)
	sides := make([]Side, n)
	dists := make([]float64, n)
	for i, v := range pool {
		dists[i] = plane.Distance(v)
		sides[i] = plane.Side(v, eps)
	}

	cuts := make(map[edgeKey]int)
	cutVertex := func(a, b int) int {
		key := makeEdgeKey(a, b)
		if idx, ok := cuts[key]; ok {
			return idx
		}
		// Interpolate from the lower index so both triangles sharing the
		// edge compute the same point.
		lo, hi := key.lo, key.hi
		t := dists[lo] / (dists[lo] - dists[hi])
		p := pool[lo].Add(pool[hi].Sub(pool[lo]).MulScalar(t))
		pool = append(pool, p)
		cuts[key] = len(pool) - 1
		return len(pool) - 1
	}

	for i, t := range tris {
		hasBack, hasFront := false, false
		for _, idx := range t {
			switch sides[idx] {
			case SideBack:
				hasBack = true
			case SideFront:
				hasFront = true
			}
		}

		switch {
		case hasBack && !hasFront:
			emit(i, t, false)
			continue
		case !hasBack:
			emit(i, t, true)
			continue
		}

		// The triangle straddles the plane: walk its edges building one
		// convex polygon per side, then fan-triangulate each.
		var backPoly, frontPoly []int
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			switch sides[a] {
			case SideBack:
				backPoly = append(backPoly, a)
			case SideFront:
				frontPoly = append(frontPoly, a)
			default:
				backPoly = append(backPoly, a)
				frontPoly = append(frontPoly, a)
			}
			if (sides[a] == SideBack && sides[b] == SideFront) ||
				(sides[a] == SideFront && sides[b] == SideBack) {
				c := cutVertex(a, b)
				backPoly = append(backPoly, c)
				frontPoly = append(frontPoly, c)
			}
		}
		for _, ft := range appendFan(nil, backPoly) {
			emit(i, ft, false)
		}
		for _, ft := range appendFan(nil, frontPoly) {
			emit(i, ft, true)
		}
	}
	return pool
}

// appendFan triangulates a convex polygon given by vertex indices.
func appendFan(tris []Triangle, poly []int) []Triangle {
	for i := 1; i+1 < len(poly); i++ {
		tris = append(tris, Triangle{poly[0], poly[i], poly[i+1]})
	}
	return tris
}

// compact builds a mesh holding only the vertices referenced by tris.
func compact(pool []v3.Vec, tris []Triangle) *Mesh {
	out := New()
	remap := make(map[int]int)
	for _, t := range tris {
		var nt Triangle
		for k, idx := range t {
			j, ok := remap[idx]
			if !ok {
				j = out.AddVertex(pool[idx])
				remap[idx] = j
			}
			nt[k] = j
		}
		out.Triangles = append(out.Triangles, nt)
	}
	return out
}

// SplitConvex splits the mesh against a convex region described by planes
// whose normals point out of the region. The inside part lies behind every
// plane; the outside part is everything clipped away. Every plane cuts the
// whole mesh, outside pieces included, so the two parts and the pieces
// within each share their cut vertices and stay free of T-junctions.
func (m *Mesh) SplitConvex(planes []Plane, eps float64) (inside, outside *Mesh) {
	pool := make([]v3.Vec, len(m.Vertices), len(m.Vertices)+8)
	copy(pool, m.Vertices)
	tris := m.Triangles
	out := make([]bool, len(tris))

	for _, p := range planes {
		if !slices.Contains(out, false) {
			break
		}
		nextTris := make([]Triangle, 0, len(tris))
		nextOut := make([]bool, 0, len(tris))
		pool = splitTriangles(pool, tris, p, eps, func(parent int, t Triangle, front bool) {
			nextTris = append(nextTris, t)
			nextOut = append(nextOut, out[parent] || front)
		})
		tris, out = nextTris, nextOut
	}

	var inTris, outTris []Triangle
	for i, t := range tris {
		if out[i] {
			outTris = append(outTris, t)
		} else {
			inTris = append(inTris, t)
		}
	}
	return compact(pool, inTris), compact(pool, outTris)
}
