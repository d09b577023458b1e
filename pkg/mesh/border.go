package mesh

// BorderLoop returns the vertex indices of the mesh's boundary, in the
// direction of the boundary edges' winding, when the boundary is exactly
// one simple cycle. It returns (nil, false) for a closed mesh, a mesh with
// several boundary loops, or a boundary that touches itself at a vertex.
func (m *Mesh) BorderLoop() ([]int, bool) {
	type edge struct{ a, b int }
	directed := make(map[edge]int, 3*len(m.Triangles))
	for _, t := range m.Triangles {
		for k := 0; k < 3; k++ {
			directed[edge{t[k], t[(k+1)%3]}]++
		}
	}

	next := make(map[int]int)
	start := -1
	count := 0
	for e, n := range directed {
		if n != 1 {
			// Non-manifold edge.
			return nil, false
		}
		if _, twin := directed[edge{e.b, e.a}]; twin {
			continue
		}
		if _, dup := next[e.a]; dup {
			return nil, false
		}
		next[e.a] = e.b
		count++
		if start < 0 || e.a < start {
			start = e.a
		}
	}
	if count == 0 {
		return nil, false
	}

	loop := make([]int, 0, count)
	v := start
	for {
		loop = append(loop, v)
		w, ok := next[v]
		if !ok {
			return nil, false
		}
		v = w
		if v == start {
			break
		}
		if len(loop) > count {
			return nil, false
		}
	}
	if len(loop) != count {
		return nil, false
	}
	return loop, true
}
