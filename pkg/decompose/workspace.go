package decompose

import (
	"fmt"
	"strings"

	"github.com/chazu/twisty/pkg/kernel"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Move is one simulated twist. Angle, when set, replaces the generator's
// own angle; the inverse sign convention applies either way.
type Move struct {
	Generator int
	Inverse   bool
	Angle     *float64
}

// Workspace is the engine's working state as seen by policy hooks: the
// current fragment list, the fixed generator list and each generator's
// resolved capture region. Generators never move; simulated twists only
// relocate fragments.
type Workspace struct {
	Fragments  []*puzzle.Fragment
	Generators []*puzzle.Generator

	regions []kernel.Region
	eps     float64
	rep     func(*puzzle.Fragment) v3.Vec
}

// NewWorkspace returns a workspace over frags and gens with one capture
// region per generator. rep may be nil to use Fragment.RepresentativePoint.
func NewWorkspace(frags []*puzzle.Fragment, gens []*puzzle.Generator, regions []kernel.Region, rep func(*puzzle.Fragment) v3.Vec) *Workspace {
	if len(regions) != len(gens) {
		panic(fmt.Sprintf("decompose: %d regions for %d generators", len(regions), len(gens)))
	}
	if rep == nil {
		rep = (*puzzle.Fragment).RepresentativePoint
	}
	return &Workspace{
		Fragments:  frags,
		Generators: gens,
		regions:    regions,
		eps:        mesh.Eps,
		rep:        rep,
	}
}

// RepresentativePoint returns the interior point used for capture tests.
func (ws *Workspace) RepresentativePoint(f *puzzle.Fragment) v3.Vec {
	return ws.rep(f)
}

// Region returns generator g's capture region.
func (ws *Workspace) Region(g int) kernel.Region {
	return ws.regions[g]
}

// Side classifies p against generator g's capture region.
func (ws *Workspace) Side(g int, p v3.Vec) mesh.Side {
	return kernel.Classify(ws.regions[g], p, ws.eps)
}

// Captures reports whether generator g's rotation moves fragment f: its
// representative point lies strictly inside the capture region.
func (ws *Workspace) Captures(g int, f *puzzle.Fragment) bool {
	return ws.Side(g, ws.rep(f)) == mesh.SideBack
}

// Captured returns the indices of the fragments generator g captures.
func (ws *Workspace) Captured(g int) []int {
	var out []int
	for i, f := range ws.Fragments {
		if ws.Captures(g, f) {
			out = append(out, i)
		}
	}
	return out
}

// Apply rotates every fragment captured by generator g. The rotation is by
// -Angle by default and by +Angle when inverse is set. It returns the
// number of fragments moved.
func (ws *Workspace) Apply(g int, inverse bool) int {
	return ws.ApplyMove(Move{Generator: g, Inverse: inverse})
}

// ApplyMove performs one simulated twist.
func (ws *Workspace) ApplyMove(m Move) int {
	gen := ws.Generators[m.Generator]
	angle := gen.Angle
	if m.Angle != nil {
		angle = *m.Angle
	}
	if !m.Inverse {
		angle = -angle
	}
	rot := mesh.RotationAbout(gen.Center, gen.Axis, angle)

	// Capture is decided for every fragment before any of them moves.
	captured := ws.Captured(m.Generator)
	for _, i := range captured {
		ws.Fragments[i].Transform(rot)
	}
	return len(captured)
}

// Straddles reports whether fragment f has vertices strictly on both sides
// of generator g's capture region, i.e. g's cut has not separated it.
func (ws *Workspace) Straddles(g int, f *puzzle.Fragment) bool {
	inside, outside := false, false
	for _, v := range f.Mesh.Vertices {
		switch ws.Side(g, v) {
		case mesh.SideBack:
			inside = true
		case mesh.SideFront:
			outside = true
		}
		if inside && outside {
			return true
		}
	}
	return false
}

// Constrained reports whether any fragment straddles generator g, meaning
// a bandaged piece blocks the twist.
func (ws *Workspace) Constrained(g int) bool {
	for _, f := range ws.Fragments {
		if ws.Straddles(g, f) {
			return true
		}
	}
	return false
}

// GeneratorByAxis returns the index of the first generator whose axis
// points along axis. It panics when there is none: a policy asking for an
// axis its own generator list lacks is a programming error.
func (ws *Workspace) GeneratorByAxis(axis v3.Vec) int {
	a := axis.Normalize()
	for i, g := range ws.Generators {
		if g.Axis.Normalize().Dot(a) > 1-1e-9 {
			return i
		}
	}
	panic(fmt.Sprintf("decompose: no generator with axis %v", axis))
}

// CaptureSignature returns the set of generators capturing f as a string
// of '0' and '1', one per generator.
func (ws *Workspace) CaptureSignature(f *puzzle.Fragment) string {
	var b strings.Builder
	for g := range ws.Generators {
		if ws.Captures(g, f) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// GroupPieces groups fragments that every generator captures together:
// such fragments always move as one physical piece. Groups are ordered by
// first appearance and hold fragment indices.
func (ws *Workspace) GroupPieces() [][]int {
	var groups [][]int
	index := make(map[string]int)
	for i, f := range ws.Fragments {
		sig := ws.CaptureSignature(f)
		j, ok := index[sig]
		if !ok {
			j = len(groups)
			index[sig] = j
			groups = append(groups, nil)
		}
		groups[j] = append(groups[j], i)
	}
	return groups
}
