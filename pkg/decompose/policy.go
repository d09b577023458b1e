package decompose

import (
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultMinMeshArea is the area below which fragments are culled after
// every cut pass.
const DefaultMinMeshArea = 0.001

// Policy is the contract a concrete puzzle supplies to the engine. Embed
// Base to inherit every default; GeneratorMeshes has no default and must be
// written by each puzzle.
//
// Hooks receive the engine's working lists for the duration of the call
// only and must not retain them.
type Policy interface {
	// Name identifies the puzzle in output files and logs.
	Name() string
	// InitialMeshes returns the starting solids. The engine clones them.
	InitialMeshes() []*puzzle.Fragment
	// GeneratorMeshes returns the cut generators in application order.
	GeneratorMeshes() []*puzzle.Generator
	// Bandages reports whether pieces may be fused across orbits.
	Bandages() bool
	// MinMeshArea is the culling threshold applied after each pass.
	MinMeshArea() float64
	// CanApplyCutMeshForPass decides whether generator index cuts at all
	// during pass.
	CanApplyCutMeshForPass(index int, g *puzzle.Generator, pass int, all []*puzzle.Generator) bool
	// CanApplyCutMeshToMesh decides whether generator index cuts fragment f
	// during pass. It is called once per fragment, in fragment list order.
	CanApplyCutMeshToMesh(index int, g *puzzle.Generator, pass int, f *puzzle.Fragment) bool
	// TransformMeshesForMoreCutting runs after each pass. It may apply
	// simulated moves through ws and returns true to request another pass.
	TransformMeshesForMoreCutting(ws *Workspace, pass int) bool
	// Annotate attaches puzzle-specific metadata to the serialized output.
	Annotate(data map[string]any)
}

// RepresentativePointer is implemented by policies that choose their own
// interior point for capture tests, typically for non-convex fragments.
type RepresentativePointer interface {
	RepresentativePoint(f *puzzle.Fragment) v3.Vec
}

// Base provides the default implementation of every Policy method except
// GeneratorMeshes.
type Base struct{}

func (Base) Name() string { return "puzzle" }

func (Base) InitialMeshes() []*puzzle.Fragment { return CubeFaces() }

func (Base) Bandages() bool { return false }

func (Base) MinMeshArea() float64 { return DefaultMinMeshArea }

func (Base) CanApplyCutMeshForPass(int, *puzzle.Generator, int, []*puzzle.Generator) bool {
	return true
}

func (Base) CanApplyCutMeshToMesh(int, *puzzle.Generator, int, *puzzle.Fragment) bool {
	return true
}

func (Base) TransformMeshesForMoreCutting(*Workspace, int) bool { return false }

func (Base) Annotate(map[string]any) {}

// CubeFaces returns the six faces of the [-1, 1] cube as separate fragments
// in the standard colors: left blue, right green, down white, up yellow,
// back orange, front red.
func CubeFaces() []*puzzle.Fragment {
	type face struct {
		corners [4]v3.Vec
		color   puzzle.Color
	}
	faces := []face{
		{[4]v3.Vec{{X: -1, Y: -1, Z: -1}, {X: -1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: -1}}, puzzle.Blue},
		{[4]v3.Vec{{X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: 1}}, puzzle.Green},
		{[4]v3.Vec{{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: 1}, {X: -1, Y: -1, Z: 1}}, puzzle.White},
		{[4]v3.Vec{{X: -1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: -1}}, puzzle.Yellow},
		{[4]v3.Vec{{X: -1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: -1, Z: -1}}, puzzle.Orange},
		{[4]v3.Vec{{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1}}, puzzle.Red},
	}
	out := make([]*puzzle.Fragment, len(faces))
	for i, f := range faces {
		c := f.corners
		out[i] = puzzle.NewFragment(mesh.Quad(c[0], c[1], c[2], c[3]), f.color)
	}
	return out
}
