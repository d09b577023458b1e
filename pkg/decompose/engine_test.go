package decompose

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"

	"github.com/chazu/twisty/pkg/kernel"
	"github.com/chazu/twisty/pkg/kernel/sdfx"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// cubeGenerators returns the six face-turn generators of a 3x3x3 cube in
// the order L, R, D, U, B, F. Each disk sits 1/3 in from its face with the
// normal pointing at the origin, so the captured side is the outer layer.
func cubeGenerators() []*puzzle.Generator {
	axes := []v3.Vec{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}, {Z: -1}, {Z: 1}}
	gens := make([]*puzzle.Generator, len(axes))
	for i, a := range axes {
		gens[i] = puzzle.NewGenerator(mesh.Disk(a.MulScalar(1.0/3), a.Neg(), 4, 4), v3.Vec{}, a, math.Pi/2)
	}
	return gens
}

// offsetCube returns a two-generator puzzle whose slabs x > 0.5 and
// y > 0.5 overlap in one corner column. Turning the x slab between passes
// exposes cuts that no single pass can make.
func offsetCube() *Scheduled {
	return &Scheduled{
		Title: "OffsetCube",
		Generators: []*puzzle.Generator{
			puzzle.NewGenerator(mesh.Disk(v3.Vec{X: 0.5}, v3.Vec{X: -1}, 4, 4), v3.Vec{}, v3.Vec{X: 1}, math.Pi/2),
			puzzle.NewGenerator(mesh.Disk(v3.Vec{Y: 0.5}, v3.Vec{Y: -1}, 4, 4), v3.Vec{}, v3.Vec{Y: 1}, math.Pi/2),
		},
		Passes: []Pass{
			{Moves: []Move{{Generator: 0}}},
			{Moves: []Move{{Generator: 0, Inverse: true}}},
		},
	}
}

func newEngine() *Engine {
	return New(sdfx.New())
}

func totalArea(frags []*puzzle.Fragment) float64 {
	var a float64
	for _, f := range frags {
		a += f.Area()
	}
	return a
}

func sortedAreas(frags []*puzzle.Fragment) []float64 {
	out := make([]float64, len(frags))
	for i, f := range frags {
		out[i] = math.Round(f.Area()*1e6) / 1e6
	}
	slices.Sort(out)
	return out
}

// --- Scenario tests ---

func TestRubiksCubeScenario(t *testing.T) {
	res, err := newEngine().Run(&Scheduled{Title: "RubiksCube", Generators: cubeGenerators()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Passes != 1 {
		t.Errorf("Passes = %d, want 1", res.Passes)
	}
	if len(res.Fragments) != 54 {
		t.Fatalf("got %d sticker fragments, want 54", len(res.Fragments))
	}
	for i, f := range res.Fragments {
		if !f.Visible() || f.Mesh.IsEmpty() {
			t.Errorf("fragment %d is hidden or empty", i)
		}
		if math.Abs(f.Area()-4.0/9) > 1e-9 {
			t.Errorf("fragment %d area = %f, want 4/9", i, f.Area())
		}
	}
	if a := totalArea(res.Fragments); math.Abs(a-24) > 1e-9 {
		t.Errorf("total area = %f, want 24", a)
	}

	ws := res.Workspace
	pieces := ws.GroupPieces()
	if len(pieces) != 26 {
		t.Fatalf("got %d pieces, want 26", len(pieces))
	}
	sizes := map[int]int{}
	for _, p := range pieces {
		sizes[len(p)]++
	}
	if want := map[int]int{1: 6, 2: 12, 3: 8}; !reflect.DeepEqual(sizes, want) {
		t.Errorf("piece sizes = %v, want %v", sizes, want)
	}

	for g := range ws.Generators {
		for i, f := range ws.Fragments {
			if ws.Straddles(g, f) {
				t.Errorf("fragment %d straddles generator %d", i, g)
			}
			behind := ws.Generators[g].Side(f.RepresentativePoint(), mesh.Eps) == mesh.SideBack
			if ws.Captures(g, f) != behind {
				t.Errorf("fragment %d capture by %d disagrees with its plane side", i, g)
			}
		}
		if n := len(ws.Captured(g)); n != 21 {
			t.Errorf("generator %d captures %d stickers, want 21", g, n)
		}
	}
}

func TestOrderDependentScenario(t *testing.T) {
	full, err := newEngine().Run(offsetCube())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	skipped, err := newEngine().Run(offsetCube().WithoutMoves())
	if err != nil {
		t.Fatalf("Run(WithoutMoves) error = %v", err)
	}

	if full.Passes != 2 || skipped.Passes != 1 {
		t.Errorf("passes = %d / %d, want 2 / 1", full.Passes, skipped.Passes)
	}
	if len(skipped.Fragments) != 16 {
		t.Errorf("single pass yields %d fragments, want 16", len(skipped.Fragments))
	}
	if len(full.Fragments) != 20 {
		t.Errorf("multi-pass yields %d fragments, want 20", len(full.Fragments))
	}
	if reflect.DeepEqual(sortedAreas(full.Fragments), sortedAreas(skipped.Fragments)) {
		t.Error("the simulated move did not change fragment shapes")
	}

	// The inverse move in the last pass restores the solved pose.
	for _, f := range full.Fragments {
		for _, v := range f.Mesh.Vertices {
			if math.Abs(v.X) > 1+1e-9 || math.Abs(v.Y) > 1+1e-9 || math.Abs(v.Z) > 1+1e-9 {
				t.Fatalf("vertex %v left the cube", v)
			}
		}
	}
	for _, res := range []*Result{full, skipped} {
		if a := totalArea(res.Fragments); math.Abs(a-24) > 1e-9 {
			t.Errorf("total area = %f, want 24", a)
		}
	}
}

// --- Capture / transform tests ---

func TestFullCycleRestoresPose(t *testing.T) {
	res, err := newEngine().Run(&Scheduled{Generators: cubeGenerators()})
	if err != nil {
		t.Fatal(err)
	}
	ws := res.Workspace
	for g, gen := range ws.Generators {
		before := make([]*mesh.Mesh, len(ws.Fragments))
		for i, f := range ws.Fragments {
			before[i] = f.Mesh.Clone()
		}
		n := gen.RotationOrder()
		if n != 4 {
			t.Fatalf("generator %d rotation order = %d, want 4", g, n)
		}
		for k := 0; k < n; k++ {
			if moved := ws.Apply(g, false); moved != 21 {
				t.Fatalf("generator %d step %d moved %d stickers, want 21", g, k, moved)
			}
		}
		for i, f := range ws.Fragments {
			for j, v := range f.Mesh.Vertices {
				if !mesh.Near(v, before[i].Vertices[j], 1e-9) {
					t.Fatalf("generator %d: fragment %d vertex %d moved from %v to %v", g, i, j, before[i].Vertices[j], v)
				}
			}
		}
	}
}

func TestApplySignConvention(t *testing.T) {
	tri := mesh.New()
	tri.AddTriangle(v3.Vec{X: 1, Y: -0.1, Z: 0.4}, v3.Vec{X: 1, Y: 0.1, Z: 0.4}, v3.Vec{X: 1, Z: 0.7})
	gens := cubeGenerators()
	r := 1 // R: captures x > 1/3, axis +x

	tests := []struct {
		name    string
		inverse bool
		want    v3.Vec
	}{
		// Default rotates by -angle: (x, y, z) -> (x, z, -y).
		{"default", false, v3.Vec{X: 1, Y: 0.5}},
		// Inverse rotates by +angle: (x, y, z) -> (x, -z, y).
		{"inverse", true, v3.Vec{X: 1, Y: -0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newWorkspace(t, []*puzzle.Fragment{puzzle.NewFragment(tri.Clone(), puzzle.Green)}, gens)
			if moved := ws.Apply(r, tt.inverse); moved != 1 {
				t.Fatalf("Apply moved %d fragments, want 1", moved)
			}
			if got := ws.Fragments[0].RepresentativePoint(); !mesh.Near(got, tt.want, 1e-12) {
				t.Errorf("representative point = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyMoveAngleOverride(t *testing.T) {
	tri := mesh.New()
	tri.AddTriangle(v3.Vec{X: 1, Y: -0.1, Z: 0.4}, v3.Vec{X: 1, Y: 0.1, Z: 0.4}, v3.Vec{X: 1, Z: 0.7})
	ws := newWorkspace(t, []*puzzle.Fragment{puzzle.NewFragment(tri, puzzle.Green)}, cubeGenerators())
	half := math.Pi
	ws.ApplyMove(Move{Generator: 1, Inverse: true, Angle: &half})
	if got := ws.Fragments[0].RepresentativePoint(); !mesh.Near(got, v3.Vec{X: 1, Z: -0.5}, 1e-12) {
		t.Errorf("half turn moved representative point to %v", got)
	}
}

func TestApplyLeavesUncapturedFragments(t *testing.T) {
	faces := CubeFaces()
	left := faces[0].Mesh.Clone()
	ws := newWorkspace(t, faces, cubeGenerators())
	// R captures only whole faces lying in x > 1/3, which is just the right
	// face; the left face must not move.
	if moved := ws.Apply(1, false); moved != 1 {
		t.Errorf("Apply moved %d faces, want 1", moved)
	}
	if !reflect.DeepEqual(ws.Fragments[0].Mesh, left) {
		t.Error("left face moved")
	}
}

func TestConstrained(t *testing.T) {
	ws := newWorkspace(t, CubeFaces(), cubeGenerators())
	if !ws.Constrained(0) {
		t.Error("uncut faces should block the L turn")
	}
	if ws.Straddles(0, ws.Fragments[0]) {
		t.Error("the left face lies wholly inside the L layer")
	}
	if !ws.Straddles(0, ws.Fragments[3]) {
		t.Error("the up face crosses the L cut")
	}

	res, err := newEngine().Run(&Scheduled{Generators: cubeGenerators()})
	if err != nil {
		t.Fatal(err)
	}
	for g := range res.Generators {
		if res.Workspace.Constrained(g) {
			t.Errorf("generator %d still constrained after decomposition", g)
		}
	}
}

func TestGeneratorByAxis(t *testing.T) {
	ws := newWorkspace(t, nil, cubeGenerators())
	if got := ws.GeneratorByAxis(v3.Vec{Y: 5}); got != 3 {
		t.Errorf("GeneratorByAxis(+Y) = %d, want 3", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("GeneratorByAxis should panic for a missing axis")
		}
	}()
	ws.GeneratorByAxis(v3.Vec{X: 1, Y: 1})
}

// --- Engine contract tests ---

func TestRunNoGenerators(t *testing.T) {
	_, err := newEngine().Run(&Scheduled{})
	if !errors.Is(err, ErrNoGenerators) {
		t.Errorf("Run() error = %v, want ErrNoGenerators", err)
	}
}

// endlessPolicy keeps asking for more passes.
type endlessPolicy struct {
	Scheduled
}

func (p *endlessPolicy) TransformMeshesForMoreCutting(*Workspace, int) bool { return true }

func TestRunPassLimit(t *testing.T) {
	e := newEngine()
	e.MaxPasses = 3
	_, err := e.Run(&endlessPolicy{Scheduled{Generators: cubeGenerators()}})
	if !errors.Is(err, ErrPassLimit) {
		t.Errorf("Run() error = %v, want ErrPassLimit", err)
	}
}

// selectivePolicy refuses to cut red fragments and records hook calls.
type selectivePolicy struct {
	Scheduled
	seen []puzzle.Color
}

func (p *selectivePolicy) CanApplyCutMeshToMesh(_ int, _ *puzzle.Generator, _ int, f *puzzle.Fragment) bool {
	p.seen = append(p.seen, f.Color)
	return f.Color != puzzle.Red
}

func TestCanApplyCutMeshToMesh(t *testing.T) {
	p := &selectivePolicy{Scheduled: Scheduled{Generators: cubeGenerators()[:1]}}
	res, err := newEngine().Run(p)
	if err != nil {
		t.Fatal(err)
	}
	want := []puzzle.Color{puzzle.Blue, puzzle.Green, puzzle.White, puzzle.Yellow, puzzle.Orange, puzzle.Red}
	if !reflect.DeepEqual(p.seen, want) {
		t.Errorf("hook saw %v, want face order %v", p.seen, want)
	}
	// The L cut splits D, U and B but not the red front face.
	if len(res.Fragments) != 9 {
		t.Errorf("got %d fragments, want 9", len(res.Fragments))
	}
	// Halves stay in place of their parent, back half first.
	if res.Fragments[2].Color != puzzle.White || res.Fragments[3].Color != puzzle.White {
		t.Errorf("split halves out of order: %v %v", res.Fragments[2].Color, res.Fragments[3].Color)
	}
	if res.Fragments[2].RepresentativePoint().X >= -1.0/3 {
		t.Error("first half should be the captured (back) half")
	}
}

func TestCanApplyCutMeshForPass(t *testing.T) {
	s := &Scheduled{Generators: cubeGenerators(), Passes: []Pass{{Generators: []int{0, 1}}}}
	res, err := newEngine().Run(s)
	if err != nil {
		t.Fatal(err)
	}
	// L and R cut D, U, B, F into three strips each.
	if len(res.Fragments) != 14 {
		t.Errorf("got %d fragments, want 14", len(res.Fragments))
	}
}

func TestMinMeshAreaCulls(t *testing.T) {
	res, err := newEngine().Run(&Scheduled{Generators: cubeGenerators(), MinArea: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Fragments) != 0 {
		t.Errorf("got %d fragments, want all stickers culled", len(res.Fragments))
	}
}

// fixedPointPolicy places every fragment's representative point at the
// origin, where no generator captures it.
type fixedPointPolicy struct {
	Scheduled
}

func (fixedPointPolicy) RepresentativePoint(*puzzle.Fragment) v3.Vec { return v3.Vec{} }

func TestRepresentativePointOverride(t *testing.T) {
	res, err := newEngine().Run(&fixedPointPolicy{Scheduled{Generators: cubeGenerators()}})
	if err != nil {
		t.Fatal(err)
	}
	for g := range res.Generators {
		if n := len(res.Workspace.Captured(g)); n != 0 {
			t.Errorf("generator %d captures %d fragments, want 0", g, n)
		}
	}
	if res.Fragments[0].Center != (v3.Vec{}) {
		t.Errorf("center = %v, want the overridden point", res.Fragments[0].Center)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	seq := newEngine()
	seq.Workers = 1
	par := newEngine()
	par.Workers = 8

	a, err := seq.Run(offsetCube())
	if err != nil {
		t.Fatal(err)
	}
	b, err := par.Run(offsetCube())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Describe(), b.Describe()) {
		t.Error("parallel run differs from sequential run")
	}
}

func TestAnnotations(t *testing.T) {
	s := offsetCube()
	s.Annotations = map[string]any{"compound_moves": [][2]int{{0, 1}}}
	res, err := newEngine().Run(s)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Describe().Annotations["compound_moves"]; !ok {
		t.Error("annotation missing from description")
	}
	plain, _ := newEngine().Run(offsetCube())
	if plain.Annotations != nil {
		t.Errorf("annotations = %v, want nil", plain.Annotations)
	}
}

func newWorkspace(t *testing.T, frags []*puzzle.Fragment, gens []*puzzle.Generator) *Workspace {
	t.Helper()
	k := sdfx.New()
	regions := make([]kernel.Region, len(gens))
	for i, g := range gens {
		regions[i] = k.Polytope(g.Planes())
	}
	return NewWorkspace(frags, gens, regions, nil)
}
