package engine

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/kernel/sdfx"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(puzzle "cube" :bandages true)`,
			expect: `(puzzle "cube" "__kw_bandages" true)`,
		},
		{
			name:   "multiple keywords",
			input:  `(generator d :axis a :angle 1)`,
			expect: `(generator d "__kw_axis" a "__kw_angle" 1)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(cut-pass :moves m)`,
			expect: `(cut_pass "__kw_moves" m)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 -1 0 0)`,
			expect: `(vec3 -1 0 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:pick-point`,
			expect: `"__kw_pick-point"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustEvaluate(t *testing.T, source string) *EvalResult {
	t.Helper()
	res, err := NewEngine().EvaluateResult(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("eval errors: %v", res.Errors)
	}
	if res.Policy == nil {
		t.Fatal("expected non-nil policy")
	}
	return res
}

func evalErrors(t *testing.T, source string) []EvalError {
	t.Helper()
	p, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if p != nil {
		t.Error("expected nil policy alongside eval errors")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	return evalErrs
}

func hasWarning(ws []EvalWarning, substr string) bool {
	for _, w := range ws {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func near(a, b v3.Vec) bool {
	return a.Sub(b).Length() < 1e-9
}

const rubiksScript = `
;; 3x3x3 face turns, in L R D U B F order.
(puzzle "RubiksCube")
(def third (/ 1.0 3.0))
(def quarter (deg 90))

(generator (disk (vec3 (* -1 third) 0 0) (vec3 1 0 0)) :axis (vec3 -1 0 0) :angle quarter)
(generator (disk (vec3 third 0 0) (vec3 -1 0 0)) :axis (vec3 1 0 0) :angle quarter)
(generator (disk (vec3 0 (* -1 third) 0) (vec3 0 1 0)) :axis (vec3 0 -1 0) :angle quarter)
(generator (disk (vec3 0 third 0) (vec3 0 -1 0)) :axis (vec3 0 1 0) :angle quarter)
(generator (disk (vec3 0 0 (* -1 third)) (vec3 0 0 1)) :axis (vec3 0 0 -1) :angle quarter)
(generator (disk (vec3 0 0 third) (vec3 0 0 -1)) :axis (vec3 0 0 1) :angle quarter)
`

// ---------------------------------------------------------------------------
// Builtin tests
// ---------------------------------------------------------------------------

func TestGeneratorBuiltin(t *testing.T) {
	res := mustEvaluate(t, `
(puzzle "one")
(generator (disk (vec3 0 0 0.5) (vec3 0 0 -1) 3 6)
  :axis (vec3 0 0 2) :angle (deg 60) :center (vec3 0 0 0.1)
  :pick-point (vec3 0 0 1) :min-capture 1 :max-capture 4)
`)
	gens := res.Policy.Generators
	if len(gens) != 1 {
		t.Fatalf("got %d generators, want 1", len(gens))
	}
	g := gens[0]
	if math.Abs(g.Angle-math.Pi/3) > 1e-12 {
		t.Errorf("Angle = %f, want pi/3", g.Angle)
	}
	if !near(g.Axis, v3.Vec{Z: 2}) {
		t.Errorf("Axis = %v", g.Axis)
	}
	if !near(g.Center, v3.Vec{Z: 0.1}) {
		t.Errorf("Center = %v", g.Center)
	}
	if g.PickPoint == nil || !near(*g.PickPoint, v3.Vec{Z: 1}) {
		t.Errorf("PickPoint = %v", g.PickPoint)
	}
	if g.MinCaptureCount != 1 || g.MaxCaptureCount != 4 {
		t.Errorf("capture counts = %d..%d, want 1..4", g.MinCaptureCount, g.MaxCaptureCount)
	}
	if g.Mesh.TriangleCount() != 6 {
		t.Errorf("disk has %d triangles, want 6", g.Mesh.TriangleCount())
	}
	planes := g.Planes()
	if len(planes) != 1 || !near(planes[0].Normal, v3.Vec{Z: -1}) {
		t.Errorf("Planes() = %v", planes)
	}
	if g.RotationOrder() != 6 {
		t.Errorf("RotationOrder() = %d, want 6", g.RotationOrder())
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestRubiksCubeScript(t *testing.T) {
	res := mustEvaluate(t, rubiksScript)
	p := res.Policy
	if p.Name() != "RubiksCube" {
		t.Errorf("Name() = %q", p.Name())
	}
	if len(p.Generators) != 6 {
		t.Fatalf("got %d generators, want 6", len(p.Generators))
	}

	out, err := decompose.New(sdfx.New()).Run(p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out.Fragments) != 54 {
		t.Errorf("got %d fragments, want 54", len(out.Fragments))
	}
}

func TestCutPassAndMoves(t *testing.T) {
	res := mustEvaluate(t, `
(puzzle "OffsetCube")
(def x (generator (disk (vec3 0.5 0 0) (vec3 -1 0 0)) :axis (vec3 1 0 0) :angle (deg 90)))
(def y (generator (disk (vec3 0 0.5 0) (vec3 0 -1 0)) :axis (vec3 0 1 0) :angle (deg 90)))
(cut-pass :moves (list (move x)))
(cut-pass :moves (list (move x :inverse true)))
`)
	p := res.Policy
	want := []decompose.Pass{
		{Moves: []decompose.Move{{Generator: 0}}},
		{Moves: []decompose.Move{{Generator: 0, Inverse: true}}},
	}
	if !reflect.DeepEqual(p.Passes, want) {
		t.Errorf("Passes = %+v, want %+v", p.Passes, want)
	}

	out, err := decompose.New(sdfx.New()).Run(p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Passes != 2 || len(out.Fragments) != 20 {
		t.Errorf("got %d fragments in %d passes, want 20 in 2", len(out.Fragments), out.Passes)
	}
}

func TestCutPassGeneratorsAndMoveAngle(t *testing.T) {
	res := mustEvaluate(t, `
(puzzle "p")
(generator (disk (vec3 0 0 0) (vec3 1 0 0)) :axis (vec3 1 0 0) :angle (deg 90))
(generator (disk (vec3 0 0 0) (vec3 0 1 0)) :axis (vec3 0 1 0) :angle (deg 90))
(cut-pass :generators (list 1) :moves (list (move 1 :angle (deg 180))))
`)
	passes := res.Policy.Passes
	if len(passes) != 1 || !reflect.DeepEqual(passes[0].Generators, []int{1}) {
		t.Fatalf("Passes = %+v", passes)
	}
	m := passes[0].Moves[0]
	if m.Angle == nil || math.Abs(*m.Angle-math.Pi) > 1e-12 {
		t.Errorf("move angle = %v, want pi", m.Angle)
	}
	if !hasWarning(res.Warnings, "generator 0 never cuts") {
		t.Errorf("warnings = %v, want an unused generator warning", res.Warnings)
	}
}

func TestCaptureTreeBuiltins(t *testing.T) {
	res := mustEvaluate(t, `
(puzzle "tree")
(def a (generator (disk (vec3 0 0 0) (vec3 1 0 0)) :axis (vec3 1 0 0) :angle (deg 90)))
(def b (generator (disk (vec3 0 0 0) (vec3 0 1 0)) :axis (vec3 0 1 0) :angle (deg 90)))
(generator (disk (vec3 0 0 0) (vec3 0 0 1)) :axis (vec3 0 0 1) :angle (deg 90)
  :capture (subtract (leaf a) (union b (intersection a 2))))
`)
	g := res.Policy.Generators[2]
	want := puzzle.Subtract(puzzle.Leaf(0), puzzle.Union(puzzle.Leaf(1), puzzle.Intersect(puzzle.Leaf(0), puzzle.Leaf(2))))
	if !reflect.DeepEqual(g.CaptureTree, want) {
		t.Errorf("CaptureTree = %+v, want %+v", g.CaptureTree, want)
	}
}

func TestPuzzleAndAnnotate(t *testing.T) {
	res := mustEvaluate(t, `
(puzzle "Bandaged" :bandages true :min-area 0.01)
(generator (disk (vec3 0 0 0) (vec3 1 0 0)) :axis (vec3 1 0 0) :angle (deg 90))
(annotate "author" "someone")
(annotate :moves 3)
(annotate "tags" (list "cube" 1.5 false))
`)
	p := res.Policy
	if p.Name() != "Bandaged" || !p.Bandages() || p.MinMeshArea() != 0.01 {
		t.Errorf("policy = %q bandages=%v min-area=%v", p.Name(), p.Bandages(), p.MinMeshArea())
	}
	want := map[string]any{
		"author": "someone",
		"moves":  int64(3),
		"tags":   []any{"cube", 1.5, false},
	}
	if !reflect.DeepEqual(p.Annotations, want) {
		t.Errorf("Annotations = %#v, want %#v", p.Annotations, want)
	}
}

func TestFaceAndPolyhedron(t *testing.T) {
	res := mustEvaluate(t, `
(puzzle "faces")
(face (polyhedron :cube :scale 0.5 :center (vec3 1 0 0)) :color (rgb 1 0 0) :alpha 0.5)
(face (sphere (vec3 0 0 0) 1 :subdivisions 0))
(generator (disk (vec3 0 0 0) (vec3 1 0 0)) :axis (vec3 1 0 0) :angle (deg 90))
`)
	initial := res.Policy.InitialMeshes()
	if len(initial) != 2 {
		t.Fatalf("got %d initial meshes, want 2", len(initial))
	}
	cube := initial[0]
	if cube.Color != (puzzle.Color{1, 0, 0}) || cube.Alpha != 0.5 {
		t.Errorf("face color = %v alpha = %v", cube.Color, cube.Alpha)
	}
	bb := cube.Mesh.BoundingBox()
	if !near(bb.Min, v3.Vec{X: 0.5, Y: -0.5, Z: -0.5}) || !near(bb.Max, v3.Vec{X: 1.5, Y: 0.5, Z: 0.5}) {
		t.Errorf("cube bounds = %v", bb)
	}
	if math.Abs(cube.Area()-6) > 1e-9 {
		t.Errorf("cube area = %f, want 6", cube.Area())
	}
	if n := initial[1].Mesh.TriangleCount(); n != 20 {
		t.Errorf("unsubdivided sphere has %d triangles, want 20", n)
	}
}

func TestDefaultInitialMeshes(t *testing.T) {
	res := mustEvaluate(t, rubiksScript)
	if n := len(res.Policy.InitialMeshes()); n != 6 {
		t.Errorf("got %d initial meshes, want the 6 cube faces", n)
	}
}

func TestBuiltinErrors(t *testing.T) {
	disk := `(disk (vec3 0 0 0) (vec3 1 0 0))`
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"vec3 arity", `(vec3 1 2)`, "vec3"},
		{"vec3 type", `(vec3 1 "a" 2)`, "vec3"},
		{"rgb range", `(rgb 2 0 0)`, "rgb"},
		{"zero normal", `(disk (vec3 0 0 0) (vec3 0 0 0))`, "zero normal"},
		{"missing axis", `(generator ` + disk + ` :angle 1)`, ":axis is required"},
		{"missing angle", `(generator ` + disk + ` :axis (vec3 1 0 0))`, ":angle is required"},
		{"zero axis", `(generator ` + disk + ` :axis (vec3 0 0 0) :angle 1)`, "zero axis"},
		{"unknown polyhedron", `(polyhedron :dodecahedron)`, "unknown polyhedron"},
		{"bad scale", `(polyhedron :cube :scale -1)`, "scale"},
		{"move out of range", `(generator ` + disk + ` :axis (vec3 1 0 0) :angle 1) (cut-pass :moves (list (move 3)))`, "move references generator 3"},
		{"pass out of range", `(generator ` + disk + ` :axis (vec3 1 0 0) :angle 1) (cut-pass :generators (list 0 7))`, "generator 7"},
		{"capture out of range", `(generator ` + disk + ` :axis (vec3 1 0 0) :angle 1 :capture (union 0 4))`, "capture references generator 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evalErrors(t, tt.source)
			found := false
			for _, e := range errs {
				if strings.Contains(e.Message, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %v, want one containing %q", errs, tt.want)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	res := mustEvaluate(t, `
(generator (disk (vec3 0 0 0) (vec3 1 0 0)) :axis (vec3 1 0 0) :angle 1 :colour 3)
`)
	if !hasWarning(res.Warnings, "unknown keyword :colour") {
		t.Errorf("warnings = %v, want an unknown keyword warning", res.Warnings)
	}
	if !hasWarning(res.Warnings, "unnamed") {
		t.Errorf("warnings = %v, want an unnamed puzzle warning", res.Warnings)
	}
	if res.Policy.Name() != "scheduled" {
		t.Errorf("Name() = %q, want the default", res.Policy.Name())
	}
}

func TestParseArgs(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpInt{Val: 1},
		&zygo.SexpStr{S: kwPrefix + "axis"},
		&zygo.SexpInt{Val: 2},
		&zygo.SexpStr{S: kwPrefix + "zeta"},
		&zygo.SexpInt{Val: 3},
		&zygo.SexpStr{S: kwPrefix + "alpha"},
	}
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		t.Errorf("got %d positional args, want 1", len(pa.positional))
	}
	if pa.kw["alpha"] != zygo.SexpNull {
		t.Errorf("trailing keyword = %v, want SexpNull", pa.kw["alpha"])
	}
	if got, want := pa.unknownKeywords("axis"), []string{"alpha", "zeta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unknownKeywords() = %v, want %v", got, want)
	}
}
