package engine

import (
	"fmt"
	"math"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// Defaults for cut disks: large enough to span the unit cube.
const (
	defaultDiskRadius = 4
	defaultDiskSides  = 4
)

// builder accumulates the policy a script describes.
type builder struct {
	sched    *decompose.Scheduled
	named    bool
	warnings []EvalWarning
}

func newBuilder() *builder {
	return &builder{sched: &decompose.Scheduled{}}
}

func (b *builder) warn(format string, args ...any) {
	b.warnings = append(b.warnings, EvalWarning{Message: fmt.Sprintf(format, args...)})
}

// checkKeywords records a warning for every keyword fn does not accept.
func (b *builder) checkKeywords(fn string, pa kwArgs, allowed ...string) {
	for _, k := range pa.unknownKeywords(allowed...) {
		b.warn("%s: unknown keyword :%s ignored", fn, k)
	}
}

// finish checks cross references that can only be resolved once the whole
// script has run, and returns the policy.
func (b *builder) finish() (*decompose.Scheduled, []EvalError) {
	s := b.sched
	n := len(s.Generators)
	var errs []EvalError
	bad := func(format string, args ...any) {
		errs = append(errs, EvalError{Message: fmt.Sprintf(format, args...)})
	}

	for i, g := range s.Generators {
		if g.CaptureTree == nil {
			continue
		}
		for _, leaf := range g.CaptureTree.Leaves() {
			if leaf < 0 || leaf >= n {
				bad("generator %d: capture references generator %d of %d", i, leaf, n)
			}
		}
	}

	used := make([]bool, n)
	for p, pass := range s.Passes {
		if pass.Generators == nil {
			for i := range used {
				used[i] = true
			}
		}
		for _, g := range pass.Generators {
			if g < 0 || g >= n {
				bad("cut-pass %d: generator %d of %d", p, g, n)
				continue
			}
			used[g] = true
		}
		for _, m := range pass.Moves {
			if m.Generator < 0 || m.Generator >= n {
				bad("cut-pass %d: move references generator %d of %d", p, m.Generator, n)
			}
		}
	}
	if len(s.Passes) > 0 {
		for i, u := range used {
			if !u {
				b.warn("generator %d never cuts", i)
			}
		}
	}

	if n > 0 && !b.named {
		b.warn("no (puzzle ...) form; the puzzle is unnamed")
	}
	return s, errs
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the puzzle DSL builtins into a zygomys
// environment. The builtins populate b during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 0 0)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (deg 90) -> radians
	// -----------------------------------------------------------------------
	env.AddFunction("deg", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("deg requires exactly 1 argument, got %d", len(args))
		}
		d, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("deg: %w", err)
		}
		return &zygo.SexpFloat{Val: d * math.Pi / 180}, nil
	})

	// -----------------------------------------------------------------------
	// (rgb 1 0.5 0)
	// -----------------------------------------------------------------------
	env.AddFunction("rgb", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("rgb requires exactly 3 arguments, got %d", len(args))
		}
		var c puzzle.Color
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rgb: %w", err)
			}
			if f < 0 || f > 1 {
				return zygo.SexpNull, fmt.Errorf("rgb: component %g outside [0, 1]", f)
			}
			c[i] = f
		}
		return &sexpColor{color: c}, nil
	})

	// -----------------------------------------------------------------------
	// (disk center normal [radius [sides]])
	// -----------------------------------------------------------------------
	env.AddFunction("disk", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 || len(args) > 4 {
			return zygo.SexpNull, fmt.Errorf("disk requires a center, a normal and optionally a radius and side count")
		}
		center, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("disk: center: %w", err)
		}
		normal, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("disk: normal: %w", err)
		}
		if normal.Length() == 0 {
			return zygo.SexpNull, fmt.Errorf("disk: zero normal")
		}
		radius, sides := float64(defaultDiskRadius), defaultDiskSides
		if len(args) > 2 {
			if radius, err = toFloat64(args[2]); err != nil {
				return zygo.SexpNull, fmt.Errorf("disk: radius: %w", err)
			}
		}
		if len(args) > 3 {
			if sides, err = toInt(args[3]); err != nil {
				return zygo.SexpNull, fmt.Errorf("disk: sides: %w", err)
			}
		}
		return &sexpMesh{mesh: mesh.Disk(center, normal, radius, sides), kind: "disk"}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere center radius :subdivisions 1)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		b.checkKeywords("sphere", pa, "subdivisions")
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("sphere requires a center and a radius")
		}
		center, err := toVec3(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: center: %w", err)
		}
		radius, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		subdiv := 1
		if v, ok := pa.kw["subdivisions"]; ok {
			if subdiv, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: subdivisions: %w", err)
			}
		}
		return &sexpMesh{mesh: mesh.Sphere(center, radius, subdiv), kind: "sphere"}, nil
	})

	// -----------------------------------------------------------------------
	// (polyhedron :cube :scale 1 :center (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("polyhedron", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("polyhedron requires a kind")
		}
		kindName, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polyhedron: kind: %w", err)
		}
		kind, err := mesh.ParsePolyhedronKind(kindName)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polyhedron: %w", err)
		}
		pa := parseArgs(args[1:])
		b.checkKeywords("polyhedron", pa, "scale", "center")

		scale := 1.0
		if v, ok := pa.kw["scale"]; ok {
			if scale, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("polyhedron: scale: %w", err)
			}
		}
		var center v3.Vec
		if v, ok := pa.kw["center"]; ok {
			if center, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("polyhedron: center: %w", err)
			}
		}
		if scale <= 0 {
			return zygo.SexpNull, fmt.Errorf("polyhedron: scale must be positive, got %g", scale)
		}
		m := mesh.Polyhedron(kind).Transform(sdf.Translate3d(center).Mul(sdf.Scale3d(v3.Vec{X: scale, Y: scale, Z: scale})))
		return &sexpMesh{mesh: m, kind: kind.String()}, nil
	})

	// -----------------------------------------------------------------------
	// (face mesh :color (rgb 1 0 0) :alpha 1)
	// -----------------------------------------------------------------------
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		b.checkKeywords("face", pa, "color", "alpha")
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("face requires a mesh")
		}
		m, err := toMesh(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		var c puzzle.Color
		if v, ok := pa.kw["color"]; ok {
			if c, err = toColor(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("face: color: %w", err)
			}
		}
		f := puzzle.NewFragment(m.Clone(), c)
		if v, ok := pa.kw["alpha"]; ok {
			if f.Alpha, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("face: alpha: %w", err)
			}
		}
		b.sched.Initial = append(b.sched.Initial, f)
		return &zygo.SexpInt{Val: int64(len(b.sched.Initial) - 1)}, nil
	})

	// -----------------------------------------------------------------------
	// (generator mesh :axis (vec3 1 0 0) :angle (deg 90) :center (vec3 0 0 0)
	//            :pick-point (vec3 1 0 0) :min-capture 9 :max-capture 9
	//            :capture (subtract 0 1))
	// -----------------------------------------------------------------------
	env.AddFunction("generator", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		b.checkKeywords("generator", pa, "axis", "angle", "center", "pick-point", "min-capture", "max-capture", "capture")
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("generator requires a cut mesh")
		}
		m, err := toMesh(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("generator: %w", err)
		}

		v, ok := pa.kw["axis"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("generator: :axis is required")
		}
		axis, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("generator: axis: %w", err)
		}
		if axis.Length() == 0 {
			return zygo.SexpNull, fmt.Errorf("generator: zero axis")
		}
		v, ok = pa.kw["angle"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("generator: :angle is required")
		}
		angle, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("generator: angle: %w", err)
		}
		var center v3.Vec
		if v, ok := pa.kw["center"]; ok {
			if center, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("generator: center: %w", err)
			}
		}

		g := puzzle.NewGenerator(m.Clone(), center, axis, angle)
		if v, ok := pa.kw["pick-point"]; ok {
			p, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("generator: pick-point: %w", err)
			}
			g.PickPoint = &p
		}
		if v, ok := pa.kw["min-capture"]; ok {
			if g.MinCaptureCount, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("generator: min-capture: %w", err)
			}
		}
		if v, ok := pa.kw["max-capture"]; ok {
			if g.MaxCaptureCount, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("generator: max-capture: %w", err)
			}
		}
		if v, ok := pa.kw["capture"]; ok {
			if g.CaptureTree, err = toCapture(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("generator: capture: %w", err)
			}
		}
		if len(g.Planes()) == 0 {
			return zygo.SexpNull, fmt.Errorf("generator: cut mesh has no planes")
		}

		b.sched.Generators = append(b.sched.Generators, g)
		return &zygo.SexpInt{Val: int64(len(b.sched.Generators) - 1)}, nil
	})

	// -----------------------------------------------------------------------
	// (leaf 0) (union a b ...) (subtract a b ...) (intersection a b ...)
	// -----------------------------------------------------------------------
	env.AddFunction("leaf", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("leaf requires a generator index")
		}
		i, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("leaf: %w", err)
		}
		return &sexpCapture{node: puzzle.Leaf(i)}, nil
	})
	combine := func(op puzzle.CaptureOp) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least one operand", op)
			}
			node := &puzzle.CaptureNode{Op: op}
			for i, a := range args {
				c, err := toCapture(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", op, i, err)
				}
				node.Children = append(node.Children, c)
			}
			return &sexpCapture{node: node}, nil
		}
	}
	env.AddFunction("union", combine(puzzle.OpUnion))
	env.AddFunction("subtract", combine(puzzle.OpSubtract))
	env.AddFunction("intersection", combine(puzzle.OpIntersection))

	// -----------------------------------------------------------------------
	// (move 0 :inverse true :angle (deg 180))
	// -----------------------------------------------------------------------
	env.AddFunction("move", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		b.checkKeywords("move", pa, "inverse", "angle")
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("move requires a generator index")
		}
		g, err := toInt(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("move: generator: %w", err)
		}
		m := decompose.Move{Generator: g}
		if v, ok := pa.kw["inverse"]; ok {
			if m.Inverse, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("move: inverse: %w", err)
			}
		}
		if v, ok := pa.kw["angle"]; ok {
			a, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("move: angle: %w", err)
			}
			m.Angle = &a
		}
		return &sexpMove{move: m}, nil
	})

	// -----------------------------------------------------------------------
	// (cut-pass :generators (list 0 1) :moves (list (move 0)))
	//
	// Registered as "cut_pass"; the preprocessor rewrites cut-pass.
	// -----------------------------------------------------------------------
	env.AddFunction("cut_pass", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		b.checkKeywords("cut-pass", pa, "generators", "moves")
		var pass decompose.Pass
		if v, ok := pa.kw["generators"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cut-pass: generators: %w", err)
			}
			pass.Generators = make([]int, 0, len(items))
			for _, item := range items {
				g, err := toInt(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("cut-pass: generator entry: %w", err)
				}
				pass.Generators = append(pass.Generators, g)
			}
		}
		if v, ok := pa.kw["moves"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cut-pass: moves: %w", err)
			}
			for _, item := range items {
				m, err := toMove(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("cut-pass: move entry: %w", err)
				}
				pass.Moves = append(pass.Moves, m)
			}
		}
		b.sched.Passes = append(b.sched.Passes, pass)
		return &zygo.SexpInt{Val: int64(len(b.sched.Passes) - 1)}, nil
	})

	// -----------------------------------------------------------------------
	// (puzzle "RubiksCube" :bandages false :min-area 0.001)
	// -----------------------------------------------------------------------
	env.AddFunction("puzzle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		b.checkKeywords("puzzle", pa, "bandages", "min-area")
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("puzzle requires a name")
		}
		title, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("puzzle: name: %w", err)
		}
		if b.named {
			b.warn("puzzle: renamed from %q to %q", b.sched.Title, title)
		}
		b.sched.Title = title
		b.named = true
		if v, ok := pa.kw["bandages"]; ok {
			if b.sched.Bandaged, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("puzzle: bandages: %w", err)
			}
		}
		if v, ok := pa.kw["min-area"]; ok {
			if b.sched.MinArea, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("puzzle: min-area: %w", err)
			}
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (annotate "key" value)
	// -----------------------------------------------------------------------
	env.AddFunction("annotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("annotate requires a key and a value")
		}
		key, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("annotate: key: %w", err)
		}
		val, err := toAnnotation(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("annotate: %w", err)
		}
		if b.sched.Annotations == nil {
			b.sched.Annotations = make(map[string]any)
		}
		b.sched.Annotations[key] = val
		return zygo.SexpNull, nil
	})
}
