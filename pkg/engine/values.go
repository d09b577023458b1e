package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a vector built by `vec3`.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpMesh wraps a mesh built by `disk`, `sphere` or `polyhedron`. kind
// names the constructor for printing.
type sexpMesh struct {
	mesh *mesh.Mesh
	kind string
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %d triangles)", m.kind, m.mesh.TriangleCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// sexpColor wraps a color built by `rgb`.
type sexpColor struct {
	color puzzle.Color
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgb %g %g %g)", c.color[0], c.color[1], c.color[2])
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpCapture wraps a capture tree node.
type sexpCapture struct {
	node *puzzle.CaptureNode
}

func (c *sexpCapture) SexpString(ps *zygo.PrintState) string {
	if c.node.Op == puzzle.OpLeaf {
		return fmt.Sprintf("(leaf %d)", c.node.Generator)
	}
	return fmt.Sprintf("(%s ...%d)", c.node.Op, len(c.node.Children))
}
func (c *sexpCapture) Type() *zygo.RegisteredType { return nil }

// sexpMove wraps a simulated twist built by `move`.
type sexpMove struct {
	move decompose.Move
}

func (m *sexpMove) SexpString(ps *zygo.PrintState) string {
	if m.move.Inverse {
		return fmt.Sprintf("(move %d :inverse true)", m.move.Generator)
	}
	return fmt.Sprintf("(move %d)", m.move.Generator)
}
func (m *sexpMove) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer. Floats are accepted when they are integral.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_cube) and plain strings ("cube").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toMesh(s zygo.Sexp) (*mesh.Mesh, error) {
	if m, ok := s.(*sexpMesh); ok {
		return m.mesh, nil
	}
	return nil, fmt.Errorf("expected mesh (disk, sphere, polyhedron), got %T (%s)", s, s.SexpString(nil))
}

func toColor(s zygo.Sexp) (puzzle.Color, error) {
	if c, ok := s.(*sexpColor); ok {
		return c.color, nil
	}
	return puzzle.Color{}, fmt.Errorf("expected rgb color, got %T (%s)", s, s.SexpString(nil))
}

// toCapture accepts a capture node or a bare generator index, which is
// shorthand for (leaf i).
func toCapture(s zygo.Sexp) (*puzzle.CaptureNode, error) {
	if c, ok := s.(*sexpCapture); ok {
		return c.node, nil
	}
	if i, err := toInt(s); err == nil {
		return puzzle.Leaf(i), nil
	}
	return nil, fmt.Errorf("expected capture node or generator index, got %T (%s)", s, s.SexpString(nil))
}

func toMove(s zygo.Sexp) (decompose.Move, error) {
	if m, ok := s.(*sexpMove); ok {
		return m.move, nil
	}
	return decompose.Move{}, fmt.Errorf("expected move, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toAnnotation converts a scalar or list value into plain Go data for the
// serialized annotations.
func toAnnotation(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return v.Val, nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpStr:
		return strings.TrimPrefix(v.S, kwPrefix), nil
	case *sexpVec3:
		return []float64{v.vec.X, v.vec.Y, v.vec.Z}, nil
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := sexpListToSlice(s)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			if out[i], err = toAnnotation(item); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot annotate with %T (%s)", s, s.SexpString(nil))
}
