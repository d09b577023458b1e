// Package validate checks finished puzzles after the fact. Tier 1 checks
// the structure of a serialized description; Tier 2 checks the geometry of
// a decomposition result, most importantly the closure property: no
// fragment may straddle a generator's cut.
//
// The engine itself never proves that a policy's pass sequence separates
// every piece. These checks are a debug self-test for puzzle authors.
package validate

import (
	"fmt"
	"strings"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/puzzle"
)

// ValidationSeverity indicates whether a finding marks the puzzle as broken
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // puzzle output is wrong
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding. Fragment and
// Generator are -1 when the finding does not concern one.
type ValidationError struct {
	Fragment  int
	Generator int
	Message   string
	Severity  ValidationSeverity
}

func (e ValidationError) Error() string {
	var where []string
	if e.Generator >= 0 {
		where = append(where, fmt.Sprintf("generator %d", e.Generator))
	}
	if e.Fragment >= 0 {
		where = append(where, fmt.Sprintf("fragment %d", e.Fragment))
	}
	if len(where) == 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, strings.Join(where, " "), e.Message)
}

// ValidationResult bundles errors and warnings from all tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no errors were found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) add(errs ...ValidationError) {
	for _, e := range errs {
		if e.Severity == SeverityWarning {
			r.Warnings = append(r.Warnings, e)
		} else {
			r.Errors = append(r.Errors, e)
		}
	}
}

// Validate runs all Tier 1 structural checks on a description. An empty
// slice means the description is well formed. It never mutates d.
func Validate(d *puzzle.Description) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateGenerators(d)...)
	errs = append(errs, validateCaptureTrees(d)...)
	errs = append(errs, validateFragments(d)...)
	return errs
}

// ValidateAll runs Tier 1 on the result's description and the Tier 2
// geometric checks on the result itself.
func ValidateAll(res *decompose.Result) ValidationResult {
	var result ValidationResult
	result.add(Validate(res.Describe())...)
	result.add(validateGeometry(res)...)
	return result
}

func generatorError(g int, format string, args ...any) ValidationError {
	return ValidationError{Fragment: -1, Generator: g, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func fragmentError(f int, format string, args ...any) ValidationError {
	return ValidationError{Fragment: f, Generator: -1, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

// validateGenerators checks that every generator can cut and rotate.
func validateGenerators(d *puzzle.Description) []ValidationError {
	var errs []ValidationError
	if len(d.Generators) == 0 {
		errs = append(errs, ValidationError{Fragment: -1, Generator: -1, Message: "puzzle has no generators", Severity: SeverityError})
	}
	for i, g := range d.Generators {
		if _, err := g.Mesh.Mesh(); err != nil {
			errs = append(errs, generatorError(i, "bad mesh: %v", err))
		}
		if len(g.Planes) == 0 {
			errs = append(errs, generatorError(i, "no cutting planes"))
		}
		if g.Axis.Vec().Length() < 1e-12 {
			errs = append(errs, generatorError(i, "zero rotation axis"))
		}
		if g.MinCaptureCount > 0 && g.MaxCaptureCount > 0 && g.MinCaptureCount > g.MaxCaptureCount {
			errs = append(errs, generatorError(i, "min capture count %d exceeds max %d", g.MinCaptureCount, g.MaxCaptureCount))
		}
	}
	return errs
}

// validateCaptureTrees checks that every leaf references an existing
// generator and that inner nodes have children.
func validateCaptureTrees(d *puzzle.Description) []ValidationError {
	var errs []ValidationError
	for i, g := range d.Generators {
		var visit func(n *puzzle.CaptureNode)
		visit = func(n *puzzle.CaptureNode) {
			if n.Op == puzzle.OpLeaf {
				if n.Generator < 0 || n.Generator >= len(d.Generators) {
					errs = append(errs, generatorError(i, "capture tree references generator %d of %d", n.Generator, len(d.Generators)))
				}
				return
			}
			if len(n.Children) == 0 {
				errs = append(errs, generatorError(i, "capture tree %v node has no children", n.Op))
			}
			for _, c := range n.Children {
				visit(c)
			}
		}
		if g.CaptureTree != nil {
			visit(g.CaptureTree)
		}
	}
	return errs
}

// validateFragments checks per-vertex attribute lengths and border indices.
func validateFragments(d *puzzle.Description) []ValidationError {
	var errs []ValidationError
	for i, f := range d.Fragments {
		m, err := f.Mesh.Mesh()
		if err != nil {
			errs = append(errs, fragmentError(i, "bad mesh: %v", err))
			continue
		}
		n := m.VertexCount()
		if f.UVs != nil && len(f.UVs) != n {
			errs = append(errs, fragmentError(i, "%d uvs for %d vertices", len(f.UVs), n))
		}
		if f.Normals != nil && len(f.Normals) != n {
			errs = append(errs, fragmentError(i, "%d normals for %d vertices", len(f.Normals), n))
		}
		if f.TextureNumber < -1 {
			errs = append(errs, fragmentError(i, "texture number %d", f.TextureNumber))
		}
		if f.TextureNumber >= 0 && f.UVs == nil {
			errs = append(errs, fragmentError(i, "texture plane %d assigned without uvs", f.TextureNumber))
		}
		for _, idx := range f.Border {
			if idx < 0 || idx >= n {
				errs = append(errs, fragmentError(i, "border references vertex %d of %d", idx, n))
				break
			}
		}
	}
	return errs
}
