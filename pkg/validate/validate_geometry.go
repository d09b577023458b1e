package validate

import (
	"fmt"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/mesh"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// sliverFactor flags fragments whose area is within this factor of the
// culling threshold.
const sliverFactor = 2

// validateGeometry runs all Tier 2 geometric checks.
func validateGeometry(res *decompose.Result) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateClosure(res)...)
	errs = append(errs, validateUnderCut(res)...)
	errs = append(errs, validateCaptureCounts(res)...)
	errs = append(errs, validateSlivers(res)...)
	return errs
}

// validateClosure checks that no fragment straddles any generator. On a
// bandaged puzzle some pieces legitimately span a cut, so the finding is
// only a warning there.
func validateClosure(res *decompose.Result) []ValidationError {
	ws := res.Workspace
	severity := SeverityError
	if res.Bandages {
		severity = SeverityWarning
	}

	var errs []ValidationError
	for g := range ws.Generators {
		for i, f := range ws.Fragments {
			if ws.Straddles(g, f) {
				errs = append(errs, ValidationError{
					Fragment:  i,
					Generator: g,
					Message:   "fragment straddles the cut",
					Severity:  severity,
				})
			}
		}
	}
	return errs
}

// validateUnderCut checks that no representative point lies on a capture
// surface, which would make the capture decision arbitrary.
func validateUnderCut(res *decompose.Result) []ValidationError {
	ws := res.Workspace
	var errs []ValidationError
	for g := range ws.Generators {
		for i, f := range ws.Fragments {
			p := ws.RepresentativePoint(f)
			if ws.Side(g, p) == mesh.SideOn {
				errs = append(errs, ValidationError{
					Fragment:  i,
					Generator: g,
					Message:   fmt.Sprintf("representative point %v lies on the capture surface", p),
					Severity:  SeverityError,
				})
			}
		}
	}
	return errs
}

// validateCaptureCounts checks each generator's min/max capture bounds
// against the number of pieces it captures. A piece is a group of
// fragments every generator captures together.
func validateCaptureCounts(res *decompose.Result) []ValidationError {
	ws := res.Workspace
	pieces := ws.GroupPieces()

	var errs []ValidationError
	for g, gen := range ws.Generators {
		if gen.MinCaptureCount == 0 && gen.MaxCaptureCount == 0 {
			continue
		}
		count := 0
		for _, piece := range pieces {
			if ws.Captures(g, ws.Fragments[piece[0]]) {
				count++
			}
		}
		if gen.MinCaptureCount > 0 && count < gen.MinCaptureCount {
			errs = append(errs, generatorError(g, "captures %d pieces, fewer than the minimum %d", count, gen.MinCaptureCount))
		}
		if gen.MaxCaptureCount > 0 && count > gen.MaxCaptureCount {
			errs = append(errs, generatorError(g, "captures %d pieces, more than the maximum %d", count, gen.MaxCaptureCount))
		}
	}
	return errs
}

// validateSlivers warns about fragments barely above the culling
// threshold; they are usually artifacts of curved cuts.
func validateSlivers(res *decompose.Result) []ValidationError {
	if res.MinMeshArea <= 0 {
		return nil
	}
	var errs []ValidationError
	for i, f := range res.Fragments {
		if a := f.Area(); a < sliverFactor*res.MinMeshArea {
			errs = append(errs, ValidationError{
				Fragment:  i,
				Generator: -1,
				Message:   fmt.Sprintf("sliver fragment with area %.6f", a),
				Severity:  SeverityWarning,
			})
		}
	}
	return errs
}
