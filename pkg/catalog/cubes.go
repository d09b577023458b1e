package catalog

import (
	"math"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// diskRadius is large enough for a cut disk to cover a whole cube face.
const diskRadius = 4

// faceAxes lists the face directions in L, R, D, U, B, F order.
var faceAxes = []v3.Vec{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}, {Z: -1}, {Z: 1}}

// faceTurns returns one quarter-turn generator per face. Each cut disk sits
// at the given distance from the center along its face axis and faces the
// center, so the captured side is the outer layer.
func faceTurns(offset float64) []*puzzle.Generator {
	gens := make([]*puzzle.Generator, len(faceAxes))
	for i, a := range faceAxes {
		disk := mesh.Disk(a.MulScalar(offset), a.Neg(), diskRadius, 4)
		gens[i] = puzzle.NewGenerator(disk, v3.Vec{}, a, math.Pi/2)
	}
	return gens
}

// RubiksCube is the 3x3x3 cube.
type RubiksCube struct{ decompose.Base }

func (RubiksCube) Name() string { return "RubiksCube" }

func (RubiksCube) GeneratorMeshes() []*puzzle.Generator { return faceTurns(1.0 / 3) }

// PocketCube is the 2x2x2 cube. Opposite faces share a cut plane.
type PocketCube struct{ decompose.Base }

func (PocketCube) Name() string { return "PocketCube" }

func (PocketCube) GeneratorMeshes() []*puzzle.Generator { return faceTurns(0) }

// OffsetCube turns two overlapping slabs, x > 1/2 and y > 1/2. A single pass
// cannot separate its pieces: the x slab is turned between passes so the y
// cut reaches the stickers that were on the back face, then turned back.
type OffsetCube struct{ decompose.Base }

func (OffsetCube) Name() string { return "OffsetCube" }

func (OffsetCube) GeneratorMeshes() []*puzzle.Generator {
	return []*puzzle.Generator{
		puzzle.NewGenerator(mesh.Disk(v3.Vec{X: 0.5}, v3.Vec{X: -1}, diskRadius, 4), v3.Vec{}, v3.Vec{X: 1}, math.Pi/2),
		puzzle.NewGenerator(mesh.Disk(v3.Vec{Y: 0.5}, v3.Vec{Y: -1}, diskRadius, 4), v3.Vec{}, v3.Vec{Y: 1}, math.Pi/2),
	}
}

func (OffsetCube) TransformMeshesForMoreCutting(ws *decompose.Workspace, pass int) bool {
	x := ws.GeneratorByAxis(v3.Vec{X: 1})
	switch pass {
	case 0:
		ws.Apply(x, false)
		return true
	case 1:
		ws.Apply(x, true)
	}
	return false
}

func (OffsetCube) Annotate(data map[string]any) {
	data["passes"] = 2
}
