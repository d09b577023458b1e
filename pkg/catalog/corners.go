package catalog

import (
	"math"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// tetraAxes are four alternate corner directions of the cube.
var tetraAxes = []v3.Vec{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
}

// Skewb is the deep-cut corner-turning cube. Each cut plane passes through
// the center perpendicular to a body diagonal.
type Skewb struct{ decompose.Base }

func (Skewb) Name() string { return "Skewb" }

func (Skewb) GeneratorMeshes() []*puzzle.Generator {
	gens := make([]*puzzle.Generator, len(tetraAxes))
	for i, a := range tetraAxes {
		disk := mesh.Disk(v3.Vec{}, a.Neg(), diskRadius, 6)
		gens[i] = puzzle.NewGenerator(disk, v3.Vec{}, a, 2*math.Pi/3)
	}
	return gens
}

// curvyRadius keeps neighboring corner caps apart along each cube edge.
const curvyRadius = 0.9

// CurvyCorners turns a spherical cap around each of the eight corners.
type CurvyCorners struct{ decompose.Base }

func (CurvyCorners) Name() string { return "CurvyCorners" }

func (CurvyCorners) GeneratorMeshes() []*puzzle.Generator {
	var gens []*puzzle.Generator
	for _, x := range []float64{-1, 1} {
		for _, y := range []float64{-1, 1} {
			for _, z := range []float64{-1, 1} {
				c := v3.Vec{X: x, Y: y, Z: z}
				g := puzzle.NewGenerator(mesh.Sphere(c, curvyRadius, 1), c, c, 2*math.Pi/3)
				g.MaxCaptureCount = 1
				gens = append(gens, g)
			}
		}
	}
	return gens
}

func (CurvyCorners) MinMeshArea() float64 { return 0.01 }
