// Package postprocess computes the rendering attributes of a finished
// fragment set: texture planes and UV coordinates, smooth vertex normals
// and border loops.
package postprocess

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/chazu/twisty/pkg/logs"
	"github.com/chazu/twisty/pkg/puzzle"
	"golang.org/x/sync/errgroup"
)

// Options configures Run.
type Options struct {
	// Workers bounds the parallel normal and border passes. Values below 1
	// mean GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// ErrNoMesh is returned by Run for a fragment without a mesh.
var ErrNoMesh = errors.New("postprocess: fragment has no mesh")

// Run fills in UVs, TextureNumber, Normals and Border for every fragment.
// UV assignment is sequential and deterministic; normals and borders are
// computed per fragment in parallel. It returns the number of texture
// planes.
func Run(frags []*puzzle.Fragment, opts Options) (int, error) {
	log := logs.OrNop(opts.Logger)
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	planes := AssignUVs(frags)

	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, f := range frags {
		eg.Go(func() error {
			if f.Mesh == nil {
				return fmt.Errorf("%w: fragment %d", ErrNoMesh, i)
			}
			f.Normals = Normals(f.Mesh)
			f.Border = Border(f)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	missing := 0
	for _, f := range frags {
		if !f.HasBorder() {
			missing++
		}
	}
	log.Debug("post-processed", "fragments", len(frags), "texture_planes", planes, "without_border", missing)
	return planes, nil
}

// Border returns f's single boundary loop, or nil when the boundary is not
// exactly one simple cycle. Outline rendering is then skipped for f.
func Border(f *puzzle.Fragment) []int {
	loop, ok := f.Mesh.BorderLoop()
	if !ok {
		return nil
	}
	return loop
}
