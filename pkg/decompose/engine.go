// Package decompose implements the multi-pass decomposition engine. It
// splits a working set of fragments against every applicable generator,
// culls slivers, and lets the puzzle policy re-pose fragments with
// simulated twists between passes until the policy reports that the pieces
// are fully separated.
//
// The engine has no convergence test of its own. Whether a policy's pass
// sequence separates every piece is the policy author's responsibility;
// the validate package offers an after-the-fact closure check.
package decompose

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/chazu/twisty/pkg/capture"
	"github.com/chazu/twisty/pkg/kernel"
	"github.com/chazu/twisty/pkg/logs"
	"github.com/chazu/twisty/pkg/mesh"
	"github.com/chazu/twisty/pkg/puzzle"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxPasses bounds runaway policies.
const DefaultMaxPasses = 64

var (
	// ErrNoGenerators is returned for a policy with an empty generator list.
	ErrNoGenerators = errors.New("decompose: policy has no generators")
	// ErrPassLimit is returned when a policy keeps requesting passes past
	// the engine's limit.
	ErrPassLimit = errors.New("decompose: pass limit reached")
)

// Engine runs policies. The zero value is not usable; call New.
type Engine struct {
	Kernel kernel.Kernel
	// Workers bounds parallel splitting. Values below 1 mean GOMAXPROCS.
	Workers int
	// MaxPasses bounds the number of cut passes.
	MaxPasses int
	// WeldEps is the vertex merge tolerance applied to split halves.
	WeldEps float64
	Logger  *slog.Logger
}

// New returns an engine resolving capture regions with k.
func New(k kernel.Kernel) *Engine {
	return &Engine{
		Kernel:    k,
		MaxPasses: DefaultMaxPasses,
		WeldEps:   mesh.Eps,
		Logger:    logs.Nop(),
	}
}

// Result is the outcome of a run.
type Result struct {
	Name       string
	Fragments  []*puzzle.Fragment
	Generators []*puzzle.Generator
	Bandages   bool
	// Passes is the number of cut passes performed.
	Passes      int
	MinMeshArea float64
	Annotations map[string]any
	// Workspace holds the final state for capture queries and validation.
	Workspace *Workspace
}

// Describe returns the serialized form of the result.
func (r *Result) Describe() *puzzle.Description {
	return puzzle.Describe(r.Name, r.Fragments, r.Generators, r.Bandages, r.Annotations)
}

// Run decomposes the policy's initial solids into separated fragments.
func (e *Engine) Run(p Policy) (*Result, error) {
	log := logs.OrNop(e.Logger).With("puzzle", p.Name())
	start := time.Now()

	gens := p.GeneratorMeshes()
	if len(gens) == 0 {
		return nil, ErrNoGenerators
	}
	regions, err := capture.Regions(gens, e.Kernel)
	if err != nil {
		return nil, fmt.Errorf("decompose: %s: %w", p.Name(), err)
	}

	var frags []*puzzle.Fragment
	for _, f := range p.InitialMeshes() {
		frags = append(frags, f.Clone())
	}

	var rep func(*puzzle.Fragment) v3.Vec
	if rp, ok := p.(RepresentativePointer); ok {
		rep = rp.RepresentativePoint
	}
	ws := NewWorkspace(frags, gens, regions, rep)

	maxPasses := e.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	minArea := p.MinMeshArea()

	pass := 0
	for ; ; pass++ {
		if pass >= maxPasses {
			return nil, fmt.Errorf("%w: %s requested more than %d passes", ErrPassLimit, p.Name(), maxPasses)
		}
		for i, g := range gens {
			if !p.CanApplyCutMeshForPass(i, g, pass, gens) {
				continue
			}
			frags, err = e.cut(p, i, g, pass, frags)
			if err != nil {
				return nil, fmt.Errorf("decompose: %s: pass %d generator %d: %w", p.Name(), pass, i, err)
			}
		}

		before := len(frags)
		frags = cull(frags, minArea)
		log.Debug("cut pass", "pass", pass, "fragments", len(frags), "culled", before-len(frags))

		ws.Fragments = frags
		more := p.TransformMeshesForMoreCutting(ws, pass)
		frags = ws.Fragments
		if !more {
			break
		}
	}

	for _, f := range frags {
		f.Center = ws.RepresentativePoint(f)
	}
	ws.Fragments = frags

	annotations := make(map[string]any)
	p.Annotate(annotations)
	if len(annotations) == 0 {
		annotations = nil
	}

	log.Info("decomposed", "passes", pass+1, "fragments", len(frags), "elapsed", time.Since(start))
	return &Result{
		Name:        p.Name(),
		Fragments:   frags,
		Generators:  gens,
		Bandages:    p.Bandages(),
		Passes:      pass + 1,
		MinMeshArea: minArea,
		Annotations: annotations,
		Workspace:   ws,
	}, nil
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// cut applies generator g to every fragment the policy allows. Hooks run
// sequentially in list order; the splits themselves run in parallel and
// write into per-fragment slots so the output order matches the input.
func (e *Engine) cut(p Policy, index int, g *puzzle.Generator, pass int, frags []*puzzle.Fragment) ([]*puzzle.Fragment, error) {
	apply := make([]bool, len(frags))
	for i, f := range frags {
		apply[i] = p.CanApplyCutMeshToMesh(index, g, pass, f)
	}

	parts := make([][]*puzzle.Fragment, len(frags))
	var eg errgroup.Group
	eg.SetLimit(e.workers())
	for i, f := range frags {
		if !apply[i] {
			parts[i] = []*puzzle.Fragment{f}
			continue
		}
		eg.Go(func() error {
			parts[i] = e.split(f, g)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]*puzzle.Fragment, 0, len(frags))
	for _, ps := range parts {
		out = append(out, ps...)
	}
	return out, nil
}

// split cuts f against g's convex region, returning the back half first.
// A fragment lying wholly on one side is returned unchanged.
func (e *Engine) split(f *puzzle.Fragment, g *puzzle.Generator) []*puzzle.Fragment {
	inside, outside := f.Mesh.SplitConvex(g.Planes(), mesh.Eps)
	if inside.IsEmpty() || outside.IsEmpty() {
		return []*puzzle.Fragment{f}
	}
	return []*puzzle.Fragment{
		f.Derive(inside.Weld(e.WeldEps)),
		f.Derive(outside.Weld(e.WeldEps)),
	}
}

// cull drops fragments whose area is below minArea.
func cull(frags []*puzzle.Fragment, minArea float64) []*puzzle.Fragment {
	out := frags[:0]
	for _, f := range frags {
		if f.Area() >= minArea {
			out = append(out, f)
		}
	}
	return out
}
