package decompose

import (
	"slices"

	"github.com/chazu/twisty/pkg/puzzle"
)

// Pass describes one cut pass of a Scheduled policy.
type Pass struct {
	// Generators lists the generator indices that cut during the pass;
	// nil means all of them.
	Generators []int
	// Moves are applied after the pass's cuts, in order.
	Moves []Move
}

// Scheduled is a declarative policy: a fixed generator list plus a list of
// passes, each naming the generators that cut and the simulated moves that
// follow. With no passes it performs a single pass with every generator.
type Scheduled struct {
	Base

	Title      string
	Generators []*puzzle.Generator
	Passes     []Pass
	// Initial overrides the default six cube faces.
	Initial     []*puzzle.Fragment
	MinArea     float64
	Bandaged    bool
	Annotations map[string]any
}

var _ Policy = (*Scheduled)(nil)

func (s *Scheduled) Name() string {
	if s.Title == "" {
		return "scheduled"
	}
	return s.Title
}

func (s *Scheduled) InitialMeshes() []*puzzle.Fragment {
	if s.Initial == nil {
		return CubeFaces()
	}
	return s.Initial
}

func (s *Scheduled) GeneratorMeshes() []*puzzle.Generator { return s.Generators }

func (s *Scheduled) Bandages() bool { return s.Bandaged }

func (s *Scheduled) MinMeshArea() float64 {
	if s.MinArea > 0 {
		return s.MinArea
	}
	return DefaultMinMeshArea
}

func (s *Scheduled) CanApplyCutMeshForPass(index int, _ *puzzle.Generator, pass int, _ []*puzzle.Generator) bool {
	if pass >= len(s.Passes) || s.Passes[pass].Generators == nil {
		return true
	}
	return slices.Contains(s.Passes[pass].Generators, index)
}

func (s *Scheduled) TransformMeshesForMoreCutting(ws *Workspace, pass int) bool {
	if pass >= len(s.Passes) {
		return false
	}
	for _, m := range s.Passes[pass].Moves {
		ws.ApplyMove(m)
	}
	return pass+1 < len(s.Passes)
}

func (s *Scheduled) Annotate(data map[string]any) {
	for k, v := range s.Annotations {
		data[k] = v
	}
}

// WithoutMoves returns a copy of s whose hook never requests another pass,
// as if the puzzle were cut once with no simulated twists.
func (s *Scheduled) WithoutMoves() *Scheduled {
	c := *s
	c.Passes = nil
	if len(s.Passes) > 0 {
		c.Passes = []Pass{{Generators: s.Passes[0].Generators}}
	}
	return &c
}
