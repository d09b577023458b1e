// Package catalog holds the built-in puzzle definitions.
package catalog

import (
	"fmt"
	"slices"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/samber/lo"
)

// registry maps puzzle names to constructors.
var registry = map[string]func() decompose.Policy{
	"RubiksCube":   func() decompose.Policy { return RubiksCube{} },
	"PocketCube":   func() decompose.Policy { return PocketCube{} },
	"Skewb":        func() decompose.Policy { return Skewb{} },
	"OffsetCube":   func() decompose.Policy { return OffsetCube{} },
	"CurvyCorners": func() decompose.Policy { return CurvyCorners{} },
}

// Names returns the registered puzzle names in sorted order.
func Names() []string {
	names := lo.Keys(registry)
	slices.Sort(names)
	return names
}

// Lookup returns a fresh policy for the named puzzle.
func Lookup(name string) (decompose.Policy, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("catalog: unknown puzzle %q", name)
	}
	return ctor(), nil
}

// All returns a fresh policy for every registered puzzle, sorted by name.
func All() []decompose.Policy {
	return lo.Map(Names(), func(name string, _ int) decompose.Policy {
		return registry[name]()
	})
}
