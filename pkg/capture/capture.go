// Package capture walks generator capture trees and resolves them into
// kernel regions. A leaf stands for the raw convex region of the generator
// it names; inner nodes are combined with the kernel's boolean operations.
// The capture tree is read-only and never mutated.
package capture

import (
	"fmt"

	"github.com/chazu/twisty/pkg/kernel"
	"github.com/chazu/twisty/pkg/puzzle"
)

// Regions returns one capture region per generator: the resolved capture
// tree when the generator has one, its own convex region otherwise.
func Regions(gens []*puzzle.Generator, k kernel.Kernel) ([]kernel.Region, error) {
	out := make([]kernel.Region, len(gens))
	for i, g := range gens {
		if g.CaptureTree == nil {
			out[i] = k.Polytope(g.Planes())
			continue
		}
		r, err := Resolve(g.CaptureTree, gens, k)
		if err != nil {
			return nil, fmt.Errorf("capture: generator %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// Resolve combines the tree rooted at root into a single region.
func Resolve(root *puzzle.CaptureNode, gens []*puzzle.Generator, k kernel.Kernel) (kernel.Region, error) {
	if root == nil {
		return nil, fmt.Errorf("capture: nil capture tree")
	}
	return walkNode(root, gens, k)
}

// walkNode recursively resolves a node and its children.
func walkNode(n *puzzle.CaptureNode, gens []*puzzle.Generator, k kernel.Kernel) (kernel.Region, error) {
	switch n.Op {
	case puzzle.OpLeaf:
		return handleLeaf(n, gens, k)

	case puzzle.OpUnion:
		return fold(n, gens, k, k.Union)

	case puzzle.OpIntersection:
		return fold(n, gens, k, k.Intersection)

	case puzzle.OpSubtract:
		return handleSubtract(n, gens, k)

	default:
		return nil, fmt.Errorf("unknown capture op: %v", n.Op)
	}
}

func handleLeaf(n *puzzle.CaptureNode, gens []*puzzle.Generator, k kernel.Kernel) (kernel.Region, error) {
	if n.Generator < 0 || n.Generator >= len(gens) {
		return nil, fmt.Errorf("leaf references generator %d of %d", n.Generator, len(gens))
	}
	return k.Polytope(gens[n.Generator].Planes()), nil
}

// fold resolves every child and combines them left to right with op.
func fold(n *puzzle.CaptureNode, gens []*puzzle.Generator, k kernel.Kernel, op func(a, b kernel.Region) kernel.Region) (kernel.Region, error) {
	if len(n.Children) == 0 {
		return nil, fmt.Errorf("%v node has no children", n.Op)
	}
	var acc kernel.Region
	for i, c := range n.Children {
		r, err := walkNode(c, gens, k)
		if err != nil {
			return nil, fmt.Errorf("%v child %d: %w", n.Op, i, err)
		}
		if acc == nil {
			acc = r
		} else {
			acc = op(acc, r)
		}
	}
	return acc, nil
}

// handleSubtract removes the union of the remaining children from the
// first child.
func handleSubtract(n *puzzle.CaptureNode, gens []*puzzle.Generator, k kernel.Kernel) (kernel.Region, error) {
	if len(n.Children) == 0 {
		return nil, fmt.Errorf("subtract node has no children")
	}
	base, err := walkNode(n.Children[0], gens, k)
	if err != nil {
		return nil, fmt.Errorf("subtract base: %w", err)
	}
	if len(n.Children) == 1 {
		return base, nil
	}
	rest, err := fold(&puzzle.CaptureNode{Op: puzzle.OpUnion, Children: n.Children[1:]}, gens, k, k.Union)
	if err != nil {
		return nil, fmt.Errorf("subtract: %w", err)
	}
	return k.Difference(base, rest), nil
}
