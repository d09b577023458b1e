package puzzle

import (
	"encoding/json"
	"fmt"
)

// CaptureOp is the kind of a CaptureNode.
type CaptureOp int

const (
	OpLeaf CaptureOp = iota
	OpUnion
	OpSubtract
	OpIntersection
)

func (op CaptureOp) String() string {
	switch op {
	case OpLeaf:
		return "leaf"
	case OpUnion:
		return "union"
	case OpSubtract:
		return "subtract"
	case OpIntersection:
		return "intersection"
	default:
		return fmt.Sprintf("CaptureOp(%d)", int(op))
	}
}

// ParseCaptureOp maps an op name to a CaptureOp.
func ParseCaptureOp(name string) (CaptureOp, error) {
	switch name {
	case "leaf":
		return OpLeaf, nil
	case "union":
		return OpUnion, nil
	case "subtract":
		return OpSubtract, nil
	case "intersection":
		return OpIntersection, nil
	}
	return 0, fmt.Errorf("puzzle: unknown capture op %q", name)
}

// CaptureNode is a boolean combination of generator regions. A leaf refers
// to a generator by index; inner nodes combine their children. Subtract
// removes the union of the remaining children from the first.
type CaptureNode struct {
	Op        CaptureOp
	Generator int
	Children  []*CaptureNode
}

// Leaf returns a node referring to generator i.
func Leaf(i int) *CaptureNode {
	return &CaptureNode{Op: OpLeaf, Generator: i}
}

// Union returns the union of children.
func Union(children ...*CaptureNode) *CaptureNode {
	return &CaptureNode{Op: OpUnion, Children: children}
}

// Subtract returns first minus the union of rest.
func Subtract(first *CaptureNode, rest ...*CaptureNode) *CaptureNode {
	return &CaptureNode{Op: OpSubtract, Children: append([]*CaptureNode{first}, rest...)}
}

// Intersect returns the intersection of children.
func Intersect(children ...*CaptureNode) *CaptureNode {
	return &CaptureNode{Op: OpIntersection, Children: children}
}

// Leaves returns the generator indices referenced by the tree, depth first.
func (n *CaptureNode) Leaves() []int {
	if n == nil {
		return nil
	}
	if n.Op == OpLeaf {
		return []int{n.Generator}
	}
	var out []int
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

type captureNodeJSON struct {
	Mesh     *int           `json:"mesh,omitempty"`
	Op       string         `json:"op,omitempty"`
	Children []*CaptureNode `json:"children,omitempty"`
}

// MarshalJSON encodes leaves as {"mesh": i} and inner nodes as
// {"op": name, "children": [...]}.
func (n *CaptureNode) MarshalJSON() ([]byte, error) {
	if n.Op == OpLeaf {
		i := n.Generator
		return json.Marshal(captureNodeJSON{Mesh: &i})
	}
	return json.Marshal(captureNodeJSON{Op: n.Op.String(), Children: n.Children})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (n *CaptureNode) UnmarshalJSON(data []byte) error {
	var raw captureNodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Mesh != nil {
		if raw.Op != "" || len(raw.Children) > 0 {
			return fmt.Errorf("puzzle: capture leaf with op or children")
		}
		*n = CaptureNode{Op: OpLeaf, Generator: *raw.Mesh}
		return nil
	}
	op, err := ParseCaptureOp(raw.Op)
	if err != nil {
		return err
	}
	if op == OpLeaf {
		return fmt.Errorf("puzzle: capture leaf without mesh index")
	}
	*n = CaptureNode{Op: op, Children: raw.Children}
	return nil
}
