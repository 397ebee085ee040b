// Package tree builds dependency trees for ROS 2 packages.
//
// A tree is assembled by recursively resolving package names to
// manifests (pkg/workspace) and parsing them (pkg/manifest). Every
// occurrence of a package is resolved independently, so diamond
// dependencies appear once per position. Cycles, missing packages,
// malformed manifests, and depth/node-budget truncation all terminate
// a branch with a typed status instead of failing the build.
package tree

// Status discriminates how a node was produced. It is a first-class
// field, never folded into the description text.
type Status string

const (
	// StatusResolved means the manifest was found and parsed.
	StatusResolved Status = "resolved"
	// StatusNotFound means no manifest was located for the name.
	StatusNotFound Status = "not-found"
	// StatusCycle means the name already occurs among the node's
	// strict ancestors; the branch stops here.
	StatusCycle Status = "cycle"
	// StatusParseError means a manifest was located but could not be
	// parsed.
	StatusParseError Status = "parse-error"
	// StatusTruncated means the depth or node budget was reached
	// before the node could be expanded. Distinct from not-found: the
	// package may well exist.
	StatusTruncated Status = "truncated"
)

// Node is one package occurrence in a dependency tree. A tree is
// immutable once returned: consumers traverse it read-only, and a node
// exclusively owns its children.
type Node struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	Description string  `json:"description"`
	Path        string  `json:"path"`
	Status      Status  `json:"status"`
	Children    []*Node `json:"children"`
}

// newLeaf builds a childless node with the given status. Children is
// non-nil so the JSON form is always a list.
func newLeaf(name string, status Status) *Node {
	return &Node{Name: name, Status: status, Children: []*Node{}}
}

// Resolved reports whether the node carries parsed metadata.
func (n *Node) Resolved() bool { return n.Status == StatusResolved }

// Count returns the total number of nodes in the subtree, including
// the receiver.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Height returns the longest edge count from the receiver to a leaf.
func (n *Node) Height() int {
	max := 0
	for _, c := range n.Children {
		if h := c.Height() + 1; h > max {
			max = h
		}
	}
	return max
}

// Walk visits every node in depth-first declaration order. depth is
// measured in edges from the receiver.
func (n *Node) Walk(visit func(node *Node, depth int)) {
	n.walk(visit, 0)
}

func (n *Node) walk(visit func(*Node, int), depth int) {
	visit(n, depth)
	for _, c := range n.Children {
		c.walk(visit, depth+1)
	}
}
