// Package graph flattens dependency trees into node-link graphs and
// renders them as DOT, Mermaid, SVG, or PNG.
//
// A tree repeats shared dependencies once per occurrence; the graph
// form merges occurrences by name, which is what visualization wants.
package graph

import (
	"github.com/rostree/rostree/pkg/tree"
)

// Node is one package in the flattened graph.
type Node struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Status  tree.Status `json:"status"`
}

// Edge is a directed dependency from one package to another.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a deduplicated node-link view of a dependency tree. Nodes
// and edges keep first-visit order, so output is deterministic for a
// given tree.
type Graph struct {
	Root  string `json:"root"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// FromTree flattens a dependency tree. Occurrences of the same name
// merge into one node; the first occurrence supplies the metadata,
// except that a resolved occurrence always upgrades an earlier
// unresolved one. Cycle markers merge into the package they point back
// to, so a cycle shows up as a back edge rather than a duplicate node.
func FromTree(root *tree.Node) *Graph {
	g := &Graph{Root: root.Name, Nodes: []Node{}, Edges: []Edge{}}
	index := make(map[string]int)
	seenEdge := make(map[Edge]struct{})

	var add func(n *tree.Node)
	add = func(n *tree.Node) {
		if i, ok := index[n.Name]; ok {
			if g.Nodes[i].Status != tree.StatusResolved && n.Status == tree.StatusResolved {
				g.Nodes[i] = Node{Name: n.Name, Version: n.Version, Status: n.Status}
			}
		} else {
			index[n.Name] = len(g.Nodes)
			g.Nodes = append(g.Nodes, Node{Name: n.Name, Version: n.Version, Status: n.Status})
		}
		for _, c := range n.Children {
			e := Edge{From: n.Name, To: c.Name}
			if _, dup := seenEdge[e]; !dup {
				seenEdge[e] = struct{}{}
				g.Edges = append(g.Edges, e)
			}
			add(c)
		}
	}
	add(root)
	return g
}
