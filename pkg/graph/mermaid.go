package graph

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rostree/rostree/pkg/tree"
)

// ToMermaid emits the graph as a Mermaid flowchart, suitable for
// embedding in Markdown. Node ids are sanitized package names; labels
// keep the original name.
func ToMermaid(g *Graph) string {
	var buf bytes.Buffer
	buf.WriteString("flowchart LR\n")

	for _, n := range g.Nodes {
		id := mermaidID(n.Name)
		fmt.Fprintf(&buf, "    %s[\"%s\"]\n", id, n.Name)
		if class := mermaidClass(n, g.Root); class != "" {
			fmt.Fprintf(&buf, "    class %s %s\n", id, class)
		}
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "    %s --> %s\n", mermaidID(e.From), mermaidID(e.To))
	}

	buf.WriteString("    classDef root fill:#bde0fe,stroke:#333\n")
	buf.WriteString("    classDef missing fill:#ffe5e5,stroke:#c33\n")
	buf.WriteString("    classDef pruned fill:#eee,stroke:#999\n")
	return buf.String()
}

func mermaidClass(n Node, root string) string {
	switch {
	case n.Name == root:
		return "root"
	case n.Status == tree.StatusNotFound || n.Status == tree.StatusParseError:
		return "missing"
	case n.Status == tree.StatusTruncated || n.Status == tree.StatusCycle:
		return "pruned"
	}
	return ""
}

// mermaidID maps a package name to a Mermaid-safe identifier. ROS
// names are already close; anything else becomes an underscore.
func mermaidID(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}
