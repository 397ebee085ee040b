package graph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/rostree/rostree/pkg/errors"
	"github.com/rostree/rostree/pkg/tree"
)

// DOTOptions configures DOT emission.
type DOTOptions struct {
	// Detailed appends versions to node labels.
	Detailed bool
}

// ToDOT emits the graph in Graphviz DOT form. Left-to-right rank
// direction reads naturally for dependency chains; the root gets a
// distinct fill, and unresolved nodes are colored by status.
func ToDOT(g *Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, opts.Detailed))}
		if n.Name == g.Root {
			attrs = append(attrs, "fillcolor=lightblue", "penwidth=2")
		} else if fill := statusFill(n.Status); fill != "" {
			attrs = append(attrs, "fillcolor="+fill)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n Node, detailed bool) string {
	if detailed && n.Version != "" {
		return n.Name + "\n" + n.Version
	}
	return n.Name
}

func statusFill(s tree.Status) string {
	switch s {
	case tree.StatusNotFound:
		return "mistyrose"
	case tree.StatusParseError:
		return "lightsalmon"
	case tree.StatusTruncated, tree.StatusCycle:
		return "lightgrey"
	}
	return ""
}

// RenderSVG renders a DOT document to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT document to PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render graph")
	}
	return buf.Bytes(), nil
}
