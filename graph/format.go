package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const separatorWidth = 60 // Width of separator lines in text output

// JSONGraph is the ToJSON document.
type JSONGraph struct {
	Nodes []JSONNode `json:"nodes"`
}

// JSONNode is one node in the ToJSON document.
type JSONNode struct {
	ID           string   `json:"id"`
	Seq          int      `json:"seq"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// ToJSON outputs every node in registration order.
func (g *Graph) ToJSON() ([]byte, error) {
	doc := JSONGraph{Nodes: make([]JSONNode, len(g.ids))}
	for i, id := range g.ids {
		doc.Nodes[i] = JSONNode{ID: id, Seq: i, Dependencies: g.names(g.deps[i])}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ToDOT outputs the graph in Graphviz DOT format. When ids is non-empty only
// those nodes and the edges between them are drawn; unknown ids are skipped.
func (g *Graph) ToDOT(ids ...string) string {
	include := make([]bool, len(g.ids))
	if len(ids) == 0 {
		for i := range include {
			include[i] = true
		}
	}
	for _, id := range ids {
		if i, ok := g.index[id]; ok {
			include[i] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	for i, id := range g.ids {
		if include[i] {
			fmt.Fprintf(&buf, "  %q;\n", id)
		}
	}
	buf.WriteString("\n")

	for i, id := range g.ids {
		if !include[i] {
			continue
		}
		for _, d := range g.deps[i] {
			if include[d] {
				fmt.Fprintf(&buf, "  %q -> %q;\n", id, g.ids[d])
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToText outputs a summary followed by one dependency tree per root.
// Shared subtrees are printed once and marked "(see above)" afterwards.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	stats := g.Stats()
	buf.WriteString("Feature Module Graph\n")
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")
	fmt.Fprintf(&buf, "Modules: %d\n", stats.Nodes)
	fmt.Fprintf(&buf, "Edges: %d\n", stats.Edges)
	fmt.Fprintf(&buf, "Roots: %d\n", stats.Roots)
	fmt.Fprintf(&buf, "Leaves: %d\n", stats.Leaves)
	fmt.Fprintf(&buf, "Max depth: %d\n\n", stats.MaxDepth)

	printed := make([]bool, len(g.ids))
	for i := range g.ids {
		if len(g.rdeps[i]) == 0 {
			g.printTree(&buf, i, "", true, true, printed)
		}
	}
	return buf.String()
}

func (g *Graph) printTree(buf *bytes.Buffer, n int, prefix string, isLast, top bool, printed []bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if top {
		buf.WriteString(g.ids[n])
	} else {
		buf.WriteString(prefix + connector + g.ids[n])
	}

	if printed[n] && len(g.deps[n]) > 0 {
		buf.WriteString(" (see above)\n")
		return
	}
	buf.WriteString("\n")
	printed[n] = true

	childPrefix := prefix
	if !top {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, d := range g.deps[n] {
		g.printTree(buf, d, childPrefix, i == len(g.deps[n])-1, false, printed)
	}
}
