package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ziadkadry99/sage/internal/format"
	"github.com/ziadkadry99/sage/internal/result"
)

// Node is a vertex in a generated diagram.
type Node struct {
	Name  string
	Label string
	Color string
}

// Edge is a directed edge between two nodes.
type Edge struct {
	From  string
	To    string
	Label string
	Color string
}

// Health colours for component maps.
const (
	colorHealthy = "#43e97b"
	colorWatch   = "#fee140"
	colorAtRisk  = "#fa709a"
	colorUnknown = "#565f89"
)

// Digraph writes a left-to-right directed graph on the dark theme.
func Digraph(title string, nodes []Node, edges []Edge) string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  bgcolor=\"transparent\";\n")
	sb.WriteString("  pad=0.4;\n")
	sb.WriteString("  nodesep=0.6;\n")
	sb.WriteString("  ranksep=1.0;\n")
	if title != "" {
		sb.WriteString(fmt.Sprintf("  label=%s;\n", quote(title)))
		sb.WriteString("  labelloc=t;\n")
		sb.WriteString("  fontcolor=\"#c0caf5\";\n")
		sb.WriteString("  fontname=\"Helvetica-Bold\";\n")
	}
	sb.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, fontcolor=\"#1a1b26\", penwidth=0];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10, fontcolor=\"#a9b1d6\", color=\"#7aa2f7\", penwidth=1.5];\n\n")

	for _, n := range nodes {
		label := n.Label
		if label == "" {
			label = n.Name
		}
		color := n.Color
		if color == "" {
			color = "#7aa2f7"
		}
		sb.WriteString(fmt.Sprintf("  %s [label=%s, fillcolor=%s];\n", sanitizeID(n.Name), quote(label), quote(color)))
	}

	if len(edges) > 0 {
		sb.WriteString("\n")
	}
	for _, e := range edges {
		var attrs []string
		if e.Label != "" {
			attrs = append(attrs, "label="+quote(e.Label))
		}
		if e.Color != "" {
			attrs = append(attrs, "color="+quote(e.Color))
		}
		line := fmt.Sprintf("  %s -> %s", sanitizeID(e.From), sanitizeID(e.To))
		if len(attrs) > 0 {
			line += " [" + strings.Join(attrs, ", ") + "]"
		}
		sb.WriteString(line + ";\n")
	}

	sb.WriteString("}\n")
	return sb.String()
}

// ComponentMap draws living-system components coloured by health score
// (0-10 scale) with an edge for each declared connection. Connections to
// names that are not components still get a node.
func ComponentMap(components []result.SystemComponent) string {
	known := make(map[string]bool, len(components))
	nodes := make([]Node, 0, len(components))
	for _, c := range components {
		if c.Name == "" || known[c.Name] {
			continue
		}
		known[c.Name] = true
		label := c.Name
		if f, ok := c.HealthScore.Float(); ok {
			label = fmt.Sprintf("%s\\n%s/10", c.Name, format.Fixed(f, 1))
		}
		nodes = append(nodes, Node{Name: c.Name, Label: label, Color: healthColor(c.HealthScore)})
	}

	var edges []Edge
	var extra []string
	for _, c := range components {
		for _, to := range c.Connections {
			to = strings.TrimSpace(to)
			if to == "" || c.Name == "" {
				continue
			}
			if !known[to] {
				known[to] = true
				extra = append(extra, to)
			}
			edges = append(edges, Edge{From: c.Name, To: to})
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		nodes = append(nodes, Node{Name: name, Color: colorUnknown})
	}
	return Digraph("", nodes, edges)
}

// PathModel draws structural paths between constructs, labelling each edge
// with its coefficient and significance stars. Negative paths are red.
func PathModel(paths []result.PathCoefficient) string {
	seen := make(map[string]bool)
	var nodes []Node
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		nodes = append(nodes, Node{Name: name, Color: "#7dcfff"})
	}

	edges := make([]Edge, 0, len(paths))
	for _, p := range paths {
		if p.From == "" || p.To == "" {
			continue
		}
		add(p.From)
		add(p.To)
		e := Edge{From: p.From, To: p.To, Label: format.Fixed(p.Coefficient, 3) + format.Stars(p.PValue)}
		if f, ok := p.Coefficient.Float(); ok && f < 0 {
			e.Color = "#f7768e"
		}
		edges = append(edges, e)
	}
	return Digraph("", nodes, edges)
}

func healthColor(score result.Number) string {
	f, ok := score.Float()
	switch {
	case !ok:
		return colorUnknown
	case f >= 7:
		return colorHealthy
	case f >= 4:
		return colorWatch
	default:
		return colorAtRisk
	}
}

// sanitizeID converts a name into a quoted DOT identifier.
func sanitizeID(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		".", "_",
		"-", "_",
		" ", "_",
		"(", "_",
		")", "_",
		":", "_",
	)
	return quote("n_" + replacer.Replace(s))
}

// quote returns s as a DOT double-quoted string.
func quote(s string) string {
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return "\"" + s + "\""
}
