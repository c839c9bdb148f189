package diagram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ziadkadry99/sage/internal/result"
)

func TestDigraph(t *testing.T) {
	dot := Digraph("Supply chain", []Node{
		{Name: "Raw Materials"},
		{Name: "Factory", Label: "Main \"Factory\"", Color: "#ff0000"},
	}, []Edge{
		{From: "Raw Materials", To: "Factory", Label: "feeds"},
	})

	for _, want := range []string{
		"digraph G {",
		`label="Supply chain";`,
		`"n_Raw_Materials" [label="Raw Materials", fillcolor="#7aa2f7"];`,
		`"n_Factory" [label="Main \"Factory\"", fillcolor="#ff0000"];`,
		`"n_Raw_Materials" -> "n_Factory" [label="feeds"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\ngot:\n%s", want, dot)
		}
	}
}

func TestComponentMap(t *testing.T) {
	dot := ComponentMap([]result.SystemComponent{
		{Name: "Sales", HealthScore: result.Num(8), Connections: []string{"Ops", "Finance"}},
		{Name: "Ops", HealthScore: result.Num(3)},
		{Name: "Sales"},
	})

	if got := strings.Count(dot, "fillcolor="); got != 3 {
		t.Errorf("got %d nodes, want 3 (duplicate dropped, Finance added)\n%s", got, dot)
	}
	if !strings.Contains(dot, `label="Sales\n8.0/10", fillcolor="#43e97b"`) {
		t.Errorf("healthy component not coloured green:\n%s", dot)
	}
	if !strings.Contains(dot, `"n_Ops" [label="Ops\n3.0/10", fillcolor="#fa709a"]`) {
		t.Errorf("at-risk component not coloured red:\n%s", dot)
	}
	if !strings.Contains(dot, `"n_Finance" [label="Finance", fillcolor="#565f89"]`) {
		t.Errorf("unknown connection target not added:\n%s", dot)
	}
	if got := strings.Count(dot, "->"); got != 2 {
		t.Errorf("got %d edges, want 2", got)
	}
}

func TestPathModel(t *testing.T) {
	dot := PathModel([]result.PathCoefficient{
		{From: "Trust", To: "Loyalty", Coefficient: result.Num(0.42), PValue: result.Num(0.0004)},
		{From: "Price", To: "Loyalty", Coefficient: result.Num(-0.18), PValue: result.Num(0.03)},
		{From: "", To: "Loyalty"},
	})

	if !strings.Contains(dot, `"n_Trust" -> "n_Loyalty" [label="0.420***"];`) {
		t.Errorf("positive path edge wrong:\n%s", dot)
	}
	if !strings.Contains(dot, `"n_Price" -> "n_Loyalty" [label="-0.180*", color="#f7768e"];`) {
		t.Errorf("negative path edge wrong:\n%s", dot)
	}
	if got := strings.Count(dot, "->"); got != 2 {
		t.Errorf("got %d edges, want 2", got)
	}
}

func TestInlineSVG(t *testing.T) {
	raw := []byte("<?xml version=\"1.0\"?>\n<!DOCTYPE svg>\n<!-- Generated by graphviz -->\n<svg width=\"10\"></svg>\n")
	if got := string(InlineSVG(raw)); got != `<svg width="10"></svg>` {
		t.Errorf("InlineSVG = %q", got)
	}
}

func TestGraphvizEmpty(t *testing.T) {
	g := NewGraphviz()
	defer g.Close()
	if _, err := g.Render(context.Background(), "  \n"); !errors.Is(err, ErrEmptyDiagram) {
		t.Fatalf("err = %v, want ErrEmptyDiagram", err)
	}
}

func TestGraphvizRender(t *testing.T) {
	g := NewGraphviz()
	defer g.Close()

	svg, err := g.Render(context.Background(), Digraph("", []Node{{Name: "a"}, {Name: "b"}}, []Edge{{From: "a", To: "b"}}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(string(svg), "<svg") {
		t.Errorf("expected inline <svg>, got %.60q", svg)
	}
}

func TestSanitizeStripsActiveContent(t *testing.T) {
	in := `<svg viewBox="0 0 10 10"><g id="node1"><a xlink:href="javascript:alert(1)" xlink:title="a"><ellipse cx="1"/><text x="1">a</text></a></g>` +
		`<image xlink:href="file:///etc/passwd" width="1"/><script>alert(2)</script>` +
		`<g onclick="steal()"><text>x</text></g><foreignObject><div>y</div></foreignObject>` +
		`<linearGradient id="l_0"><stop offset="0"/></linearGradient></svg>`
	got := string(Sanitize([]byte(in)))

	for _, banned := range []string{"javascript:", "<a ", "</a>", "passwd", "alert", "onclick", "steal", "foreignObject", "<div>"} {
		if strings.Contains(got, banned) {
			t.Errorf("sanitized SVG still contains %q:\n%s", banned, got)
		}
	}
	for _, kept := range []string{`<svg viewBox="0 0 10 10">`, `<ellipse cx="1"/>`, `<text x="1">a</text>`, `<linearGradient id="l_0"><stop offset="0"/></linearGradient>`, `</svg>`} {
		if !strings.Contains(got, kept) {
			t.Errorf("sanitized SVG lost %q:\n%s", kept, got)
		}
	}
}

func TestGraphvizDropsLinks(t *testing.T) {
	g := NewGraphviz()
	defer g.Close()

	dot := `digraph G { a [URL="javascript:alert(1)", target="_top"]; a -> b [href="javascript:alert(2)"]; }`
	svg, err := g.Render(context.Background(), dot)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(svg), "javascript:") {
		t.Errorf("link survived rendering:\n%s", svg)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("expected inline <svg>, got %.60q", svg)
	}
}
