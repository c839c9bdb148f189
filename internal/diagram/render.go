// Package diagram renders DOT graph descriptions to inline SVG and builds
// DOT for the analyses that do not ship their own.
package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-graphviz"
)

// ErrEmptyDiagram is returned when there is no DOT source to render.
var ErrEmptyDiagram = errors.New("empty diagram")

// Renderer turns DOT source into SVG markup suitable for inlining in HTML.
type Renderer interface {
	Render(ctx context.Context, dot string) ([]byte, error)
}

// Graphviz renders DOT with an embedded Graphviz. The engine is created on
// first use and every render is serialised through it.
type Graphviz struct {
	mu sync.Mutex
	gv *graphviz.Graphviz
}

// NewGraphviz returns a renderer. Call Close when done.
func NewGraphviz() *Graphviz {
	return &Graphviz{}
}

// Render lays out dot and returns the <svg> element without the XML prolog.
// The DOT styling is used as given; URL and href attributes are not, see
// Sanitize.
func (g *Graphviz) Render(ctx context.Context, dot string) ([]byte, error) {
	if strings.TrimSpace(dot) == "" {
		return nil, ErrEmptyDiagram
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gv == nil {
		gv, err := graphviz.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create graphviz: %w", err)
		}
		g.gv = gv
	}

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := g.gv.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	return Sanitize(InlineSVG(buf.Bytes())), nil
}

// Close releases the Graphviz engine.
func (g *Graphviz) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gv == nil {
		return nil
	}
	err := g.gv.Close()
	g.gv = nil
	return err
}

// InlineSVG drops everything before the <svg> element: the XML prolog,
// doctype and generator comment are invalid inside an HTML fragment.
func InlineSVG(svg []byte) []byte {
	if i := bytes.Index(svg, []byte("<svg")); i > 0 {
		svg = svg[i:]
	}
	return bytes.TrimSpace(svg)
}
