// Package learn serves the static "learn more" material shown in the last
// tab of every analysis page.
package learn

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/sage/internal/result"
)

//go:embed content/*.md
var content embed.FS

// ErrNoContent is returned for a kind without learn-more material.
var ErrNoContent = errors.New("no learn-more content")

// Library converts the embedded markdown once per kind and keeps the HTML.
type Library struct {
	md goldmark.Markdown

	mu    sync.Mutex
	pages map[result.Kind]template.HTML
}

// New returns a library backed by the embedded content.
func New() *Library {
	return &Library{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("monokai"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
		pages: make(map[result.Kind]template.HTML),
	}
}

// HTML returns the rendered learn-more page for kind.
func (l *Library) HTML(kind result.Kind) (template.HTML, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if page, ok := l.pages[kind]; ok {
		return page, nil
	}

	src, err := content.ReadFile("content/" + string(kind) + ".md")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w for %s", ErrNoContent, kind)
		}
		return "", fmt.Errorf("reading learn-more content: %w", err)
	}

	var buf bytes.Buffer
	if err := l.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("converting learn-more content for %s: %w", kind, err)
	}
	// Embedded content is authored in-repo, never backend-supplied.
	page := template.HTML(buf.String())
	l.pages[kind] = page
	return page, nil
}

// Kinds lists the kinds that have content.
func Kinds() []result.Kind {
	entries, err := content.ReadDir("content")
	if err != nil {
		return nil
	}
	kinds := make([]result.Kind, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".md"); ok {
			kinds = append(kinds, result.Kind(name))
		}
	}
	return kinds
}
