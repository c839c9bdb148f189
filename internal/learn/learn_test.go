package learn

import (
	"errors"
	"strings"
	"testing"

	"github.com/ziadkadry99/sage/internal/result"
)

func TestEveryKindHasContent(t *testing.T) {
	lib := New()
	for _, kind := range result.Kinds() {
		page, err := lib.HTML(kind)
		if err != nil {
			t.Errorf("%s: %v", kind, err)
			continue
		}
		if !strings.Contains(string(page), "<h2") {
			t.Errorf("%s: expected a heading, got %.80q", kind, page)
		}
	}
	if got, want := len(Kinds()), len(result.Kinds()); got != want {
		t.Errorf("Kinds() = %d entries, want %d", got, want)
	}
}

func TestHTMLRendersTablesAndCode(t *testing.T) {
	page, err := New().HTML(result.KindSEM)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	s := string(page)
	if !strings.Contains(s, "<table>") {
		t.Error("GFM table not rendered")
	}
	if !strings.Contains(s, "<pre") {
		t.Error("code block not rendered")
	}
	if !strings.Contains(s, `id="model-syntax"`) {
		t.Error("heading ids not generated")
	}
}

func TestHTMLCached(t *testing.T) {
	lib := New()
	first, err := lib.HTML(result.KindDescriptive)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := lib.HTML(result.KindDescriptive)
	if first != second {
		t.Error("expected identical cached output")
	}
	if len(lib.pages) != 1 {
		t.Errorf("cache has %d pages, want 1", len(lib.pages))
	}
}

func TestHTMLUnknownKind(t *testing.T) {
	if _, err := New().HTML(result.Kind("tarot")); !errors.Is(err, ErrNoContent) {
		t.Fatalf("err = %v, want ErrNoContent", err)
	}
}
