package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/sage/internal/progress"
	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/result"
	"github.com/ziadkadry99/sage/internal/state"
)

func TestExpandPatterns(t *testing.T) {
	files, err := expandPatterns([]string{
		filepath.Join("..", "testdata", "results", "**", "*.json"),
		filepath.Join("..", "testdata", "results", "prescriptive.json"),
	})
	if err != nil {
		t.Fatalf("expandPatterns: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	got := strings.Join(names, ",")
	want := "broken.json,prescriptive.json,mission.json"
	if got != want {
		t.Errorf("files = %s, want %s", got, want)
	}
}

func TestExpandPatternsNoMatch(t *testing.T) {
	files, err := expandPatterns([]string{filepath.Join(t.TempDir(), "*.json")})
	if err != nil {
		t.Fatalf("expandPatterns: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestContainerID(t *testing.T) {
	tests := map[string]string{
		"Q3 Review":     "sage-q3-review",
		"mission":       "sage-mission",
		"--":            "",
		"sales_2024.v2": "sage-sales-2024-v2",
	}
	for in, want := range tests {
		if got := containerID(in); got != want {
			t.Errorf("containerID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderFile(t *testing.T) {
	cache := state.NewMemoryCache()
	engine := render.NewEngine(render.Options{Cache: cache})
	out := t.TempDir()
	ctx := context.Background()
	var steps bytes.Buffer
	rep := progress.NewLineReporter(&steps)

	path, err := renderFile(ctx, engine, result.KindPrescriptive, filepath.Join("..", "testdata", "results", "prescriptive.json"), out, "", rep)
	if err != nil {
		t.Fatalf("renderFile: %v", err)
	}
	if path != filepath.Join(out, "prescriptive.html") {
		t.Errorf("path = %s", path)
	}
	page, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "Automate invoicing") || !strings.Contains(string(page), "<!DOCTYPE html>") {
		t.Error("page should be a full document with the result rendered")
	}
	if _, err := cache.Get(ctx, "prescriptive"); err != nil {
		t.Errorf("render should be cached under the file name: %v", err)
	}

	want := "      reading prescriptive.json\n      rendering prescriptive.json\n      writing prescriptive.json\n"
	if steps.String() != want {
		t.Errorf("steps = %q, want %q", steps.String(), want)
	}

	_, err = renderFile(ctx, engine, result.KindDescriptive, filepath.Join("..", "testdata", "results", "broken.json"), out, "batch", rep)
	if !result.IsStructural(err) {
		t.Fatalf("err = %v, want a structural error", err)
	}
	if _, statErr := os.Stat(filepath.Join(out, "broken.html")); !os.IsNotExist(statErr) {
		t.Error("a failed render should not write a page")
	}
}
