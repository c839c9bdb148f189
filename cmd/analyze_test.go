package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sage/internal/backend"
	"github.com/ziadkadry99/sage/internal/progress"
	"github.com/ziadkadry99/sage/internal/render"
)

type stubSource struct {
	name    string
	payload string
	err     error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Analyze(context.Context, backend.Request) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.payload), nil
}

func TestAnalyzeWritesMergedPage(t *testing.T) {
	out := t.TempDir()
	var steps bytes.Buffer
	rep := progress.Synchronized(progress.NewLineReporter(&steps))

	path, err := analyze(context.Background(), render.NewEngine(render.Options{}),
		backend.Request{TemplateID: "mission-vision", Context: "a bakery"},
		stubSource{name: "local", payload: `{"mission":"Bake daily","vision":"Every street"}`},
		stubSource{name: "workflow", payload: `{"values":[{"value":"Craft"}]}`},
		analyzeOptions{outDir: out}, rep)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if path != filepath.Join(out, "mission-vision.html") {
		t.Errorf("path = %s", path)
	}
	page, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "Bake daily") || !strings.Contains(string(page), "Craft") {
		t.Error("page should hold both sources' contributions")
	}

	tally := rep.End()
	if tally.OK != 3 || tally.Failed != 0 {
		t.Errorf("tally = %+v", tally)
	}
	log := steps.String()
	for _, want := range []string{"asking local", "asking workflow", "merging merged page", "rendering merged page", "writing merged page", "[3/3] ok merged page"} {
		if !strings.Contains(log, want) {
			t.Errorf("progress missing %q:\n%s", want, log)
		}
	}
}

func TestAnalyzeSourceFailure(t *testing.T) {
	out := t.TempDir()
	var steps bytes.Buffer
	rep := progress.Synchronized(progress.NewLineReporter(&steps))
	boom := errors.New("webhook unreachable")

	_, err := analyze(context.Background(), render.NewEngine(render.Options{}),
		backend.Request{TemplateID: "objectives", Context: "a bakery"},
		stubSource{name: "local", payload: `{"summary":"s"}`},
		stubSource{name: "workflow", err: boom},
		analyzeOptions{outDir: out}, rep)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if entries, _ := os.ReadDir(out); len(entries) != 0 {
		t.Error("no page should be written when a source fails")
	}
	if strings.Contains(steps.String(), "merging") {
		t.Error("merge should not start with one source missing")
	}
}

func TestAnalysisContext(t *testing.T) {
	file := filepath.Join(t.TempDir(), "org.txt")
	if err := os.WriteFile(file, []byte("A family bakery."), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		text    string
		file    string
		want    string
		wantErr bool
	}{
		{"flag", "A bakery", "", "A bakery", false},
		{"file", "", file, "A family bakery.", false},
		{"both", "x", file, "", true},
		{"blank", "  ", "", "", true},
		{"missing file", "", filepath.Join(t.TempDir(), "nope.txt"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().String("context", "", "")
			cmd.Flags().String("context-file", "", "")
			cmd.Flags().Set("context", tt.text)
			cmd.Flags().Set("context-file", tt.file)

			got, err := analysisContext(cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("context = %q, want %q", got, tt.want)
			}
		})
	}
}
