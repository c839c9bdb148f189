package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sage/internal/backend"
	"github.com/ziadkadry99/sage/internal/merge"
	"github.com/ziadkadry99/sage/internal/progress"
	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/result"
	"github.com/ziadkadry99/sage/internal/state"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <template-id>",
	Short: "Run a two-source analysis and write the merged page",
	Long: `Asks the local model and the workflow webhook for the same analysis,
merges their answers and writes one self-contained HTML page.

Templates that can be merged: mission-vision, objectives.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("context", "", "organisation description sent to both sources")
	analyzeCmd.Flags().String("context-file", "", "read the organisation description from a file")
	analyzeCmd.Flags().String("out", "sage-out", "directory the HTML page is written to")
	rootCmd.AddCommand(analyzeCmd)
}

// pageItem is the progress item for the merged page.
const pageItem = "merged page"

func runAnalyze(cmd *cobra.Command, args []string) error {
	templateID := args[0]
	if !merge.HasStrategy(templateID) {
		return fmt.Errorf("template %q cannot be merged; use one of: %s", templateID, strings.Join(merge.Templates(), ", "))
	}
	text, err := analysisContext(cmd)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	local, workflow := newSources(cfg)
	if local == nil || workflow == nil {
		return errors.New("analyze needs both local_model and workflow.url configured")
	}
	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	engine, gv := newEngine(cfg, st)
	defer gv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := progress.Synchronized(progress.NewReporter())
	req := backend.Request{TemplateID: templateID, Context: text}
	path, err := analyze(ctx, engine, req, local, workflow, analyzeOptions{
		outDir:  outDir,
		timeout: cfg.MergeTimeout(),
		history: st.recorder(),
	}, rep)
	tally := rep.End()
	if err != nil {
		colorRed.Fprintf(os.Stderr, "Analysis %s failed after %s: %v\n", templateID, tally.Elapsed.Round(time.Millisecond), err)
		return err
	}
	colorGreen.Fprintf(os.Stderr, "Wrote %s in %s\n", path, tally.Elapsed.Round(time.Millisecond))
	return nil
}

type analyzeOptions struct {
	outDir  string
	timeout time.Duration
	history state.Recorder
}

// analyze runs both sources through a merge coordinator and writes the
// merged page. The reporter follows three items: each source and the page.
// rep must be safe for concurrent use.
func analyze(ctx context.Context, engine merge.Renderer, req backend.Request, local, workflow backend.Source, opts analyzeOptions, rep progress.Reporter) (string, error) {
	rep.Begin("Analyzing "+req.TemplateID, 3)

	id := containerID(req.TemplateID)
	coord := merge.NewCoordinator(state.NewSession("cli"), reportingRenderer{Renderer: engine, rep: rep}, merge.Options{
		Timeout:   opts.timeout,
		History:   opts.history,
		Container: render.NewContainer(id),
	})
	answered := new(atomic.Int32)
	wrap := func(src backend.Source) backend.Source {
		return &reportingSource{Source: src, rep: rep, answered: answered}
	}

	outcome, err := coord.Run(ctx, req, wrap(local), wrap(workflow))
	if err == nil && outcome != merge.Rendered {
		err = errors.New("analysis finished without a merged result")
	}
	var path string
	if err == nil {
		rep.Step(pageItem, progress.StepWrite)
		path, err = writePage(opts.outDir, req.TemplateID, coord.Container())
	}
	rep.Done(pageItem, err)
	return path, err
}

// reportingSource reports a backend source's progress. The second
// successful answer starts the merge.
type reportingSource struct {
	backend.Source
	rep      progress.Reporter
	answered *atomic.Int32
}

func (s *reportingSource) Analyze(ctx context.Context, req backend.Request) (json.RawMessage, error) {
	s.rep.Step(s.Name(), progress.StepAsk)
	payload, err := s.Source.Analyze(ctx, req)
	s.rep.Done(s.Name(), err)
	if err == nil && s.answered.Add(1) == 2 {
		s.rep.Step(pageItem, progress.StepMerge)
	}
	return payload, err
}

// reportingRenderer reports the render of the merged result.
type reportingRenderer struct {
	merge.Renderer
	rep progress.Reporter
}

func (r reportingRenderer) Render(ctx context.Context, c *render.Container, kind result.Kind, data []byte, s *state.Session) error {
	r.rep.Step(pageItem, progress.StepRender)
	return r.Renderer.Render(ctx, c, kind, data, s)
}

// analysisContext reads the organisation description from --context or
// --context-file.
func analysisContext(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("context")
	file, _ := cmd.Flags().GetString("context-file")
	if file != "" {
		if text != "" {
			return "", errors.New("use either --context or --context-file, not both")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading context: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("an organisation description is required (--context or --context-file)")
	}
	return text, nil
}

// writePage wraps c in a standalone document and writes it to
// <outDir>/<stem>.html.
func writePage(outDir, stem string, c *render.Container) (string, error) {
	page, err := render.Document(stem, c)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	out := filepath.Join(outDir, stem+".html")
	if err := os.WriteFile(out, page, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", out, err)
	}
	return out, nil
}
