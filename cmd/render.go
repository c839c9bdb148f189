package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sage/internal/progress"
	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/result"
	"github.com/ziadkadry99/sage/internal/state"
)

var renderCmd = &cobra.Command{
	Use:   "render <kind> <file|glob>...",
	Short: "Render analysis result files into standalone HTML pages",
	Long: `Renders each JSON result file as the given analysis kind and writes one
self-contained HTML page per file. Patterns support ** globs, for example
results/**/*.json.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("out", "sage-out", "directory the HTML pages are written to")
	renderCmd.Flags().String("template-id", "", "cache renders under this template id (default: each file's name)")
	rootCmd.AddCommand(renderCmd)
}

// renderFailure is one file that did not render.
type renderFailure struct {
	path string
	err  error
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kind, err := result.ParseKind(args[0])
	if err != nil {
		return err
	}
	files, err := expandPatterns(args[1:])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %s", strings.Join(args[1:], " "))
	}

	outDir, _ := cmd.Flags().GetString("out")
	templateID, _ := cmd.Flags().GetString("template-id")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	engine, gv := newEngine(cfg, st)
	defer gv.Close()

	reporter := progress.NewReporter()
	reporter.Begin(fmt.Sprintf("Rendering %s results", kind), len(files))

	var (
		written  []string
		failures []renderFailure
	)
	for _, path := range files {
		out, err := renderFile(ctx, engine, kind, path, outDir, templateID, reporter)
		reporter.Done(filepath.Base(path), err)
		if err != nil {
			failures = append(failures, renderFailure{path: path, err: err})
			continue
		}
		written = append(written, out)
	}
	tally := reporter.End()

	colorGreen.Fprintf(os.Stderr, "Rendered %d of %d %s result(s) in %s\n", tally.OK, len(files), kind, tally.Elapsed.Round(time.Millisecond))
	if verbose {
		for _, out := range written {
			fmt.Fprintf(os.Stderr, "  %s\n", out)
		}
	}
	if len(failures) > 0 {
		colorRed.Fprintf(os.Stderr, "%d file(s) failed:\n", len(failures))
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", f.path, f.err)
		}
		return fmt.Errorf("%d of %d result(s) failed to render", len(failures), len(files))
	}
	return nil
}

// renderFile renders one result file and writes its page into outDir,
// reporting each step under the file's base name.
func renderFile(ctx context.Context, engine *render.Engine, kind result.Kind, path, outDir, templateID string, rep progress.Reporter) (string, error) {
	item := filepath.Base(path)
	rep.Step(item, progress.StepRead)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	session := state.NewSession("cli")
	if templateID != "" {
		session.SetTemplate(templateID)
	} else {
		session.SetTemplate(stem)
	}

	rep.Step(item, progress.StepRender)
	c := render.NewContainer(containerID(stem))
	if err := engine.Render(ctx, c, kind, data, session); err != nil {
		return "", err
	}

	rep.Step(item, progress.StepWrite)
	return writePage(outDir, stem, c)
}

// expandPatterns resolves each argument as a doublestar glob. Plain paths
// match themselves. The result is sorted and free of duplicates.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// containerID turns a file stem into an HTML id: letters, digits and
// dashes only.
func containerID(stem string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	id := strings.Trim(b.String(), "-")
	if id == "" {
		return ""
	}
	return "sage-" + id
}
