// Package progress follows a CLI run item by item. An item is a result file
// on its way to a page, or one of the two backend sources of an analysis
// followed by the merged page.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Step is a stage an item passes through.
type Step string

const (
	StepRead   Step = "reading"
	StepAsk    Step = "asking"
	StepMerge  Step = "merging"
	StepRender Step = "rendering"
	StepWrite  Step = "writing"
)

// Reporter follows a run over a known number of items.
type Reporter interface {
	Begin(title string, items int)
	Step(item string, step Step)
	Done(item string, err error)
	End() Tally
}

// Tally summarises a finished run.
type Tally struct {
	OK      int
	Failed  int
	Elapsed time.Duration
}

func (t Tally) String() string {
	return fmt.Sprintf("%d ok, %d failed in %s", t.OK, t.Failed, t.Elapsed.Round(time.Millisecond))
}

type counter struct {
	start time.Time
	tally Tally
}

func (c *counter) begin() { c.start, c.tally = time.Now(), Tally{} }

func (c *counter) done(err error) int {
	if err != nil {
		c.tally.Failed++
	} else {
		c.tally.OK++
	}
	return c.tally.OK + c.tally.Failed
}

func (c *counter) end() Tally {
	c.tally.Elapsed = time.Since(c.start)
	return c.tally
}

// NewReporter returns a line reporter when CI or GITHUB_ACTIONS is set and
// a progress bar otherwise, both on stderr.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return NewLineReporter(os.Stderr)
	}
	return NewBarReporter(os.Stderr)
}

// BarReporter draws a progress bar whose description tracks the current
// item and step.
type BarReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
	counter
}

func NewBarReporter(w io.Writer) *BarReporter {
	return &BarReporter{w: w}
}

func (r *BarReporter) Begin(title string, items int) {
	r.begin()
	r.bar = progressbar.NewOptions(items,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(title),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *BarReporter) Step(item string, step Step) {
	if r.bar != nil {
		r.bar.Describe(fmt.Sprintf("%s %s", step, item))
	}
}

func (r *BarReporter) Done(_ string, err error) {
	r.done(err)
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *BarReporter) End() Tally {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	return r.end()
}

// LineReporter writes one line per step and per finished item, for logs
// that cannot redraw a bar.
type LineReporter struct {
	w     io.Writer
	items int
	counter
}

func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

func (r *LineReporter) Begin(title string, items int) {
	r.begin()
	r.items = items
	fmt.Fprintf(r.w, "%s (%d)\n", title, items)
}

func (r *LineReporter) Step(item string, step Step) {
	fmt.Fprintf(r.w, "      %s %s\n", step, item)
}

func (r *LineReporter) Done(item string, err error) {
	n := r.done(err)
	if err != nil {
		fmt.Fprintf(r.w, "[%d/%d] failed %s: %v\n", n, r.items, item, err)
		return
	}
	fmt.Fprintf(r.w, "[%d/%d] ok %s\n", n, r.items, item)
}

func (r *LineReporter) End() Tally {
	t := r.end()
	fmt.Fprintf(r.w, "Finished: %s\n", t)
	return t
}

// Synchronized wraps r so items finishing on different goroutines, such as
// the two backend sources, can report through it.
func Synchronized(r Reporter) Reporter {
	return &syncReporter{r: r}
}

type syncReporter struct {
	mu sync.Mutex
	r  Reporter
}

func (s *syncReporter) Begin(title string, items int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Begin(title, items)
}

func (s *syncReporter) Step(item string, step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Step(item, step)
}

func (s *syncReporter) Done(item string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Done(item, err)
}

func (s *syncReporter) End() Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.End()
}
