package progress

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf)
	r.Begin("Rendering descriptive results", 2)
	r.Step("a.json", StepRead)
	r.Step("a.json", StepRender)
	r.Done("a.json", nil)
	r.Step("b.json", StepRead)
	r.Done("b.json", errors.New("missing fields: summary"))
	tally := r.End()

	if tally.OK != 1 || tally.Failed != 1 {
		t.Errorf("tally = %+v", tally)
	}
	want := "Rendering descriptive results (2)\n" +
		"      reading a.json\n" +
		"      rendering a.json\n" +
		"[1/2] ok a.json\n" +
		"      reading b.json\n" +
		"[2/2] failed b.json: missing fields: summary\n" +
		"Finished: 1 ok, 1 failed in "
	if !strings.HasPrefix(buf.String(), want) {
		t.Errorf("output = %q, want prefix %q", buf.String(), want)
	}
}

func TestBarReporterTally(t *testing.T) {
	var buf bytes.Buffer
	r := NewBarReporter(&buf)
	r.Begin("Analyzing mission-vision", 3)
	r.Step("local model", StepAsk)
	r.Done("local model", nil)
	r.Step("workflow", StepAsk)
	r.Done("workflow", nil)
	r.Step("page", StepMerge)
	r.Done("page", errors.New("render failed"))
	tally := r.End()

	if tally.OK != 2 || tally.Failed != 1 {
		t.Errorf("tally = %+v", tally)
	}
}

func TestTallyString(t *testing.T) {
	got := Tally{OK: 3, Failed: 0, Elapsed: 1234567 * time.Microsecond}.String()
	if got != "3 ok, 0 failed in 1.235s" {
		t.Errorf("String() = %q", got)
	}
}

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter().(*LineReporter); !ok {
		t.Error("expected LineReporter when CI is set")
	}
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	if _, ok := NewReporter().(*BarReporter); !ok {
		t.Error("expected BarReporter outside CI")
	}
}

func TestSynchronizedReporter(t *testing.T) {
	var buf bytes.Buffer
	r := Synchronized(NewLineReporter(&buf))
	r.Begin("Analyzing objectives", 20)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item := fmt.Sprintf("source-%d", i)
			r.Step(item, StepAsk)
			r.Done(item, nil)
		}(i)
	}
	wg.Wait()

	if tally := r.End(); tally.OK != 20 {
		t.Errorf("tally = %+v, want 20 ok", tally)
	}
	if !strings.Contains(buf.String(), "[20/20] ok ") {
		t.Errorf("last item line missing:\n%s", buf.String())
	}
}
