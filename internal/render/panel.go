package render

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"strings"

	"github.com/ziadkadry99/sage/internal/chart"
	"github.com/ziadkadry99/sage/internal/diagram"
	"github.com/ziadkadry99/sage/internal/format"
	"github.com/ziadkadry99/sage/internal/result"
)

// Card is a labelled headline number.
type Card struct {
	Label string
	Value string
	Hint  string
	Tone  string
}

// Cell is one table cell. Title becomes a tooltip, used for labels that
// were truncated.
type Cell struct {
	Text  string
	Class string
	Title string
}

// Row is one table row.
type Row struct {
	Cells []Cell
	Class string
}

// Table is a captioned data table.
type Table struct {
	Caption string
	Headers []string
	Rows    []Row
}

// List is a titled bullet or numbered list.
type List struct {
	Title   string
	Items   []string
	Ordered bool
}

// Field is one labelled line inside an item.
type Field struct {
	Label string
	Value string
}

// Item is a card-like block describing one entity: a recommendation, a
// component, an initiative.
type Item struct {
	Title  string
	Tone   string
	Badges []string
	Fields []Field
	Lists  []List
}

// Tones used for cards and items.
const (
	toneGood    = "good"
	toneWarn    = "warn"
	toneBad     = "bad"
	toneNeutral = "neutral"
)

// panel accumulates the markup of one tab panel.
type panel struct {
	ctx    context.Context
	e      *Engine
	id     string
	charts int
	b      strings.Builder
}

func (p *panel) exec(name string, data any) {
	if err := templates.ExecuteTemplate(&p.b, name, data); err != nil {
		log.Printf("render: %s template in %s: %v", name, p.id, err)
		p.b.WriteString(`<div class="sage-error" role="status">Section unavailable.</div>`)
		return
	}
	p.b.WriteString("\n")
}

// Heading writes a section heading.
func (p *panel) Heading(text string) { p.exec("heading", text) }

// Text writes a paragraph. Blank text is skipped.
func (p *panel) Text(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	p.exec("text", text)
}

// Callout writes a highlighted quote block.
func (p *panel) Callout(title, body, tone string) {
	if tone == "" {
		tone = toneNeutral
	}
	p.exec("callout", struct{ Title, Body, Tone string }{title, format.Text(body), tone})
}

// Cards writes a grid of headline numbers.
func (p *panel) Cards(cards ...Card) {
	if len(cards) == 0 {
		return
	}
	p.exec("cards", cards)
}

// Table writes t, or the empty message when it has no rows.
func (p *panel) Table(t Table, empty string) {
	if len(t.Rows) == 0 {
		p.Empty(empty)
		return
	}
	p.exec("table", t)
}

// List writes a list, or nothing when it has no items.
func (p *panel) List(l List) {
	items := nonBlank(l.Items)
	if len(items) == 0 {
		return
	}
	l.Items = items
	p.exec("list", l)
}

// Insights writes a list of findings or a placeholder.
func (p *panel) Insights(title string, items []string) {
	if len(nonBlank(items)) == 0 {
		p.Empty("No insights available.")
		return
	}
	p.List(List{Title: title, Items: items})
}

// Item writes one entity block.
func (p *panel) Item(it Item) {
	var lists []List
	for _, l := range it.Lists {
		if l.Items = nonBlank(l.Items); len(l.Items) > 0 {
			lists = append(lists, l)
		}
	}
	it.Lists = lists
	if it.Title == "" {
		it.Title = format.NA
	}
	p.exec("item", it)
}

// Empty writes a placeholder for a section without data.
func (p *panel) Empty(msg string) {
	if msg == "" {
		msg = "No data available."
	}
	p.exec("empty", msg)
}

// Chart writes a chart slot for fig. A construction error replaces the slot
// with an inline message; the rest of the panel is unaffected.
func (p *panel) Chart(title string, fig chart.Figure, err error) {
	if err == nil {
		var js string
		if js, err = fig.JSON(); err == nil {
			p.charts++
			p.exec("chart", struct{ ID, Figure, Title string }{
				ID:     fmt.Sprintf("%s-chart-%d", p.id, p.charts),
				Figure: js,
				Title:  fig.Title(),
			})
			return
		}
	}
	log.Printf("render: chart %q in %s: %v", title, p.id, err)
	msg := "the chart could not be built from this data."
	switch {
	case errors.Is(err, chart.ErrUnsupportedChart):
		msg = "this chart type is not supported."
	case errors.Is(err, chart.ErrNoData):
		msg = "there is no data to plot."
	case errors.Is(err, result.ErrMalformedVisualization):
		msg = "the chart description has fields of the wrong type."
	}
	p.exec("chart-error", struct{ Title, Message string }{title, msg})
}

// Visualization builds a backend-described chart through the registry.
// Frequency tables are drawn as tables rather than charts.
func (p *panel) Visualization(v result.Visualization) {
	if v.Err != nil {
		p.Chart(v.Title, chart.Figure{}, v.Err)
		return
	}
	if strings.EqualFold(strings.TrimSpace(v.ChartType), "frequency_table") {
		p.frequencyTable(v)
		return
	}
	fig, err := p.e.charts.Build(v)
	p.Chart(v.Title, fig, err)
}

// Diagram renders DOT to inline SVG. Failures degrade to a message.
func (p *panel) Diagram(dot string) {
	if p.e.diagrams == nil {
		p.exec("diagram-error", "no diagram renderer is configured.")
		return
	}
	svg, err := p.e.diagrams.Render(p.ctx, dot)
	if err != nil {
		msg := "the diagram could not be laid out."
		if errors.Is(err, diagram.ErrEmptyDiagram) {
			msg = "no diagram was provided."
		} else {
			log.Printf("render: diagram in %s: %v", p.id, err)
		}
		p.exec("diagram-error", msg)
		return
	}
	p.exec("diagram", template.HTML(diagram.Sanitize(svg)))
}

// Learn writes the learn-more page for kind.
func (p *panel) Learn(kind result.Kind) {
	if p.e.learn == nil {
		p.Empty("No learning material available.")
		return
	}
	page, err := p.e.learn.HTML(kind)
	if err != nil {
		log.Printf("render: learn-more for %s: %v", kind, err)
		p.Empty("No learning material available.")
		return
	}
	p.exec("learn", page)
}

// HTML returns the accumulated markup.
func (p *panel) HTML() template.HTML {
	return template.HTML(p.b.String())
}

func (p *panel) frequencyTable(v result.Visualization) {
	var rows []result.FrequencyRow
	if err := decodeFrequencies(v.Data, &rows); err != nil {
		log.Printf("render: frequency table %q in %s: %v", v.Title, p.id, err)
		p.exec("chart-error", struct{ Title, Message string }{v.Title, "the frequency table data is malformed."})
		return
	}
	title := v.Title
	if title == "" && v.Variable != "" {
		title = "Frequencies: " + v.Variable
	}
	p.Table(p.e.frequencyTable(title, rows), "No categories recorded.")
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
