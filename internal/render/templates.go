package render

import (
	"html/template"
)

// InvalidResultMessage is shown in place of the tabs when a result fails
// validation at the boundary.
const InvalidResultMessage = "Invalid analysis result: the response is missing required data. Please run the analysis again."

var templates = template.Must(template.New("sage").Parse(`
{{define "page"}}<div class="sage-analysis" data-container="{{.ID}}" data-kind="{{.Kind}}" data-resize-delay="{{.ResizeDelay}}">
<nav class="sage-tabs" role="tablist">
{{- range .Tabs}}
<button type="button" class="sage-tab{{if .Active}} active{{end}}" data-tab="{{.ID}}" data-target="{{.PanelID}}" role="tab" aria-controls="{{.PanelID}}" aria-selected="{{.Active}}">{{.Label}}</button>
{{- end}}
</nav>
{{- range .Tabs}}
<section class="sage-panel{{if .Active}} active{{end}}" id="{{.PanelID}}" data-tab="{{.ID}}" role="tabpanel">
{{.Body}}
</section>
{{- end}}
</div>{{end}}

{{define "error"}}<div class="sage-error" role="alert"><p>{{.}}</p></div>{{end}}

{{define "heading"}}<h3 class="sage-heading">{{.}}</h3>{{end}}

{{define "text"}}<p class="sage-text">{{.}}</p>{{end}}

{{define "callout"}}<blockquote class="sage-callout sage-{{.Tone}}">{{if .Title}}<strong>{{.Title}}</strong>{{end}}<p>{{.Body}}</p></blockquote>{{end}}

{{define "cards"}}<div class="sage-cards">
{{- range .}}
<div class="sage-card{{if .Tone}} sage-{{.Tone}}{{end}}"><span class="sage-card-label">{{.Label}}</span><span class="sage-card-value">{{.Value}}</span>{{if .Hint}}<span class="sage-card-hint">{{.Hint}}</span>{{end}}</div>
{{- end}}
</div>{{end}}

{{define "table"}}<div class="sage-table-wrap"><table class="sage-table">
{{- if .Caption}}<caption>{{.Caption}}</caption>{{end}}
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr{{if .Class}} class="{{.Class}}"{{end}}>{{range .Cells}}<td{{if .Class}} class="{{.Class}}"{{end}}{{if .Title}} title="{{.Title}}"{{end}}>{{.Text}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table></div>{{end}}

{{define "list"}}<div class="sage-list">
{{- if .Title}}<h4>{{.Title}}</h4>{{end}}
{{- if .Ordered}}<ol>{{range .Items}}<li>{{.}}</li>{{end}}</ol>{{else}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{end}}
</div>{{end}}

{{define "item"}}<article class="sage-item{{if .Tone}} sage-{{.Tone}}{{end}}">
<header><h4>{{.Title}}</h4>{{range .Badges}}<span class="sage-badge">{{.}}</span>{{end}}</header>
{{- range .Fields}}
<p><strong>{{.Label}}:</strong> {{.Value}}</p>
{{- end}}
{{- range .Lists}}
{{template "list" .}}
{{- end}}
</article>{{end}}

{{define "chart"}}<div class="sage-chart" id="{{.ID}}" data-figure="{{.Figure}}" role="img" aria-label="{{.Title}}"></div>{{end}}

{{define "chart-error"}}<div class="chart-error" role="status">Chart unavailable{{if .Title}} ({{.Title}}){{end}}: {{.Message}}</div>{{end}}

{{define "diagram"}}<figure class="sage-diagram">{{.}}</figure>{{end}}

{{define "diagram-error"}}<div class="diagram-error" role="status">Diagram unavailable: {{.}}</div>{{end}}

{{define "code"}}<pre class="sage-code"><code>{{.}}</code></pre>{{end}}

{{define "empty"}}<p class="sage-empty">{{.}}</p>{{end}}

{{define "learn"}}<div class="sage-learn">{{.}}</div>{{end}}
`))
