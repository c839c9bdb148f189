package render

import (
	"bytes"
	"fmt"
	"html/template"
)

// PlotlyURL is the Plotly bundle standalone documents load charts with.
const PlotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
<script src="{{.Plotly}}" charset="utf-8"></script>
</head>
<body class="sage-host">
<h1 class="sage-title">{{.Title}}</h1>
{{.Body}}
<script>{{.Script}}</script>
</body>
</html>
`))

// Document wraps a rendered container in a self-contained HTML page with
// the stylesheet and client script inlined.
func Document(title string, c *Container) ([]byte, error) {
	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, struct {
		Title  string
		Style  template.CSS
		Plotly string
		Body   template.HTML
		Script template.JS
	}{
		Title:  title,
		Style:  template.CSS(Stylesheet),
		Plotly: PlotlyURL,
		Body:   template.HTML(c.HTML()),
		Script: template.JS(Script),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}
	return buf.Bytes(), nil
}
