package dashboard

import (
	"net/http"

	"github.com/ziadkadry99/sage/internal/render"
)

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sage Analysis</title>
<link rel="stylesheet" href="/static/sage.css">
<script src="` + render.PlotlyURL + `" charset="utf-8"></script>
<script src="/static/sage.js" defer></script>
</head>
<body class="sage-host">
<header class="sage-header">
  <h1>Sage Analysis</h1>
  <span id="sage-status" class="sage-status"></span>
</header>
<form id="sage-form" class="sage-form">
  <select id="sage-kind" name="kind"></select>
  <input id="sage-template" name="template_id" placeholder="template id (optional)">
  <textarea id="sage-payload" name="payload" rows="8" placeholder="Paste an analysis result (JSON)"></textarea>
  <button type="submit">Render</button>
</form>
<main id="sage-output"></main>
<script>
(function() {
  var kind = document.getElementById('sage-kind');
  var out = document.getElementById('sage-output');
  var status = document.getElementById('sage-status');

  fetch('/api/kinds').then(function(r) { return r.json(); }).then(function(kinds) {
    kinds.forEach(function(k) {
      var opt = document.createElement('option');
      opt.value = k.kind;
      opt.textContent = k.kind;
      kind.appendChild(opt);
    });
  });

  document.getElementById('sage-form').addEventListener('submit', function(ev) {
    ev.preventDefault();
    var tpl = document.getElementById('sage-template').value.trim();
    var url = '/api/render/' + encodeURIComponent(kind.value);
    if (tpl) url += '?template_id=' + encodeURIComponent(tpl);
    fetch(url, {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: document.getElementById('sage-payload').value
    }).then(function(r) { return r.text(); }).then(function(html) {
      out.innerHTML = html;
    });
  });

  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  var ws = new WebSocket(proto + location.host + '/ws/status');
  ws.onmessage = function(ev) {
    try {
      var snap = JSON.parse(ev.data);
      status.textContent = snap.loading ? (snap.status || 'Loading…') : (snap.status || '');
    } catch (e) {
      console.error('sage: bad status message', e);
    }
  };
})();
</script>
</body>
</html>
`

// ServeIndex serves the HTML shell that hosts rendered analyses.
func (d *Dashboard) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func serveAsset(contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Write([]byte(body))
	}
}
