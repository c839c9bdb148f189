package render

// Script is the client half of a rendered page. It draws every chart slot
// with Plotly, switches tabs through one delegated listener per page and
// resizes the charts of the panel that becomes visible.
const Script = `(function() {
  "use strict";

  var MOUNTED = "data-sage-mounted";

  function charts(root) {
    return root.querySelectorAll(".sage-chart[data-figure]");
  }

  // ===== Charts =====
  function draw(el) {
    if (typeof Plotly === "undefined") {
      console.error("sage: Plotly is not loaded");
      return;
    }
    var fig;
    try {
      fig = JSON.parse(el.getAttribute("data-figure"));
    } catch (e) {
      console.error("sage: bad figure in " + el.id, e);
      return;
    }
    try {
      Plotly.newPlot(el, fig.data || [], fig.layout || {}, fig.config || {});
    } catch (e) {
      console.error("sage: drawing " + el.id, e);
    }
  }

  function resize(panel) {
    if (!panel || typeof Plotly === "undefined") return;
    charts(panel).forEach(function(el) {
      try {
        Plotly.Plots.resize(el);
      } catch (e) {
        console.error("sage: resizing " + el.id, e);
      }
    });
  }

  // ===== Tabs =====
  function activate(root, tabID) {
    var target = root.querySelector('.sage-tab[data-tab="' + tabID + '"]');
    if (!target) return false;
    if (target.classList.contains("active")) return true;

    root.querySelectorAll(".sage-tab").forEach(function(btn) {
      var on = btn === target;
      btn.classList.toggle("active", on);
      btn.setAttribute("aria-selected", on ? "true" : "false");
    });
    var panel = null;
    root.querySelectorAll(".sage-panel").forEach(function(p) {
      var on = p.id === target.getAttribute("data-target");
      p.classList.toggle("active", on);
      if (on) panel = p;
    });
    resize(panel);
    return true;
  }

  function mount(root) {
    if (!root || root.hasAttribute(MOUNTED)) return;
    root.setAttribute(MOUNTED, "true");

    charts(root).forEach(draw);

    var nav = root.querySelector(".sage-tabs");
    if (nav) {
      nav.addEventListener("click", function(ev) {
        var btn = ev.target.closest(".sage-tab");
        if (btn && nav.contains(btn)) {
          activate(root, btn.getAttribute("data-tab"));
        }
      });
    }

    var delay = parseInt(root.getAttribute("data-resize-delay"), 10);
    if (isNaN(delay) || delay < 0) delay = 150;
    if (delay === 0) {
      resize(root.querySelector(".sage-panel.active"));
      return;
    }
    setTimeout(function() {
      resize(root.querySelector(".sage-panel.active"));
    }, delay);
  }

  function mountAll(scope) {
    (scope || document).querySelectorAll(".sage-analysis").forEach(mount);
  }

  // Fragments are usually inserted after load, so watch for them.
  if (typeof MutationObserver !== "undefined") {
    new MutationObserver(function(records) {
      records.forEach(function(r) {
        r.addedNodes.forEach(function(n) {
          if (n.nodeType !== 1) return;
          if (n.classList.contains("sage-analysis")) {
            mount(n);
          } else {
            mountAll(n);
          }
        });
      });
    }).observe(document.documentElement, { childList: true, subtree: true });
  }

  window.addEventListener("resize", function() {
    document.querySelectorAll(".sage-analysis .sage-panel.active").forEach(resize);
  });

  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", function() { mountAll(); });
  } else {
    mountAll();
  }

  window.SAGE = { mount: mount, mountAll: mountAll, activate: activate };
})();
`

// Stylesheet is the dark theme shared by every rendered page.
const Stylesheet = `/* ============ Variables ============ */
.sage-analysis {
  --sage-bg: #1a1b26;
  --sage-bg-secondary: #1f2030;
  --sage-text: #c0caf5;
  --sage-text-muted: #565f89;
  --sage-border: #292e42;
  --sage-accent: #7aa2f7;
  --sage-good: #43e97b;
  --sage-warn: #fee140;
  --sage-bad: #fa709a;
  color: var(--sage-text);
  background: var(--sage-bg);
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
  line-height: 1.6;
  border-radius: 8px;
  padding: 1rem;
}

/* ============ Tabs ============ */
.sage-tabs {
  display: flex;
  flex-wrap: wrap;
  gap: 0.25rem;
  border-bottom: 1px solid var(--sage-border);
  margin-bottom: 1rem;
}

.sage-tab {
  background: none;
  border: none;
  border-bottom: 2px solid transparent;
  color: var(--sage-text-muted);
  cursor: pointer;
  font: inherit;
  padding: 0.5rem 0.9rem;
}

.sage-tab:hover { color: var(--sage-text); }

.sage-tab.active {
  color: var(--sage-accent);
  border-bottom-color: var(--sage-accent);
}

.sage-panel { display: none; }
.sage-panel.active { display: block; }

/* ============ Blocks ============ */
.sage-heading { margin: 1.25rem 0 0.5rem; font-size: 1.05rem; }
.sage-text { margin: 0.5rem 0; }
.sage-empty { color: var(--sage-text-muted); font-style: italic; }

.sage-callout {
  border-left: 3px solid var(--sage-accent);
  background: var(--sage-bg-secondary);
  margin: 0.75rem 0;
  padding: 0.75rem 1rem;
}

.sage-cards {
  display: grid;
  grid-template-columns: repeat(auto-fill, minmax(160px, 1fr));
  gap: 0.75rem;
  margin: 0.75rem 0;
}

.sage-card {
  background: var(--sage-bg-secondary);
  border: 1px solid var(--sage-border);
  border-radius: 6px;
  display: flex;
  flex-direction: column;
  padding: 0.75rem;
}

.sage-card-label { color: var(--sage-text-muted); font-size: 0.8rem; }
.sage-card-value { font-size: 1.35rem; font-weight: 600; }
.sage-card-hint { color: var(--sage-text-muted); font-size: 0.75rem; }

.sage-good { border-left-color: var(--sage-good); }
.sage-warn { border-left-color: var(--sage-warn); }
.sage-bad { border-left-color: var(--sage-bad); }
.sage-card.sage-good .sage-card-value, td.good, td.pass { color: var(--sage-good); }
.sage-card.sage-warn .sage-card-value, td.warn { color: var(--sage-warn); }
.sage-card.sage-bad .sage-card-value, td.bad, td.fail { color: var(--sage-bad); }

.sage-item {
  background: var(--sage-bg-secondary);
  border: 1px solid var(--sage-border);
  border-left: 3px solid var(--sage-border);
  border-radius: 6px;
  margin: 0.75rem 0;
  padding: 0.75rem 1rem;
}

.sage-item header { display: flex; align-items: center; gap: 0.5rem; flex-wrap: wrap; }

.sage-badge {
  background: var(--sage-border);
  border-radius: 999px;
  font-size: 0.75rem;
  padding: 0.1rem 0.6rem;
}

.sage-list ul, .sage-list ol { margin: 0.25rem 0 0.75rem 1.5rem; }

/* ============ Tables ============ */
.sage-table-wrap { overflow-x: auto; margin: 0.75rem 0; }
.sage-table { border-collapse: collapse; width: 100%; font-size: 0.9rem; }
.sage-table caption { text-align: left; font-weight: 600; padding-bottom: 0.4rem; }
.sage-table th, .sage-table td { border-bottom: 1px solid var(--sage-border); padding: 0.4rem 0.6rem; text-align: left; }
.sage-table td.num { text-align: right; font-variant-numeric: tabular-nums; }
.sage-table tr.sage-other td { font-style: italic; color: var(--sage-text-muted); }

/* ============ Charts & Diagrams ============ */
.sage-chart { min-height: 380px; margin: 0.75rem 0; }
.sage-diagram { overflow-x: auto; margin: 0.75rem 0; text-align: center; }
.sage-diagram svg { max-width: 100%; height: auto; }

.chart-error, .diagram-error, .sage-error {
  border: 1px dashed var(--sage-bad);
  border-radius: 6px;
  color: var(--sage-bad);
  margin: 0.75rem 0;
  padding: 0.75rem 1rem;
}

.sage-code {
  background: var(--sage-bg-secondary);
  border: 1px solid var(--sage-border);
  border-radius: 6px;
  overflow-x: auto;
  padding: 0.75rem;
}

.sage-learn h2, .sage-learn h3 { margin: 1rem 0 0.5rem; }
.sage-learn p { margin: 0.5rem 0; }
`
