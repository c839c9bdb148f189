package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/ziadkadry99/sage/internal/backend"
	"github.com/ziadkadry99/sage/internal/merge"
	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/result"
	"github.com/ziadkadry99/sage/internal/state"
)

// kindInfo describes one supported analysis kind.
type kindInfo struct {
	Kind     result.Kind `json:"kind"`
	Tabs     []string    `json:"tabs"`
	Required []string    `json:"required"`
}

// templateRequest is the body of the session template endpoint.
type templateRequest struct {
	TemplateID string `json:"template_id"`
	MessageID  string `json:"message_id"`
	Context    string `json:"context"`
}

// mergeResponse reports a merge slot write or a full analysis run.
type mergeResponse struct {
	Outcome string         `json:"outcome"`
	Status  string         `json:"status"`
	HTML    string         `json:"html,omitempty"`
	Error   string         `json:"error,omitempty"`
	Session state.Snapshot `json:"session"`
}

const defaultHistoryLimit = 50

func (d *Dashboard) handleKinds(w http.ResponseWriter, r *http.Request) {
	kinds := result.Kinds()
	out := make([]kindInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, kindInfo{Kind: k, Tabs: render.TabIDs(k), Required: result.RequiredFields(k)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (d *Dashboard) handleRender(w http.ResponseWriter, r *http.Request) {
	kind, err := result.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s := d.session(r)
	if tid := r.URL.Query().Get("template_id"); tid != "" {
		s.SetTemplate(tid)
	}

	c := render.NewContainer(r.URL.Query().Get("container"))
	status := http.StatusOK
	if err := d.engine.Render(r.Context(), c, kind, body, s); err != nil {
		status = http.StatusUnprocessableEntity
	}
	writeHTML(w, status, c.HTML())
}

func (d *Dashboard) handleCacheList(w http.ResponseWriter, r *http.Request) {
	if d.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cache not configured"})
		return
	}
	entries, err := d.cache.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []state.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (d *Dashboard) handleCacheGet(w http.ResponseWriter, r *http.Request) {
	if d.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cache not configured"})
		return
	}
	entry, err := d.cache.Get(r.Context(), chi.URLParam(r, "templateID"))
	if errors.Is(err, state.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cached render"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if r.URL.Query().Get("format") == "html" {
		writeHTML(w, http.StatusOK, entry.HTML)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (d *Dashboard) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	if d.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cache not configured"})
		return
	}
	err := d.cache.Delete(r.Context(), chi.URLParam(r, "templateID"))
	if errors.Is(err, state.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cached render"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) handleHistory(w http.ResponseWriter, r *http.Request) {
	if d.history == nil {
		writeJSON(w, http.StatusOK, []state.Event{})
		return
	}
	q := r.URL.Query()
	filter := state.HistoryFilter{
		TemplateID: q.Get("template_id"),
		Status:     state.EventStatus(q.Get("status")),
		Limit:      defaultHistoryLimit,
	}
	if v := q.Get("limit"); v != "" {
		limit, err := cast.ToIntE(v)
		if err != nil || limit <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "since must be an RFC 3339 time"})
			return
		}
		filter.Since = &since
	}

	events, err := d.history.Query(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if events == nil {
		events = []state.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (d *Dashboard) handleSetTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.TemplateID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "template_id is required"})
		return
	}

	s := d.session(r)
	// A new selection abandons any half-finished merge.
	d.coordinator(s).Reset()
	s.Begin(req.TemplateID, req.MessageID, req.Context)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (d *Dashboard) handleMerge(w http.ResponseWriter, r *http.Request) {
	source, err := merge.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s := d.session(r)
	c := d.coordinator(s)
	outcome, err := c.Complete(r.Context(), source, body)
	d.writeOutcome(w, s, c, outcome, err)
}

func (d *Dashboard) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if d.local == nil || d.workflow == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "analysis sources not configured"})
		return
	}
	var req backend.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.TemplateID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "template_id is required"})
		return
	}

	s := d.session(r)
	c := d.coordinator(s)
	outcome, err := c.Run(r.Context(), req, d.local, d.workflow)
	d.writeOutcome(w, s, c, outcome, err)
}

func (d *Dashboard) writeOutcome(w http.ResponseWriter, s *state.Session, c *merge.Coordinator, outcome merge.Outcome, err error) {
	snap := s.Snapshot()
	resp := mergeResponse{Outcome: outcome.String(), Status: snap.Status, Session: snap}
	if outcome == merge.Rendered {
		resp.HTML = c.Container().HTML()
	}

	status := http.StatusOK
	switch {
	case err == nil && outcome == merge.Waiting:
		status = http.StatusAccepted
	case errors.Is(err, merge.ErrUnknownTemplate):
		status = http.StatusConflict
	case errors.Is(err, merge.ErrStalled):
		status = http.StatusGatewayTimeout
	case err != nil && outcome == merge.Rendered:
		status = http.StatusUnprocessableEntity
	case err != nil:
		status = http.StatusBadGateway
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}
	return body, nil
}

func writeHTML(w http.ResponseWriter, status int, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, html)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
