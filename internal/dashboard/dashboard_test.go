package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/sage/internal/backend"
	"github.com/ziadkadry99/sage/internal/db"
	"github.com/ziadkadry99/sage/internal/merge"
	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/result"
	"github.com/ziadkadry99/sage/internal/state"
)

const (
	localMission    = `{"mission":"Serve","vision":"Lead","values":[{"value":"Integrity"}]}`
	workflowMission = `{"mission":"Help","vision":"Grow","values":[{"value":"integrity "},{"value":"Teamwork"}]}`
)

// fakeSource answers with a fixed payload, or blocks until cancelled.
type fakeSource struct {
	name    string
	payload string
	block   bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Analyze(ctx context.Context, req backend.Request) (json.RawMessage, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return json.RawMessage(f.payload), nil
}

func setupTest(t *testing.T, opts Options) (*Dashboard, *state.SQLiteCache) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cache := state.NewSQLiteCache(database)
	history := state.NewHistory(database)
	opts.Cache = cache
	opts.History = history
	opts.Engine = render.NewEngine(render.Options{Cache: cache, History: history})
	return New(opts), cache
}

func setupRouter(d *Dashboard) chi.Router {
	r := chi.NewRouter()
	d.RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path, session, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMerge(t *testing.T, w *httptest.ResponseRecorder) mergeResponse {
	t.Helper()
	var resp mergeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding merge response: %v", err)
	}
	return resp
}

func TestServeIndex(t *testing.T) {
	d, _ := setupTest(t, Options{})
	w := do(t, setupRouter(d), http.MethodGet, "/", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html content type, got %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"Sage Analysis", "/static/sage.js", "/static/sage.css"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	d, _ := setupTest(t, Options{})
	r := setupRouter(d)

	tests := []struct {
		path, contentType, contains string
	}{
		{"/static/sage.js", "application/javascript", "Plotly.newPlot"},
		{"/static/sage.css", "text/css", ".sage-tab"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(t, r, http.MethodGet, tt.path, "", "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("content type = %q", ct)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}

func TestKindsEndpoint(t *testing.T) {
	d, _ := setupTest(t, Options{})
	w := do(t, setupRouter(d), http.MethodGet, "/api/kinds", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var kinds []kindInfo
	if err := json.NewDecoder(w.Body).Decode(&kinds); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(kinds) != len(result.Kinds()) {
		t.Fatalf("got %d kinds, want %d", len(kinds), len(result.Kinds()))
	}
	for _, k := range kinds {
		if len(k.Tabs) == 0 {
			t.Errorf("%s has no tabs", k.Kind)
		}
		if len(k.Required) == 0 {
			t.Errorf("%s has no required fields", k.Kind)
		}
	}
}

func TestRenderEndpoint(t *testing.T) {
	d, cache := setupTest(t, Options{})
	r := setupRouter(d)

	w := do(t, r, http.MethodPost, "/api/render/mission-vision?template_id=mv-1&container=out", "s1", localMission)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "sage-tab") || !strings.Contains(body, "Integrity") {
		t.Errorf("fragment missing tabs or content: %s", body)
	}
	if !strings.Contains(body, `id="out-`) {
		t.Error("panel ids should use the requested container id")
	}

	entry, err := cache.Get(context.Background(), "mv-1")
	if err != nil {
		t.Fatalf("cache Get: %v", err)
	}
	if entry.Kind != string(result.KindMissionVision) {
		t.Errorf("cached kind = %q", entry.Kind)
	}

	snap := d.sessions.Get("s1").Snapshot()
	if !snap.ActionsVisible || snap.Loading {
		t.Errorf("session after render = %+v", snap)
	}
}

func TestRenderEndpointInvalid(t *testing.T) {
	d, _ := setupTest(t, Options{})
	r := setupRouter(d)

	w := do(t, r, http.MethodPost, "/api/render/sem", "", `{}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), render.InvalidResultMessage) {
		t.Errorf("expected the invalid result message, got %s", w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/render/tarot", "", `{}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown kind: expected 404, got %d", w.Code)
	}
}

func TestCacheEndpoints(t *testing.T) {
	d, _ := setupTest(t, Options{})
	r := setupRouter(d)

	if w := do(t, r, http.MethodGet, "/api/cache/missing", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing entry, got %d", w.Code)
	}

	do(t, r, http.MethodPost, "/api/render/mission_vision?template_id=mv-2", "", localMission)

	w := do(t, r, http.MethodGet, "/api/cache", "", "")
	var entries []state.Entry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].TemplateID != "mv-2" {
		t.Fatalf("entries = %+v", entries)
	}

	w = do(t, r, http.MethodGet, "/api/cache/mv-2?format=html", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Integrity") {
		t.Errorf("cached html: %d %s", w.Code, w.Body.String())
	}

	if w := do(t, r, http.MethodDelete, "/api/cache/mv-2", "", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/api/cache/mv-2", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	d, _ := setupTest(t, Options{})
	r := setupRouter(d)

	do(t, r, http.MethodPost, "/api/render/mission_vision?template_id=mv-3", "", localMission)
	do(t, r, http.MethodPost, "/api/render/mission_vision?template_id=mv-3", "", `{}`)

	w := do(t, r, http.MethodGet, "/api/history?template_id=mv-3&limit=10", "", "")
	var events []state.Event
	if err := json.NewDecoder(w.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	w = do(t, r, http.MethodGet, "/api/history?status=invalid", "", "")
	events = nil
	json.NewDecoder(w.Body).Decode(&events)
	if len(events) != 1 || events[0].Status != state.StatusInvalid {
		t.Errorf("invalid events = %+v", events)
	}

	if w := do(t, r, http.MethodGet, "/api/history?limit=abc", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", w.Code)
	}
}

func TestMergeFlow(t *testing.T) {
	d, _ := setupTest(t, Options{})
	r := setupRouter(d)

	w := do(t, r, http.MethodPost, "/api/session/template", "m1", `{"template_id":"mission-vision","message_id":"msg-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set template: expected 200, got %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/merge/local", "m1", localMission)
	if w.Code != http.StatusAccepted {
		t.Fatalf("first slot: expected 202, got %d", w.Code)
	}
	resp := decodeMerge(t, w)
	if resp.Outcome != "waiting" || resp.Status != merge.StatusWaitingWorkflow {
		t.Errorf("first slot response = %+v", resp)
	}

	w = do(t, r, http.MethodPost, "/api/merge/n8n", "m1", workflowMission)
	if w.Code != http.StatusOK {
		t.Fatalf("second slot: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = decodeMerge(t, w)
	if resp.Outcome != "rendered" || resp.Status != merge.StatusComplete {
		t.Errorf("second slot response = %+v", resp)
	}
	if !strings.Contains(resp.HTML, "Teamwork") || !strings.Contains(resp.HTML, merge.WorkflowNote) {
		t.Error("merged html should carry the workflow value and its note")
	}
	if strings.Count(resp.HTML, ">Integrity<") > 1 {
		t.Error("duplicate value should be merged away")
	}
	if resp.Session.Loading {
		t.Error("loading should stop after the merge")
	}
}

func TestMergeErrors(t *testing.T) {
	d, _ := setupTest(t, Options{})
	r := setupRouter(d)

	if w := do(t, r, http.MethodPost, "/api/merge/carrier-pigeon", "", `{}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown source: expected 404, got %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/api/session/template", "", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing template id: expected 400, got %d", w.Code)
	}

	do(t, r, http.MethodPost, "/api/session/template", "e1", `{"template_id":"swot"}`)
	do(t, r, http.MethodPost, "/api/merge/local", "e1", localMission)
	w := do(t, r, http.MethodPost, "/api/merge/workflow", "e1", workflowMission)
	if w.Code != http.StatusConflict {
		t.Fatalf("unknown template: expected 409, got %d", w.Code)
	}
	local, workflow := d.coordinator(d.sessions.Get("e1")).Pending()
	if !local || !workflow {
		t.Error("slots should be kept for an unknown template")
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	d, _ := setupTest(t, Options{
		Local:    &fakeSource{name: "local", payload: localMission},
		Workflow: &fakeSource{name: "workflow", payload: workflowMission},
	})
	r := setupRouter(d)

	w := do(t, r, http.MethodPost, "/api/analyze", "a1", `{"template_id":"mission-vision","message_id":"m"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeMerge(t, w)
	if resp.Outcome != "rendered" || !strings.Contains(resp.HTML, "Teamwork") {
		t.Errorf("analyze response = %+v", resp)
	}

	if w := do(t, r, http.MethodPost, "/api/analyze", "a1", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing template: expected 400, got %d", w.Code)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	d, _ := setupTest(t, Options{
		Local:        &fakeSource{name: "local", payload: localMission},
		Workflow:     &fakeSource{name: "workflow", block: true},
		MergeTimeout: 50 * time.Millisecond,
	})
	r := setupRouter(d)

	w := do(t, r, http.MethodPost, "/api/analyze", "t1", `{"template_id":"mission-vision"}`)
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", w.Code)
	}
	resp := decodeMerge(t, w)
	if resp.Status != merge.StatusTimedOut {
		t.Errorf("status = %q, want %q", resp.Status, merge.StatusTimedOut)
	}
}

func TestAnalyzeWithoutSources(t *testing.T) {
	d, _ := setupTest(t, Options{})
	w := do(t, setupRouter(d), http.MethodPost, "/api/analyze", "", `{"template_id":"objectives"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestStatusWebSocket(t *testing.T) {
	d, _ := setupTest(t, Options{})
	server := httptest.NewServer(setupRouter(d))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/status?session=w1"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snap state.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if snap.ID != "w1" {
		t.Errorf("initial snapshot id = %q, want w1", snap.ID)
	}

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/session/template", bytes.NewBufferString(`{"template_id":"objectives"}`))
	req.Header.Set(SessionHeader, "w1")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("set template: %v", err)
	}
	res.Body.Close()

	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if snap.TemplateID != "objectives" || !snap.Loading {
		t.Errorf("update = %+v", snap)
	}
}
