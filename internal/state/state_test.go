package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/sage/internal/db"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession("")
	if s.ID() != DefaultSessionID {
		t.Fatalf("ID() = %q, want %q", s.ID(), DefaultSessionID)
	}

	s.Begin("mission-vision", "msg-1", "retail chain")
	snap := s.Snapshot()
	if !snap.Loading || snap.ActionsVisible {
		t.Errorf("after Begin: loading=%v actions=%v", snap.Loading, snap.ActionsVisible)
	}
	if snap.TemplateID != "mission-vision" || snap.MessageID != "msg-1" || snap.Context != "retail chain" {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	s.SetActionsVisible(true)
	s.SetLoading(false)
	s.ClearAnalysis()
	snap = s.Snapshot()
	if snap.Loading || !snap.ActionsVisible || snap.MessageID != "" || snap.Context != "" {
		t.Errorf("after finish: %+v", snap)
	}
	if snap.TemplateID != "mission-vision" {
		t.Errorf("template id should survive ClearAnalysis, got %q", snap.TemplateID)
	}
}

func TestSessionObservers(t *testing.T) {
	s := NewSession("a")
	var got []string
	unsubscribe := s.Subscribe(func(snap Snapshot) { got = append(got, snap.Status) })

	s.SetStatus("Waiting for workflow analysis…")
	s.SetStatus("done")
	unsubscribe()
	s.SetStatus("ignored")

	if len(got) != 2 || got[0] != "Waiting for workflow analysis…" || got[1] != "done" {
		t.Errorf("observer saw %q", got)
	}
}

func TestSessionObserverMayReadSession(t *testing.T) {
	s := NewSession("a")
	s.Subscribe(func(Snapshot) { _ = s.TemplateID() })
	done := make(chan struct{})
	go func() {
		s.SetTemplate("objectives")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("observer calling back into the session deadlocked")
	}
}

func TestSessionsGet(t *testing.T) {
	r := NewSessions()
	a := r.Get("alice")
	if r.Get("alice") != a {
		t.Error("Get should return the same session for the same id")
	}
	if r.Get("") != r.Get(DefaultSessionID) {
		t.Error("empty id should map to the default session")
	}
	if ids := r.IDs(); len(ids) != 2 || ids[0] != "alice" || ids[1] != DefaultSessionID {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestSessionsConcurrent(t *testing.T) {
	r := NewSessions()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := r.Get("shared")
			s.SetLoading(true)
			s.SetStatus("busy")
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	if len(r.IDs()) != 1 {
		t.Errorf("expected one session, got %v", r.IDs())
	}
}

func cacheBackends(t *testing.T) map[string]Cache {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return map[string]Cache{
		"memory": NewMemoryCache(),
		"sqlite": NewSQLiteCache(d),
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, c := range cacheBackends(t) {
		t.Run(name, func(t *testing.T) {
			older := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
			newer := older.Add(time.Hour)

			if err := c.Put(ctx, Entry{TemplateID: "sem", Kind: "sem", HTML: "<p>one</p>", UpdatedAt: older}); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := c.Put(ctx, Entry{TemplateID: "sem", Kind: "sem", HTML: "<p>two</p>", UpdatedAt: newer}); err != nil {
				t.Fatalf("Put overwrite: %v", err)
			}
			if err := c.Put(ctx, Entry{TemplateID: "dematel", Kind: "dematel", HTML: "<p>d</p>", UpdatedAt: older}); err != nil {
				t.Fatalf("Put: %v", err)
			}

			got, err := c.Get(ctx, "sem")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.HTML != "<p>two</p>" || !got.UpdatedAt.Equal(newer) {
				t.Errorf("Get = %+v", got)
			}

			list, err := c.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != 2 || list[0].TemplateID != "sem" || list[1].TemplateID != "dematel" {
				t.Fatalf("List = %+v", list)
			}
			if list[0].HTML != "" {
				t.Error("List should not carry HTML")
			}

			if err := c.Delete(ctx, "sem"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := c.Get(ctx, "sem"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
			}
			if err := c.Delete(ctx, "sem"); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete: err = %v, want ErrNotFound", err)
			}

			n, err := c.Clear(ctx)
			if err != nil || n != 1 {
				t.Errorf("Clear = %d, %v; want 1", n, err)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	h := NewHistory(d)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	events := []Event{
		{TemplateID: "sem", Kind: "sem", Status: StatusInvalid, Detail: "missing fit_indices_csv_content", CreatedAt: base},
		{TemplateID: "sem", Kind: "sem", Status: StatusRendered, CreatedAt: base.Add(time.Minute)},
		{TemplateID: "mission-vision", Kind: "mission_vision", Status: StatusMerged, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range events {
		if err := h.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := h.Query(ctx, HistoryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 || all[0].Status != StatusMerged || all[0].ID == "" {
		t.Fatalf("Query all = %+v", all)
	}

	sem, _ := h.Query(ctx, HistoryFilter{TemplateID: "sem", Limit: 1})
	if len(sem) != 1 || sem[0].Status != StatusRendered {
		t.Errorf("Query sem limit 1 = %+v", sem)
	}

	invalid, _ := h.Query(ctx, HistoryFilter{Status: StatusInvalid})
	if len(invalid) != 1 || invalid[0].Detail != "missing fit_indices_csv_content" {
		t.Errorf("Query invalid = %+v", invalid)
	}

	n, err := h.DeleteBefore(ctx, base.Add(90*time.Second))
	if err != nil || n != 2 {
		t.Errorf("DeleteBefore = %d, %v; want 2", n, err)
	}
}
