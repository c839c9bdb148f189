package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ziadkadry99/sage/internal/db"
)

// ErrNotFound is returned when no cached render exists for a template.
var ErrNotFound = errors.New("not found")

// Entry is the last rendered HTML for a template.
type Entry struct {
	TemplateID string    `json:"template_id"`
	Kind       string    `json:"kind"`
	HTML       string    `json:"html,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Cache stores the most recent render per template id. A new render for the
// same template replaces the previous one.
type Cache interface {
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, templateID string) (Entry, error)
	Delete(ctx context.Context, templateID string) error
	// List returns all entries without their HTML, newest first.
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) (int64, error)
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry), now: time.Now}
}

func (c *MemoryCache) Put(_ context.Context, e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = c.now().UTC()
	}
	c.mu.Lock()
	c.entries[e.TemplateID] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, templateID string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[templateID]
	if !ok {
		return Entry{}, fmt.Errorf("cache entry %q: %w", templateID, ErrNotFound)
	}
	return e, nil
}

func (c *MemoryCache) Delete(_ context.Context, templateID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[templateID]; !ok {
		return fmt.Errorf("cache entry %q: %w", templateID, ErrNotFound)
	}
	delete(c.entries, templateID)
	return nil
}

func (c *MemoryCache) List(_ context.Context) ([]Entry, error) {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		e.HTML = ""
		out = append(out, e)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].TemplateID < out[j].TemplateID
	})
	return out, nil
}

func (c *MemoryCache) Clear(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	return n, nil
}

// SQLiteCache persists renders in the analysis_cache table.
type SQLiteCache struct {
	db *db.DB
}

// NewSQLiteCache creates a cache backed by the given database.
func NewSQLiteCache(database *db.DB) *SQLiteCache {
	return &SQLiteCache{db: database}
}

func (c *SQLiteCache) Put(ctx context.Context, e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO analysis_cache (template_id, kind, html, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(template_id) DO UPDATE SET
			kind = excluded.kind,
			html = excluded.html,
			updated_at = excluded.updated_at`,
		e.TemplateID, e.Kind, e.HTML, e.UpdatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("caching render for %q: %w", e.TemplateID, err)
	}
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, templateID string) (Entry, error) {
	var (
		e  Entry
		ts string
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT template_id, kind, html, updated_at FROM analysis_cache WHERE template_id = ?",
		templateID,
	).Scan(&e.TemplateID, &e.Kind, &e.HTML, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("cache entry %q: %w", templateID, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading cache entry %q: %w", templateID, err)
	}
	e.UpdatedAt = parseTime(ts)
	return e, nil
}

func (c *SQLiteCache) Delete(ctx context.Context, templateID string) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM analysis_cache WHERE template_id = ?", templateID)
	if err != nil {
		return fmt.Errorf("deleting cache entry %q: %w", templateID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cache entry %q: %w", templateID, ErrNotFound)
	}
	return nil
}

func (c *SQLiteCache) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT template_id, kind, updated_at FROM analysis_cache ORDER BY updated_at DESC, template_id")
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.TemplateID, &e.Kind, &ts); err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}
		e.UpdatedAt = parseTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *SQLiteCache) Clear(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM analysis_cache")
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return res.RowsAffected()
}

func parseTime(ts string) time.Time {
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t
	}
	return time.Time{}
}
