package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/sage/internal/db"
)

// EventStatus is the outcome recorded for a render.
type EventStatus string

const (
	StatusRendered EventStatus = "rendered"
	StatusInvalid  EventStatus = "invalid"
	StatusMerged   EventStatus = "merged"
)

// Event is one entry in the render history.
type Event struct {
	ID         string      `json:"id"`
	TemplateID string      `json:"template_id"`
	Kind       string      `json:"kind"`
	Status     EventStatus `json:"status"`
	Detail     string      `json:"detail,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Recorder receives render history events.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// HistoryFilter controls which events Query returns.
type HistoryFilter struct {
	TemplateID string
	Status     EventStatus
	Since      *time.Time
	Limit      int
}

// History stores render events in SQLite.
type History struct {
	db *db.DB
}

// NewHistory creates a History backed by the given database.
func NewHistory(database *db.DB) *History {
	return &History{db: database}
}

// Record inserts an event. If e.ID is empty a UUID is generated.
func (h *History) Record(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO render_events (id, template_id, kind, status, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.TemplateID, e.Kind, string(e.Status), e.Detail,
		e.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting render event: %w", err)
	}
	return nil
}

// Query returns events matching the filter, newest first.
func (h *History) Query(ctx context.Context, filter HistoryFilter) ([]Event, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.TemplateID != "" {
		clauses = append(clauses, "template_id = ?")
		args = append(args, filter.TemplateID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := "SELECT id, template_id, kind, status, detail, created_at FROM render_events"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying render events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e      Event
			status string
			ts     string
		)
		if err := rows.Scan(&e.ID, &e.TemplateID, &e.Kind, &status, &e.Detail, &ts); err != nil {
			return nil, fmt.Errorf("scanning render event: %w", err)
		}
		e.Status = EventStatus(status)
		e.CreatedAt = parseTime(ts)
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteBefore removes events older than the given time and reports how
// many were removed.
func (h *History) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx,
		"DELETE FROM render_events WHERE created_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old render events: %w", err)
	}
	return res.RowsAffected()
}
