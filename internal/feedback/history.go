package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kartoza/restaurant-bot/internal/taste"
)

// Record is one applied feedback sample
type Record struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Source    string       `json:"source"`
	MenuID    string       `json:"menu_id,omitempty"`
	Taste     taste.Vector `json:"taste"`
	Predicted float64      `json:"predicted"`
	Actual    float64      `json:"actual"`
}

// History stores feedback records in a sqlite database
type History struct {
	db *sql.DB
}

// timeLayout is fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `CREATE TABLE IF NOT EXISTS feedback (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	source     TEXT NOT NULL,
	menu_id    TEXT,
	taste      TEXT NOT NULL,
	predicted  REAL NOT NULL,
	actual     REAL NOT NULL
)`

// OpenHistory opens (creating if needed) the history database at path
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Append stores r, assigning an ID and timestamp when missing
func (h *History) Append(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	tasteJSON, err := json.Marshal(r.Taste)
	if err != nil {
		return fmt.Errorf("failed to encode taste: %w", err)
	}

	_, err = h.db.ExecContext(ctx,
		"INSERT INTO feedback (id, created_at, source, menu_id, taste, predicted, actual) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.CreatedAt.Format(timeLayout), r.Source, r.MenuID, string(tasteJSON), r.Predicted, r.Actual,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (h *History) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.QueryContext(ctx,
		"SELECT id, created_at, source, menu_id, taste, predicted, actual FROM feedback ORDER BY rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r         Record
			createdAt string
			menuID    sql.NullString
			tasteJSON string
		)
		if err := rows.Scan(&r.ID, &createdAt, &r.Source, &menuID, &tasteJSON, &r.Predicted, &r.Actual); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		r.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", createdAt, err)
		}
		r.MenuID = menuID.String
		if err := json.Unmarshal([]byte(tasteJSON), &r.Taste); err != nil {
			return nil, fmt.Errorf("invalid taste for %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored records
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, "SELECT count(*) FROM feedback").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return n, nil
}

// Close closes the database
func (h *History) Close() error {
	return h.db.Close()
}
