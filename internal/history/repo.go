package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tunecrate/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Add records one terminal download outcome.
func (r *Repo) Add(ctx context.Context, entry models.HistoryEntry) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO download_history (source, item_id, title, artist, file_name, bytes, status, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Source, entry.ItemID, entry.Title, entry.Artist, entry.FileName,
		entry.Bytes, entry.Status, entry.Error, entry.At)
	if err != nil {
		return fmt.Errorf("insert download history: %w", err)
	}
	return nil
}

// List returns history entries newest first, optionally filtered by
// status ("done" or "failed").
func (r *Repo) List(ctx context.Context, status string, limit, offset int) ([]models.HistoryEntry, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	var countErr error
	if status == "" {
		countErr = r.DB.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM download_history
		`).Scan(&total)
	} else {
		countErr = r.DB.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM download_history WHERE status = ?
		`, status).Scan(&total)
	}
	if countErr != nil {
		return nil, 0, fmt.Errorf("count history: %w", countErr)
	}

	var rows *sql.Rows
	var err error

	if status == "" {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT id, source, item_id, title, artist, file_name, bytes, status, error, at
			FROM download_history
			ORDER BY at DESC
			LIMIT ? OFFSET ?
		`, limit, offset)
	} else {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT id, source, item_id, title, artist, file_name, bytes, status, error, at
			FROM download_history
			WHERE status = ?
			ORDER BY at DESC
			LIMIT ? OFFSET ?
		`, status, limit, offset)
	}

	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryEntry, 0, limit)
	for rows.Next() {
		var e models.HistoryEntry
		var at time.Time

		if err := rows.Scan(&e.ID, &e.Source, &e.ItemID, &e.Title, &e.Artist,
			&e.FileName, &e.Bytes, &e.Status, &e.Error, &at); err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		e.At = at
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}

	return out, total, nil
}
