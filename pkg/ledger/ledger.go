// Package ledger keeps a local SQLite record of published content rows,
// mirroring what lands in the spreadsheet backend. It is the source of
// the "previously seen URLs" list consumed by duplicate filtering.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lookbook-ai/lookbook/pkg/models"
)

// Ledger stores content records in a SQLite database.
type Ledger struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS content_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sheet_name TEXT NOT NULL,
	image_url TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	hashtags TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_content_sheet_url ON content_records(sheet_name, image_url);
`

// Open opens or creates the ledger database.
func Open(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger db: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Save appends a content record.
func (l *Ledger) Save(ctx context.Context, rec models.ContentRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO content_records (sheet_name, image_url, title, description, hashtags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SheetName, rec.ImageURL, rec.Title, rec.Description, rec.Hashtags, created,
	)
	if err != nil {
		return fmt.Errorf("save content record: %w", err)
	}
	return nil
}

// SeenURLs returns the distinct image URLs already recorded for a sheet.
func (l *Ledger) SeenURLs(ctx context.Context, sheetName string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT DISTINCT image_url FROM content_records WHERE sheet_name = ? ORDER BY image_url`,
		sheetName,
	)
	if err != nil {
		return nil, fmt.Errorf("query seen urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan seen url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// HasURL reports whether an image URL is already recorded for a sheet.
func (l *Ledger) HasURL(ctx context.Context, sheetName, imageURL string) (bool, error) {
	var n int64
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_records WHERE sheet_name = ? AND image_url = ?`,
		sheetName, imageURL,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query url: %w", err)
	}
	return n > 0, nil
}

// Records returns all records for a sheet, newest first.
func (l *Ledger) Records(ctx context.Context, sheetName string) ([]models.ContentRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT sheet_name, image_url, title, description, hashtags, created_at
		 FROM content_records WHERE sheet_name = ? ORDER BY created_at DESC, id DESC`,
		sheetName,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var recs []models.ContentRecord
	for rows.Next() {
		var rec models.ContentRecord
		if err := rows.Scan(&rec.SheetName, &rec.ImageURL, &rec.Title, &rec.Description, &rec.Hashtags, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}
