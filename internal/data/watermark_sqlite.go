package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DevRickLin/tg-resender/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// sqliteWatermarkRepo implements the Watermark repository on sqlite, one row per source channel
type sqliteWatermarkRepo struct {
	db      *sql.DB
	channel string
}

// NewSQLiteWatermarkRepo creates a new sqlite-backed Watermark repository
func NewSQLiteWatermarkRepo(dbPath, channel string) (repo.WatermarkRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS watermarks (
			channel TEXT PRIMARY KEY,
			last_id INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &sqliteWatermarkRepo{db: db, channel: channelKey(channel)}, nil
}

// Read reads the watermark of the source channel
func (r *sqliteWatermarkRepo) Read(ctx context.Context) (int64, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT last_id FROM watermarks WHERE channel = ?`, r.channel)

	var id int64
	err := row.Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query watermark: %w", err)
	}
	return id, true, nil
}

// Write stores the watermark; a lower id never replaces a higher one
func (r *sqliteWatermarkRepo) Write(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watermarks (channel, last_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(channel) DO UPDATE SET
			last_id = MAX(last_id, excluded.last_id),
			updated_at = excluded.updated_at
	`, r.channel, id, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	return nil
}

// Close closes the database
func (r *sqliteWatermarkRepo) Close() error {
	return r.db.Close()
}

// channelKey normalizes a channel username so "@Name" and "name" share a row
func channelKey(channel string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(channel), "@"))
}
