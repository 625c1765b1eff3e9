package data

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DevRickLin/tg-resender/internal/biz/repo"
)

// fileWatermarkRepo implements the Watermark repository as a text file holding one decimal id
type fileWatermarkRepo struct {
	path string
}

// NewFileWatermarkRepo creates a new file-backed Watermark repository
func NewFileWatermarkRepo(path string) repo.WatermarkRepo {
	return &fileWatermarkRepo{path: path}
}

// Read reads the watermark; a missing or blank file means none is stored
func (r *fileWatermarkRepo) Read(ctx context.Context) (int64, bool, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read watermark: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt watermark file %s: %w", r.path, err)
	}
	return id, true, nil
}

// Write replaces the file atomically and returns once the new id is on disk
func (r *fileWatermarkRepo) Write(ctx context.Context, id int64) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create watermark directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(strconv.FormatInt(id, 10)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write watermark: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync watermark: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close watermark: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("failed to replace watermark: %w", err)
	}

	// Persist the rename itself
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open watermark directory: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync watermark directory: %w", err)
	}
	return nil
}

// Close is a no-op for the file store
func (r *fileWatermarkRepo) Close() error {
	return nil
}
