package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/visheshtachauhan/aharic-orders/internal/domain"
)

// File keeps the order collection in a single JSON file. A missing or corrupt
// file is not an error: Load falls back to an empty collection so a damaged
// data file never prevents the service from starting.
type File struct {
	path string
	log  *slog.Logger
}

func NewFile(path string, log *slog.Logger) *File {
	return &File{path: path, log: log}
}

func (f *File) Load(_ context.Context) ([]domain.Order, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.Warn("order file unreadable, starting empty", "path", f.path, "error", err)
		}
		return nil, nil
	}

	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		f.log.Warn("order file corrupt, starting empty", "path", f.path, "error", err)
		return nil, nil
	}

	return orders, nil
}

func (f *File) Save(_ context.Context, orders []domain.Order) error {
	if orders == nil {
		orders = []domain.Order{}
	}

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}

	// Write to a temp file in the same directory and rename, so a crash
	// mid-write never leaves a truncated order file behind.
	tmp, err := os.CreateTemp(dir, ".orders-*.json")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("tmp.Write: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("tmp.Close: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("os.Rename: %w", err)
	}

	return nil
}
