// Package csvfile appends tables to CSV files, one file per table.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
)

// Sink writes each table to <dir>/<slug>.csv. The header is written when the
// file is created; later runs append rows below it.
type Sink struct {
	dir    string
	logger *slog.Logger
}

// NewSink creates a CSV sink rooted at dir.
func NewSink(dir string, logger *slog.Logger) *Sink {
	return &Sink{dir: dir, logger: logger}
}

func (s *Sink) Name() string { return "csv" }

// Path returns the file a table is written to.
func (s *Sink) Path(table domain.Table) string {
	return filepath.Join(s.dir, table.Slug()+".csv")
}

func (s *Sink) Append(_ context.Context, table domain.Table) (err error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}

	path := s.Path(table)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		s.logger.Info("creating csv destination", "path", path)
		if err := w.Write(table.Header()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, row := range table.Rows {
		if err := w.Write(formatRow(row)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = domain.CellText(v)
	}
	return out
}
