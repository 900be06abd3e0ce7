package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shelfapp/shelf/internal/domain"
	"github.com/shelfapp/shelf/internal/normalize"
)

// ExportResult contains the outcome of an export.
type ExportResult struct {
	Path     string
	Books    int
	Size     int64
	Duration time.Duration
	Checksum string // hex SHA-256 of the file
}

// Exporter writes CSV files into a directory.
type Exporter struct {
	dir string
}

// NewExporter creates an Exporter writing into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// FileName returns the export file name for a user. A username that is
// already a safe lowercase name without hyphens is used as is ("alice.csv").
// Any other username is reduced to a slug and suffixed with the user id
// ("Alice" -> "alice-2.csv"), or becomes "user-<id>.csv" when nothing of it
// survives. Verbatim names never contain a hyphen and suffixed names end in
// "-<id>", so distinct users never share a file.
func FileName(username string, userID int64) (string, error) {
	base := normalize.FileName(username)
	if base == username && !strings.Contains(base, "-") && base != "" {
		return base + ".csv", nil
	}

	if userID <= 0 {
		return "", ErrNoFileName
	}
	if base == "" {
		base = "user"
	}
	return fmt.Sprintf("%s-%d.csv", base, userID), nil
}

// Path returns where Export would write the file for this user.
func (e *Exporter) Path(username string, userID int64) (string, error) {
	name, err := FileName(username, userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(e.dir, name), nil
}

// Export writes books to the user's file, replacing any previous export.
// The file only appears once fully written; a failed export leaves the old
// file in place.
func (e *Exporter) Export(ctx context.Context, username string, userID int64, books iter.Seq2[*domain.Book, error]) (*ExportResult, error) {
	start := time.Now()

	outputPath, err := e.Path(username, userID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	f, err := os.CreateTemp(e.dir, ".export-*.csv.tmp")
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename
	defer f.Close()

	hash := sha256.New()
	w, err := NewWriter(io.MultiWriter(f, hash))
	if err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for b, err := range books {
		if err != nil {
			return nil, fmt.Errorf("read books: %w", err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := w.Write(b); err != nil {
			return nil, fmt.Errorf("write book %d: %w", b.ID, err)
		}
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return nil, fmt.Errorf("rename export: %w", err)
	}

	result := &ExportResult{
		Path:     outputPath,
		Books:    w.Count(),
		Duration: time.Since(start),
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}
	if info, err := os.Stat(outputPath); err == nil {
		result.Size = info.Size()
	}
	return result, nil
}
