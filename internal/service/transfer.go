package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shelfapp/shelf/internal/backup"
	"github.com/shelfapp/shelf/internal/store"
)

// ImportResult contains the outcome of an import.
type ImportResult struct {
	Path     string
	Books    int
	Duration time.Duration
}

// TransferService moves a user's library in and out of CSV files.
type TransferService struct {
	store    store.Store
	exporter *backup.Exporter
	importer *backup.Importer
	logger   *slog.Logger
}

// NewTransferService creates a TransferService.
func NewTransferService(s store.Store, exporter *backup.Exporter, importer *backup.Importer, logger *slog.Logger) *TransferService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TransferService{store: s, exporter: exporter, importer: importer, logger: logger}
}

// Export writes all of userID's books to the export directory in a file
// named after the user, replacing any earlier export.
func (s *TransferService) Export(ctx context.Context, userID int64) (*backup.ExportResult, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fromStore(err, "lookup user")
	}

	result, err := s.exporter.Export(ctx, user.Username, user.ID, s.store.StreamBooks(ctx, userID))
	if err != nil {
		return nil, fromStore(err, "export books")
	}

	s.logger.Info("library exported",
		"user_id", userID,
		"path", result.Path,
		"books", result.Books,
		"duration", result.Duration,
		"checksum", result.Checksum,
	)
	return result, nil
}

// Import adds every book in the file at path to userID's library. The
// file's id column is ignored. Either all rows are added or none are.
func (s *TransferService) Import(ctx context.Context, userID int64, path string) (*ImportResult, error) {
	start := time.Now()

	books, err := s.importer.Load(ctx, path)
	if err != nil {
		return nil, fromStore(err, "read import file")
	}

	n, err := s.store.CreateBooks(ctx, userID, books)
	if err != nil {
		return nil, fromStore(err, "import books")
	}

	result := &ImportResult{Path: path, Books: n, Duration: time.Since(start)}

	s.logger.Info("library imported",
		"user_id", userID,
		"path", path,
		"books", n,
		"duration", result.Duration,
	)
	return result, nil
}
