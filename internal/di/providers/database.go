package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/shelfapp/shelf/internal/config"
	"github.com/shelfapp/shelf/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.ShutdownerWithError.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the library database, creating its directory if needed.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o750); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path, log.Logger.Logger)
	if err != nil {
		return nil, err
	}

	log.Debug("database opened", "path", cfg.Database.Path)

	return &StoreHandle{Store: db}, nil
}
