// Package providers contains dependency injection providers for shelf.
package providers

import (
	"io"

	"github.com/samber/do/v2"
	"github.com/spf13/viper"

	"github.com/shelfapp/shelf/internal/config"
	"github.com/shelfapp/shelf/internal/logger"
)

// ProvideConfig loads configuration from the viper instance registered in the container.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	v := do.MustInvoke[*viper.Viper](i)
	return config.Load(v)
}

// LogOutput is where console log records go. A nil Writer means stderr.
type LogOutput struct {
	io.Writer
}

// LoggerHandle owns the logger so the container can close its activity file.
type LoggerHandle struct {
	*logger.Logger
}

// Shutdown implements do.ShutdownerWithError.
func (h *LoggerHandle) Shutdown() error {
	return h.Close()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*LoggerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	out := do.MustInvoke[*LogOutput](i)

	log, err := logger.New(logger.Config{
		Writer:       out.Writer,
		Level:        logger.ParseLevel(cfg.Logger.Level),
		Format:       cfg.Logger.Format,
		Environment:  cfg.App.Environment,
		ActivityFile: cfg.Logger.File,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"db_path", cfg.Database.Path,
		"export_dir", cfg.Export.Dir,
	)

	return &LoggerHandle{Logger: log}, nil
}
