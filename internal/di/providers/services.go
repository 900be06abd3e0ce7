package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfapp/shelf/internal/auth"
	"github.com/shelfapp/shelf/internal/backup"
	"github.com/shelfapp/shelf/internal/config"
	"github.com/shelfapp/shelf/internal/service"
	"github.com/shelfapp/shelf/internal/validation"
)

// ProvideValidator provides the shared input validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hasher := do.MustInvoke[*auth.Hasher](i)
	limiter := do.MustInvoke[*LoginLimiterHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewAuthService(storeHandle.Store, hasher, limiter.KeyedRateLimiter, validator, log.Logger.Logger), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewBookService(storeHandle.Store, validator, log.Logger.Logger), nil
}

// ProvideExporter provides the CSV exporter writing into the configured directory.
func ProvideExporter(i do.Injector) (*backup.Exporter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return backup.NewExporter(cfg.Export.Dir), nil
}

// ProvideImporter provides the CSV importer.
func ProvideImporter(i do.Injector) (*backup.Importer, error) {
	validator := do.MustInvoke[*validation.Validator](i)
	return backup.NewImporter(validator), nil
}

// ProvideTransferService provides CSV import and export.
func ProvideTransferService(i do.Injector) (*service.TransferService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	exporter := do.MustInvoke[*backup.Exporter](i)
	importer := do.MustInvoke[*backup.Importer](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewTransferService(storeHandle.Store, exporter, importer, log.Logger.Logger), nil
}
