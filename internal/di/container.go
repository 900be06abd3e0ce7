// Package di wires shelf's components together with samber/do.
package di

import (
	"io"

	"github.com/samber/do/v2"
	"github.com/spf13/viper"

	"github.com/shelfapp/shelf/internal/backup"
	"github.com/shelfapp/shelf/internal/config"
	"github.com/shelfapp/shelf/internal/di/providers"
	"github.com/shelfapp/shelf/internal/logger"
	"github.com/shelfapp/shelf/internal/service"
)

// NewContainer creates the DI container. v must already have its flags bound.
// Console log records go to logOut, or stderr when it is nil.
func NewContainer(v *viper.Viper, logOut io.Writer) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, v)
	do.ProvideValue(injector, &providers.LogOutput{Writer: logOut})
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideHasher)
	do.Provide(injector, providers.ProvideLoginLimiter)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideExporter)
	do.Provide(injector, providers.ProvideImporter)
	do.Provide(injector, providers.ProvideTransferService)

	return injector
}

// Bootstrap resolves configuration, logging and the store so that setup
// failures surface before any command runs.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.LoggerHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	return nil
}

// Services groups the use cases a command needs.
type Services struct {
	Auth     *service.AuthService
	Books    *service.BookService
	Transfer *service.TransferService
	Importer *backup.Importer
	Logger   *logger.Logger
}

// ResolveServices returns every business service from the container.
func ResolveServices(injector *do.RootScope) (*Services, error) {
	authSvc, err := do.Invoke[*service.AuthService](injector)
	if err != nil {
		return nil, err
	}
	bookSvc, err := do.Invoke[*service.BookService](injector)
	if err != nil {
		return nil, err
	}
	transferSvc, err := do.Invoke[*service.TransferService](injector)
	if err != nil {
		return nil, err
	}
	importer, err := do.Invoke[*backup.Importer](injector)
	if err != nil {
		return nil, err
	}
	log, err := do.Invoke[*providers.LoggerHandle](injector)
	if err != nil {
		return nil, err
	}
	return &Services{
		Auth:     authSvc,
		Books:    bookSvc,
		Transfer: transferSvc,
		Importer: importer,
		Logger:   log.Logger,
	}, nil
}
