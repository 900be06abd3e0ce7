// Package service holds the shelf use cases: accounts, the book catalog and
// CSV transfer. Services validate input, call the store and translate store
// failures into domain errors the CLI can report.
package service

import (
	"errors"

	domainerrors "github.com/shelfapp/shelf/internal/errors"
	"github.com/shelfapp/shelf/internal/store"
)

// fromStore converts a store error into a domain error. op names the failed
// operation for unexpected errors, e.g. "list books".
func fromStore(err error, op string) error {
	if err == nil {
		return nil
	}

	// Store messages are user-facing, e.g. "username already exists".
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(err.Error())
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(err.Error())
	}

	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}

	return domainerrors.Wrapf(err, domainerrors.CodeInternal, "%s failed", op)
}
