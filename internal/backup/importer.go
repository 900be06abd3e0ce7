package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shelfapp/shelf/internal/domain"
	domainerrors "github.com/shelfapp/shelf/internal/errors"
)

const invalidFileMsg = "invalid import file"

// Validator checks a parsed book. *validation.Validator satisfies it.
type Validator interface {
	Validate(s any) error
}

// Importer turns CSV files into books ready for insertion. It never writes
// to the store; the caller inserts the whole batch in one transaction.
type Importer struct {
	validator Validator
}

// NewImporter creates an Importer. A nil validator skips field checks
// beyond what parsing enforces.
func NewImporter(v Validator) *Importer {
	return &Importer{validator: v}
}

// Load reads every row of the file at path.
func (im *Importer) Load(ctx context.Context, path string) ([]domain.NewBook, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domainerrors.NotFoundf("import file %s not found", path)
		}
		return nil, fmt.Errorf("stat import file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, domainerrors.Validation(invalidFileMsg).WithCause(ErrNotRegularFile)
	}

	f, err := os.Open(path) //#nosec G304 -- importing a user-chosen file is the point
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	return im.Read(ctx, f)
}

// Read parses and validates all rows from r. Any bad row fails the whole
// batch with a validation error naming its line.
func (im *Importer) Read(ctx context.Context, r io.Reader) ([]domain.NewBook, error) {
	var books []domain.NewBook

	for row, err := range Rows(r) {
		if err != nil {
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				return nil, domainerrors.Validation(invalidFileMsg).WithCause(rowErr)
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if im.validator != nil {
			if err := im.validator.Validate(row.Book); err != nil {
				var de *domainerrors.Error
				if errors.As(err, &de) {
					return nil, domainerrors.ValidationWithDetails(invalidFileMsg, de.Details).
						WithCause(&RowError{Line: row.Line, Err: err})
				}
				return nil, fmt.Errorf("line %d: %w", row.Line, err)
			}
		}

		books = append(books, row.Book)
	}

	return books, nil
}
