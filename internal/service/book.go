package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelfapp/shelf/internal/domain"
	domainerrors "github.com/shelfapp/shelf/internal/errors"
	"github.com/shelfapp/shelf/internal/store"
	"github.com/shelfapp/shelf/internal/validation"
)

// BookService manages one user's catalog. Every method takes the acting
// user's id; books owned by anyone else behave as if they did not exist.
type BookService struct {
	books     store.BookStore
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(books store.BookStore, validator *validation.Validator, logger *slog.Logger) *BookService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BookService{books: books, validator: validator, logger: logger}
}

// patchCheck mirrors the NewBook rules for the fields a patch sets.
type patchCheck struct {
	Title  *string `field:"title" validate:"omitnil,notblank,max=512"`
	Author *string `field:"author" validate:"omitnil,notblank,max=512"`
	Year   *int    `field:"year" validate:"omitnil,gte=0,lte=9999"`
	Genre  *string `field:"genre" validate:"omitnil,max=256"`
	Note   *string `field:"note" validate:"omitnil,max=4096"`
}

func ptr[T any](o domain.Optional[T]) *T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// Add stores a new book for userID.
func (s *BookService) Add(ctx context.Context, userID int64, nb domain.NewBook) (*domain.Book, error) {
	nb = nb.Normalized()
	if err := s.validator.Validate(nb); err != nil {
		return nil, err
	}

	book, err := s.books.CreateBook(ctx, userID, nb)
	if err != nil {
		return nil, fromStore(err, "add book")
	}

	s.logger.Info("book added",
		"user_id", userID,
		"book_id", book.ID,
		"title", book.Title,
	)
	return book, nil
}

// List returns all of userID's books.
func (s *BookService) List(ctx context.Context, userID int64, opts store.ListOptions) ([]*domain.Book, error) {
	books, err := s.books.ListBooks(ctx, userID, opts)
	if err != nil {
		return nil, fromStore(err, "list books")
	}
	return books, nil
}

// Search returns userID's books whose title or author contains keyword,
// ignoring case. A blank keyword returns every book.
func (s *BookService) Search(ctx context.Context, userID int64, keyword string) ([]*domain.Book, error) {
	books, err := s.books.SearchBooks(ctx, userID, keyword)
	if err != nil {
		return nil, fromStore(err, "search books")
	}

	s.logger.Debug("books searched", "user_id", userID, "keyword", keyword, "matches", len(books))
	return books, nil
}

// Get returns one of userID's books or a NotFound error.
func (s *BookService) Get(ctx context.Context, userID, bookID int64) (*domain.Book, error) {
	book, err := s.books.GetBook(ctx, userID, bookID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("book %d not found", bookID)
	}
	if err != nil {
		return nil, fromStore(err, "get book")
	}
	return book, nil
}

// Exists reports whether bookID is one of userID's books.
func (s *BookService) Exists(ctx context.Context, userID, bookID int64) (bool, error) {
	ok, err := s.books.BookExists(ctx, userID, bookID)
	if err != nil {
		return false, fromStore(err, "check book")
	}
	return ok, nil
}

// Update writes the fields set in patch. It reports false, with no error,
// when the patch is empty or userID has no such book.
func (s *BookService) Update(ctx context.Context, userID, bookID int64, patch domain.BookPatch) (bool, error) {
	patch = patch.Normalized()
	if patch.IsEmpty() {
		return false, nil
	}

	if err := s.validator.Validate(patchCheck{
		Title:  ptr(patch.Title),
		Author: ptr(patch.Author),
		Year:   ptr(patch.Year),
		Genre:  ptr(patch.Genre),
		Note:   ptr(patch.Note),
	}); err != nil {
		return false, err
	}

	updated, err := s.books.UpdateBook(ctx, userID, bookID, patch)
	if err != nil {
		return false, fromStore(err, "update book")
	}

	if updated {
		s.logger.Info("book updated", "user_id", userID, "book_id", bookID)
	}
	return updated, nil
}

// Delete removes one of userID's books and reports whether it existed.
func (s *BookService) Delete(ctx context.Context, userID, bookID int64) (bool, error) {
	deleted, err := s.books.DeleteBook(ctx, userID, bookID)
	if err != nil {
		return false, fromStore(err, "delete book")
	}

	if deleted {
		s.logger.Info("book deleted", "user_id", userID, "book_id", bookID)
	}
	return deleted, nil
}

// Count returns how many books userID owns.
func (s *BookService) Count(ctx context.Context, userID int64) (int, error) {
	n, err := s.books.CountBooks(ctx, userID)
	if err != nil {
		return 0, fromStore(err, "count books")
	}
	return n, nil
}

// RequireBook returns a NotFound error unless bookID is one of userID's books.
func (s *BookService) RequireBook(ctx context.Context, userID, bookID int64) error {
	ok, err := s.Exists(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.NotFoundf("book %d not found", bookID)
	}
	return nil
}
