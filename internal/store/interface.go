// Package store defines the persistence contract for users and their books.
// The SQLite implementation lives in the sqlite subpackage.
package store

import (
	"context"
	"iter"
	"strings"

	"github.com/shelfapp/shelf/internal/domain"
)

// UserStore persists accounts.
type UserStore interface {
	// CreateUser inserts u and returns its id. ErrAlreadyExists on a duplicate username or email.
	CreateUser(ctx context.Context, u *domain.User) (int64, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// BookStore persists books. Every call is scoped to the owning user; a book owned
// by someone else behaves exactly like a missing one.
type BookStore interface {
	CreateBook(ctx context.Context, userID int64, nb domain.NewBook) (*domain.Book, error)
	// CreateBooks inserts all books in one transaction. Nothing is written on error.
	CreateBooks(ctx context.Context, userID int64, books []domain.NewBook) (int, error)
	GetBook(ctx context.Context, userID, bookID int64) (*domain.Book, error)
	BookExists(ctx context.Context, userID, bookID int64) (bool, error)
	ListBooks(ctx context.Context, userID int64, opts ListOptions) ([]*domain.Book, error)
	SearchBooks(ctx context.Context, userID int64, keyword string) ([]*domain.Book, error)
	// UpdateBook writes only the fields set in patch. It reports whether a row matched;
	// an empty patch reports false without touching the database.
	UpdateBook(ctx context.Context, userID, bookID int64, patch domain.BookPatch) (bool, error)
	DeleteBook(ctx context.Context, userID, bookID int64) (bool, error)
	CountBooks(ctx context.Context, userID int64) (int, error)
	StreamBooks(ctx context.Context, userID int64) iter.Seq2[*domain.Book, error]
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	BookStore
	// CreateUserWithBooks registers u and inserts books for it atomically.
	CreateUserWithBooks(ctx context.Context, u *domain.User, books []domain.NewBook) (int64, int, error)
	Close() error
}

// SortField selects the ordering of ListBooks.
type SortField string

// Supported orderings. SortNone keeps insertion order.
const (
	SortNone   SortField = ""
	SortTitle  SortField = "title"
	SortAuthor SortField = "author"
	SortYear   SortField = "year"
	SortAdded  SortField = "added"
)

// ParseSortField maps user input to a SortField.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortNone, SortTitle, SortAuthor, SortYear, SortAdded:
		return f, nil
	default:
		return SortNone, ErrInvalidInput.WithMessage("unknown sort field " + s)
	}
}

// ListOptions controls ListBooks.
type ListOptions struct {
	Sort       SortField
	Descending bool
}
