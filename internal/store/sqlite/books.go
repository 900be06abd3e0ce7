package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shelfapp/shelf/internal/domain"
	"github.com/shelfapp/shelf/internal/normalize"
	"github.com/shelfapp/shelf/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, user_id, title, author, year, read, genre, note, added_at`

const insertBookSQL = `
	INSERT INTO books (user_id, title, author, year, read, genre, note, added_at, title_fold, author_fold)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var (
		b       domain.Book
		read    int
		genre   sql.NullString
		note    sql.NullString
		addedAt string
	)

	err := scanner.Scan(
		&b.ID,
		&b.UserID,
		&b.Title,
		&b.Author,
		&b.Year,
		&read,
		&genre,
		&note,
		&addedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Read = read != 0
	if genre.Valid {
		b.Genre = genre.String
	}
	if note.Valid {
		b.Note = note.String
	}

	b.AddedAt, err = parseTime(addedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// scanBooks drains rows into a slice.
func scanBooks(rows *sql.Rows) ([]*domain.Book, error) {
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// checkNewBook enforces the column invariants before anything reaches SQL.
func checkNewBook(nb domain.NewBook) error {
	if strings.TrimSpace(nb.Title) == "" {
		return store.ErrInvalidInput.WithMessage("title is required")
	}
	if strings.TrimSpace(nb.Author) == "" {
		return store.ErrInvalidInput.WithMessage("author is required")
	}
	if nb.Year < 0 {
		return store.ErrInvalidInput.WithMessage("year must not be negative")
	}
	return nil
}

func insertBook(ctx context.Context, ex execer, userID int64, nb domain.NewBook, addedAt time.Time) (int64, error) {
	if err := checkNewBook(nb); err != nil {
		return 0, err
	}

	result, err := ex.ExecContext(ctx, insertBookSQL,
		userID,
		nb.Title,
		nb.Author,
		nb.Year,
		boolToInt(nb.Read),
		nullString(nb.Genre),
		nullString(nb.Note),
		formatTime(addedAt),
		normalize.Fold(nb.Title),
		normalize.Fold(nb.Author),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return 0, store.ErrNotFound.WithMessage("user not found")
		}
		if isCheckViolation(err) {
			return 0, store.ErrInvalidInput.WithCause(err)
		}
		return 0, err
	}
	return result.LastInsertId()
}

// insertBooks writes books one by one through ex, stopping at the first failure.
// The row number in errors is 1-based.
func insertBooks(ctx context.Context, ex execer, userID int64, books []domain.NewBook) (int, error) {
	now := time.Now()
	for i, nb := range books {
		if _, err := insertBook(ctx, ex, userID, nb, now); err != nil {
			return 0, fmt.Errorf("book %d: %w", i+1, err)
		}
	}
	return len(books), nil
}

// CreateBook inserts a book owned by userID and returns it with its generated id.
// Returns store.ErrInvalidInput for a missing title/author or negative year and
// store.ErrNotFound when the user does not exist.
func (s *Store) CreateBook(ctx context.Context, userID int64, nb domain.NewBook) (*domain.Book, error) {
	now := time.Now()

	id, err := insertBook(ctx, s.db, userID, nb, now)
	if err != nil {
		return nil, err
	}

	return &domain.Book{
		ID:      id,
		UserID:  userID,
		Title:   nb.Title,
		Author:  nb.Author,
		Year:    nb.Year,
		Read:    nb.Read,
		Genre:   nb.Genre,
		Note:    nb.Note,
		AddedAt: now.UTC(),
	}, nil
}

// CreateBooks inserts all books for userID in a single transaction.
// On any failure the transaction is rolled back and no book is written.
func (s *Store) CreateBooks(ctx context.Context, userID int64, books []domain.NewBook) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		count, err = insertBooks(ctx, tx, userID, books)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetBook retrieves one of userID's books.
// Returns store.ErrNotFound if the book does not exist or belongs to another user.
func (s *Store) GetBook(ctx context.Context, userID, bookID int64) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? AND user_id = ?`, bookID, userID)

	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// BookExists reports whether bookID exists and belongs to userID.
func (s *Store) BookExists(ctx context.Context, userID, bookID int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM books WHERE id = ? AND user_id = ?`, bookID, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// orderClause maps a sort option to SQL. id is always the final tiebreaker so
// results are deterministic.
func orderClause(opts store.ListOptions) string {
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}

	switch opts.Sort {
	case store.SortTitle:
		return "ORDER BY title_fold " + dir + ", id " + dir
	case store.SortAuthor:
		return "ORDER BY author_fold " + dir + ", id " + dir
	case store.SortYear:
		return "ORDER BY year " + dir + ", id " + dir
	case store.SortAdded:
		return "ORDER BY added_at " + dir + ", id " + dir
	default:
		return "ORDER BY id " + dir
	}
}

// ListBooks returns all of userID's books, in insertion order unless opts asks otherwise.
func (s *Store) ListBooks(ctx context.Context, userID int64, opts store.ListOptions) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_id = ? `+orderClause(opts), userID)
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchBooks finds userID's books whose title or author contains keyword,
// ignoring case. An empty keyword matches every book.
func (s *Store) SearchBooks(ctx context.Context, userID int64, keyword string) ([]*domain.Book, error) {
	pattern := "%" + likeEscaper.Replace(normalize.Fold(strings.TrimSpace(keyword))) + "%"

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books
		WHERE user_id = ?
		  AND (title_fold LIKE ? ESCAPE '\' OR author_fold LIKE ? ESCAPE '\')
		ORDER BY id`,
		userID, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}

// UpdateBook applies patch to one of userID's books in a single statement.
// Only the fields set in patch are written. Returns false without touching the
// database when the patch is empty, and false when no book of userID matched.
func (s *Store) UpdateBook(ctx context.Context, userID, bookID int64, patch domain.BookPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}

	var (
		sets []string
		args []any
	)

	if v, ok := patch.Title.Get(); ok {
		if strings.TrimSpace(v) == "" {
			return false, store.ErrInvalidInput.WithMessage("title cannot be empty")
		}
		sets = append(sets, "title = ?", "title_fold = ?")
		args = append(args, v, normalize.Fold(v))
	}
	if v, ok := patch.Author.Get(); ok {
		if strings.TrimSpace(v) == "" {
			return false, store.ErrInvalidInput.WithMessage("author cannot be empty")
		}
		sets = append(sets, "author = ?", "author_fold = ?")
		args = append(args, v, normalize.Fold(v))
	}
	if v, ok := patch.Year.Get(); ok {
		if v < 0 {
			return false, store.ErrInvalidInput.WithMessage("year must not be negative")
		}
		sets = append(sets, "year = ?")
		args = append(args, v)
	}
	if v, ok := patch.Read.Get(); ok {
		sets = append(sets, "read = ?")
		args = append(args, boolToInt(v))
	}
	if v, ok := patch.Genre.Get(); ok {
		sets = append(sets, "genre = ?")
		args = append(args, nullString(v))
	}
	if v, ok := patch.Note.Get(); ok {
		sets = append(sets, "note = ?")
		args = append(args, nullString(v))
	}

	args = append(args, bookID, userID)

	result, err := s.db.ExecContext(ctx,
		`UPDATE books SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteBook removes one of userID's books. Returns true iff a row was removed.
func (s *Store) DeleteBook(ctx context.Context, userID, bookID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM books WHERE id = ? AND user_id = ?`, bookID, userID)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountBooks returns the number of books owned by userID.
func (s *Store) CountBooks(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}
