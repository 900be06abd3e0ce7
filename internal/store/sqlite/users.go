package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shelfapp/shelf/internal/domain"
	"github.com/shelfapp/shelf/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, username, email, password_hash, created_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)

	if err := scanner.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		return nil, err
	}

	var err error
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user and sets u.ID.
// Returns store.ErrAlreadyExists if the username or email is taken; no row is written.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) (int64, error) {
	id, err := insertUser(ctx, s.db, u)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("user created", "user_id", id, "username", u.Username)
	return id, nil
}

func insertUser(ctx context.Context, ex execer, u *domain.User) (int64, error) {
	if strings.TrimSpace(u.Username) == "" || strings.TrimSpace(u.Email) == "" || u.PasswordHash == "" {
		return 0, store.ErrInvalidInput.WithMessage("username, email and password hash are required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	result, err := ex.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		u.Username,
		u.Email,
		u.PasswordHash,
		formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, duplicateUserError(err)
		}
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

func duplicateUserError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return store.ErrAlreadyExists.WithMessage("username already exists")
	case strings.Contains(msg, "users.email"):
		return store.ErrAlreadyExists.WithMessage("email already exists")
	default:
		return store.ErrAlreadyExists
	}
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByUsername retrieves a user by exact username.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// CreateUserWithBooks registers u and inserts books for it in one transaction.
// If any insert fails, neither the user nor any book is written.
func (s *Store) CreateUserWithBooks(ctx context.Context, u *domain.User, books []domain.NewBook) (int64, int, error) {
	var (
		userID int64
		count  int
	)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := insertUser(ctx, tx, u)
		if err != nil {
			return err
		}
		userID = id

		count, err = insertBooks(ctx, tx, id, books)
		return err
	})
	if err != nil {
		u.ID = 0
		return 0, 0, err
	}

	s.logger.Debug("user created with books", "user_id", userID, "books", count)
	return userID, count, nil
}
