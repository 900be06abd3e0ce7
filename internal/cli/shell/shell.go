// Package shell implements the interactive library menu. It reads one answer
// per line from an io.Reader so it can be driven by a terminal or a script.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shelfapp/shelf/internal/backup"
	"github.com/shelfapp/shelf/internal/domain"
	domainerrors "github.com/shelfapp/shelf/internal/errors"
	"github.com/shelfapp/shelf/internal/id"
	"github.com/shelfapp/shelf/internal/logger"
	"github.com/shelfapp/shelf/internal/service"
	"github.com/shelfapp/shelf/internal/store"
)

// Authenticator signs users in and up.
type Authenticator interface {
	Register(ctx context.Context, req service.RegisterRequest) (*domain.User, error)
	Authenticate(ctx context.Context, req service.LoginRequest) (*domain.User, error)
}

// Library manages one user's books.
type Library interface {
	Add(ctx context.Context, userID int64, nb domain.NewBook) (*domain.Book, error)
	List(ctx context.Context, userID int64, opts store.ListOptions) ([]*domain.Book, error)
	Search(ctx context.Context, userID int64, keyword string) ([]*domain.Book, error)
	Get(ctx context.Context, userID, bookID int64) (*domain.Book, error)
	Update(ctx context.Context, userID, bookID int64, patch domain.BookPatch) (bool, error)
	Delete(ctx context.Context, userID, bookID int64) (bool, error)
	Count(ctx context.Context, userID int64) (int, error)
}

// Transfer moves a library to and from CSV files.
type Transfer interface {
	Export(ctx context.Context, userID int64) (*backup.ExportResult, error)
	Import(ctx context.Context, userID int64, path string) (*service.ImportResult, error)
}

// Options configures a Shell.
type Options struct {
	In     io.Reader
	Out    io.Writer
	Logger *logger.Logger

	// ReadPassword reads a line without echo. Nil reads passwords from In.
	ReadPassword func() (string, error)
}

// Shell is one interactive run of the menu.
type Shell struct {
	auth     Authenticator
	books    Library
	transfer Transfer
	prompt   *prompter
	out      io.Writer
	logger   *logger.Logger
}

// errExit ends the run without error.
var errExit = errors.New("exit")

// errLogout returns to the welcome menu.
var errLogout = errors.New("logout")

// New creates a Shell over the given services.
func New(auth Authenticator, books Library, transfer Transfer, opts Options) *Shell {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Shell{
		auth:     auth,
		books:    books,
		transfer: transfer,
		prompt:   newPrompter(opts.In, opts.Out, opts.ReadPassword),
		out:      opts.Out,
		logger:   opts.Logger.WithSession(id.Session()),
	}
}

// Run shows the welcome menu until the user exits or input ends. Operation
// failures are reported and never end the run; only I/O errors on the input
// and context cancellation are returned.
func (s *Shell) Run(ctx context.Context) error {
	s.logger.Debug("shell started")
	defer s.logger.Debug("shell finished")

	fmt.Fprintln(s.out, "Personal Library Manager")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		user, err := s.welcome(ctx)
		if err != nil {
			return s.finish(err)
		}
		if user == nil {
			continue
		}

		if err := s.session(ctx, user); err != nil && !errors.Is(err, errLogout) {
			return s.finish(err)
		}
	}
}

func (s *Shell) finish(err error) error {
	if errors.Is(err, errExit) || errors.Is(err, io.EOF) {
		fmt.Fprintln(s.out, "Goodbye!")
		return nil
	}
	return err
}

// welcome returns the signed-in user, or nil when the attempt failed and was reported.
func (s *Shell) welcome(ctx context.Context) (*domain.User, error) {
	fmt.Fprint(s.out, "\n1. Log in\n2. Register\n3. Exit\n")
	choice, err := s.prompt.line("Choose an option: ")
	if err != nil {
		return nil, err
	}

	var user *domain.User
	switch choice {
	case "1":
		user, err = s.login(ctx)
	case "2":
		user, err = s.register(ctx)
	case "3":
		return nil, errExit
	default:
		fmt.Fprintln(s.out, "Invalid option. Try again.")
		return nil, nil
	}

	if err != nil {
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil, err
		}
		s.report(err)
		return nil, nil
	}
	return user, nil
}

func (s *Shell) login(ctx context.Context) (*domain.User, error) {
	username, err := s.prompt.line("Username: ")
	if err != nil {
		return nil, err
	}
	password, err := s.prompt.secret("Password: ")
	if err != nil {
		return nil, err
	}

	return s.auth.Authenticate(ctx, service.LoginRequest{Username: username, Password: password})
}

func (s *Shell) register(ctx context.Context) (*domain.User, error) {
	username, err := s.prompt.line("Username: ")
	if err != nil {
		return nil, err
	}
	email, err := s.prompt.line("Email: ")
	if err != nil {
		return nil, err
	}
	password, err := s.prompt.secret("Password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := s.prompt.secret("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, domainerrors.Validation("passwords do not match")
	}

	user, err := s.auth.Register(ctx, service.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(s.out, "Account %s created.\n", user.Username)
	return user, nil
}

type action func(ctx context.Context, user *domain.User) error

func (s *Shell) session(ctx context.Context, user *domain.User) error {
	log := s.logger.WithField("user_id", user.ID)
	log.Info("user signed in", "username", user.Username)

	if n, err := s.books.Count(ctx, user.ID); err == nil {
		fmt.Fprintf(s.out, "Welcome, %s! You have %d book(s).\n", user.Username, n)
	}

	actions := map[string]action{
		"1": s.add,
		"2": s.list,
		"3": s.search,
		"4": s.update,
		"5": s.delete,
		"6": s.importBooks,
		"7": s.exportBooks,
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(s.out, menu)
		choice, err := s.prompt.line("Choose an option: ")
		if err != nil {
			return err
		}

		switch choice {
		case "8":
			log.Info("user signed out")
			return errLogout
		case "9":
			return errExit
		}

		act, ok := actions[choice]
		if !ok {
			fmt.Fprintln(s.out, "Invalid option. Try again.")
			continue
		}

		if err := act(ctx, user); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return err
			}
			s.report(err)
		}
	}
}

const menu = `
1. Add book
2. List books
3. Search books
4. Update book
5. Delete book
6. Import from CSV
7. Export to CSV
8. Log out
9. Exit
`

// report prints err for the user. Unexpected failures are also logged.
func (s *Shell) report(err error) {
	switch domainerrors.KindOf(err) {
	case domainerrors.KindValidation, domainerrors.KindConstraint:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	default:
		s.logger.WithError(err).Error("operation failed")
		fmt.Fprintf(s.out, "Something went wrong: %v\n", err)
	}
}

func (s *Shell) add(ctx context.Context, user *domain.User) error {
	var nb domain.NewBook
	var err error

	if nb.Title, err = s.prompt.line("Title: "); err != nil {
		return err
	}
	if nb.Author, err = s.prompt.line("Author: "); err != nil {
		return err
	}
	if nb.Year, err = s.prompt.number("Year: ", "year"); err != nil {
		return err
	}
	if nb.Read, _, err = s.prompt.yesNo("Have you read it? (y/n): "); err != nil {
		return err
	}
	if nb.Genre, err = s.prompt.line("Genre (optional): "); err != nil {
		return err
	}
	if nb.Note, err = s.prompt.line("Note (optional): "); err != nil {
		return err
	}

	book, err := s.books.Add(ctx, user.ID, nb)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Book added with id %d.\n", book.ID)
	return nil
}

func (s *Shell) list(ctx context.Context, user *domain.User) error {
	answer, err := s.prompt.line("Sort by (title/author/year/added, add \"desc\" to reverse, blank for insertion order): ")
	if err != nil {
		return err
	}

	opts, err := parseListOptions(answer)
	if err != nil {
		return err
	}

	books, err := s.books.List(ctx, user.ID, opts)
	if err != nil {
		return err
	}
	printBooks(s.out, books)
	return nil
}

func parseListOptions(answer string) (store.ListOptions, error) {
	fields := strings.Fields(answer)
	if len(fields) == 0 {
		return store.ListOptions{}, nil
	}
	if len(fields) > 2 || (len(fields) == 2 && !strings.EqualFold(fields[1], "desc")) {
		return store.ListOptions{}, domainerrors.Validationf("cannot sort by %q", answer)
	}

	sort, err := store.ParseSortField(fields[0])
	if err != nil {
		return store.ListOptions{}, domainerrors.Validationf("cannot sort by %q", fields[0])
	}
	return store.ListOptions{Sort: sort, Descending: len(fields) == 2}, nil
}

func (s *Shell) search(ctx context.Context, user *domain.User) error {
	keyword, err := s.prompt.line("Search keyword (title/author): ")
	if err != nil {
		return err
	}

	books, err := s.books.Search(ctx, user.ID, keyword)
	if err != nil {
		return err
	}
	printBooks(s.out, books)
	return nil
}

func (s *Shell) update(ctx context.Context, user *domain.User) error {
	bookID, err := s.prompt.id("Book id to update: ")
	if err != nil {
		return err
	}

	current, err := s.books.Get(ctx, user.ID, bookID)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Leave a field blank to keep it. Enter - to clear genre or note.")

	var patch domain.BookPatch
	if patch.Title, err = s.optionalText(fmt.Sprintf("Title [%s]: ", current.Title), false); err != nil {
		return err
	}
	if patch.Author, err = s.optionalText(fmt.Sprintf("Author [%s]: ", current.Author), false); err != nil {
		return err
	}

	year, err := s.prompt.line(fmt.Sprintf("Year [%d]: ", current.Year))
	if err != nil {
		return err
	}
	if year != "" {
		n, err := parseInt(year, "year")
		if err != nil {
			return err
		}
		patch.Year = domain.Some(n)
	}

	read, ok, err := s.prompt.yesNo(fmt.Sprintf("Read (y/n) [%s]: ", readMark(current.Read)))
	if err != nil {
		return err
	}
	if ok {
		patch.Read = domain.Some(read)
	}

	if patch.Genre, err = s.optionalText(fmt.Sprintf("Genre [%s]: ", current.Genre), true); err != nil {
		return err
	}
	if patch.Note, err = s.optionalText(fmt.Sprintf("Note [%s]: ", current.Note), true); err != nil {
		return err
	}

	updated, err := s.books.Update(ctx, user.ID, bookID, patch)
	if err != nil {
		return err
	}
	if !updated {
		fmt.Fprintln(s.out, "Nothing to update.")
		return nil
	}
	fmt.Fprintln(s.out, "Book updated.")
	return nil
}

// optionalText maps a blank answer to "not provided". When clearable, the
// clear marker sets the field to empty.
func (s *Shell) optionalText(label string, clearable bool) (domain.Optional[string], error) {
	answer, err := s.prompt.line(label)
	if err != nil {
		return domain.None[string](), err
	}
	switch {
	case answer == "":
		return domain.None[string](), nil
	case clearable && answer == clearMarker:
		return domain.Some(""), nil
	default:
		return domain.Some(answer), nil
	}
}

func (s *Shell) delete(ctx context.Context, user *domain.User) error {
	bookID, err := s.prompt.id("Book id to delete: ")
	if err != nil {
		return err
	}

	deleted, err := s.books.Delete(ctx, user.ID, bookID)
	if err != nil {
		return err
	}
	if !deleted {
		return domainerrors.NotFoundf("book %d not found", bookID)
	}
	fmt.Fprintln(s.out, "Book deleted.")
	return nil
}

func (s *Shell) importBooks(ctx context.Context, user *domain.User) error {
	path, err := s.prompt.line("CSV file to import: ")
	if err != nil {
		return err
	}
	if path == "" {
		return domainerrors.Validation("file path is required")
	}

	result, err := s.transfer.Import(ctx, user.ID, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Imported %d book(s) from %s.\n", result.Books, result.Path)
	return nil
}

func (s *Shell) exportBooks(ctx context.Context, user *domain.User) error {
	result, err := s.transfer.Export(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Exported %d book(s) to %s.\n", result.Books, result.Path)
	return nil
}
