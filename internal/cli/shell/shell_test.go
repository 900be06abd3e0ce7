package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfapp/shelf/internal/auth"
	"github.com/shelfapp/shelf/internal/backup"
	"github.com/shelfapp/shelf/internal/domain"
	"github.com/shelfapp/shelf/internal/ratelimit"
	"github.com/shelfapp/shelf/internal/service"
	"github.com/shelfapp/shelf/internal/store"
	"github.com/shelfapp/shelf/internal/store/sqlite"
	"github.com/shelfapp/shelf/internal/validation"
)

const testPassword = "correct horse"

type harness struct {
	auth      *service.AuthService
	books     *service.BookService
	transfer  *service.TransferService
	exportDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	s, err := sqlite.Open(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	hasher, err := auth.NewHasher(auth.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	limiter := ratelimit.New(5, time.Hour)
	t.Cleanup(limiter.Stop)

	v := validation.New()
	exportDir := filepath.Join(dir, "exports")

	return &harness{
		auth:      service.NewAuthService(s, hasher, limiter, v, nil),
		books:     service.NewBookService(s, v, nil),
		transfer:  service.NewTransferService(s, backup.NewExporter(exportDir), backup.NewImporter(v), nil),
		exportDir: exportDir,
	}
}

func (h *harness) register(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := h.auth.Register(context.Background(), service.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return u
}

func (h *harness) addBook(t *testing.T, userID int64, title string) *domain.Book {
	t.Helper()
	b, err := h.books.Add(context.Background(), userID, domain.NewBook{
		Title:  title,
		Author: "Some Author",
		Year:   2001,
		Genre:  "Fiction",
		Note:   "signed copy",
	})
	require.NoError(t, err)
	return b
}

// run drives a shell with one input line per element and returns its output.
func (h *harness) run(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	sh := New(h.auth, h.books, h.transfer, Options{
		In:  strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Out: &out,
	})
	require.NoError(t, sh.Run(context.Background()))
	return out.String()
}

func login(username string) []string {
	return []string{"1", username, testPassword}
}

func script(parts ...[]string) []string {
	var lines []string
	for _, p := range parts {
		lines = append(lines, p...)
	}
	return lines
}

func TestShell_RegisterAddList(t *testing.T) {
	h := newHarness(t)

	out := h.run(t,
		"2", "ada", "ada@example.com", testPassword, testPassword,
		"1", "Dune", "Frank Herbert", "1965", "y", "Science Fiction", "",
		"2", "",
		"9",
	)

	assert.Contains(t, out, "Account ada created.")
	assert.Contains(t, out, "Welcome, ada! You have 0 book(s).")
	assert.Contains(t, out, "Book added with id 1.")
	assert.Contains(t, out, "Frank Herbert")
	assert.Contains(t, out, "1 book(s)")
	assert.Contains(t, out, "Goodbye!")
}

func TestShell_RegisterPasswordMismatch(t *testing.T) {
	h := newHarness(t)

	out := h.run(t,
		"2", "ada", "ada@example.com", testPassword, "something else",
		"3",
	)

	assert.Contains(t, out, "Error: passwords do not match")
	_, err := h.auth.Authenticate(context.Background(), service.LoginRequest{Username: "ada", Password: testPassword})
	assert.Error(t, err)
}

func TestShell_DuplicateRegistration(t *testing.T) {
	h := newHarness(t)
	h.register(t, "ada")

	out := h.run(t,
		"2", "ada", "other@example.com", testPassword, testPassword,
		"3",
	)

	assert.Contains(t, out, "Error: username already exists")
}

func TestShell_LoginFailureThenSuccess(t *testing.T) {
	h := newHarness(t)
	h.register(t, "ada")

	out := h.run(t,
		"1", "ada", "wrong password",
		"1", "ada", testPassword,
		"9",
	)

	assert.Contains(t, out, "Error: invalid username or password")
	assert.Contains(t, out, "Welcome, ada!")
}

func TestShell_InvalidInputKeepsLoopRunning(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "ada")

	out := h.run(t, script(
		login("ada"),
		[]string{"42"},
		[]string{"1", "Dune", "Frank Herbert", "nineteen"},
		[]string{"1", "", "Frank Herbert", "1965", "n", "", ""},
		[]string{"4", "abc"},
		[]string{"9"},
	)...)

	assert.Contains(t, out, "Invalid option. Try again.")
	assert.Contains(t, out, `Error: year must be a whole number, got "nineteen"`)
	assert.Contains(t, out, "Error: title is required")
	assert.Contains(t, out, "Error: book id must be a positive whole number")
	assert.Contains(t, out, "Goodbye!")

	n, err := h.books.Count(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestShell_UpdateBlankKeepsAndDashClears(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "ada")
	book := h.addBook(t, user.ID, "Dune")
	id := strconv.FormatInt(book.ID, 10)

	out := h.run(t, script(
		login("ada"),
		[]string{"4", id, "Dune Messiah", "", "", "y", "-", ""},
		[]string{"9"},
	)...)
	assert.Contains(t, out, "Book updated.")

	got, err := h.books.Get(context.Background(), user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, "Some Author", got.Author)
	assert.Equal(t, 2001, got.Year)
	assert.True(t, got.Read)
	assert.Empty(t, got.Genre)
	assert.Equal(t, "signed copy", got.Note)
}

func TestShell_UpdateNothing(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "ada")
	book := h.addBook(t, user.ID, "Dune")

	out := h.run(t, script(
		login("ada"),
		[]string{"4", strconv.FormatInt(book.ID, 10), "", "", "", "", "", ""},
		[]string{"9"},
	)...)

	assert.Contains(t, out, "Nothing to update.")
}

func TestShell_CannotTouchOtherUsersBooks(t *testing.T) {
	h := newHarness(t)
	alice := h.register(t, "alice")
	h.register(t, "bob")
	book := h.addBook(t, alice.ID, "Dune")
	id := strconv.FormatInt(book.ID, 10)

	out := h.run(t, script(
		login("bob"),
		[]string{"4", id},
		[]string{"5", id},
		[]string{"3", "dune"},
		[]string{"9"},
	)...)

	assert.Contains(t, out, "Error: book "+id+" not found")
	assert.Contains(t, out, "No books found.")
	assert.NotContains(t, out, "Book deleted.")

	exists, err := h.books.Exists(context.Background(), alice.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestShell_Delete(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "ada")
	book := h.addBook(t, user.ID, "Dune")
	id := strconv.FormatInt(book.ID, 10)

	out := h.run(t, script(
		login("ada"),
		[]string{"5", id},
		[]string{"5", id},
		[]string{"9"},
	)...)

	assert.Contains(t, out, "Book deleted.")
	assert.Contains(t, out, "Error: book "+id+" not found")
}

func TestShell_SearchAndSortedList(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "ada")
	h.addBook(t, user.ID, "Beta")
	h.addBook(t, user.ID, "Alpha")
	h.addBook(t, user.ID, "Gamma")

	out := h.run(t, script(
		login("ada"),
		[]string{"2", "title desc"},
		[]string{"3", "ALPHA"},
		[]string{"2", "colour"},
		[]string{"9"},
	)...)

	listing := out[strings.Index(out, "ID"):]
	assert.Less(t, strings.Index(listing, "Gamma"), strings.Index(listing, "Beta"))
	assert.Less(t, strings.Index(listing, "Beta"), strings.Index(listing, "Alpha"))
	assert.Contains(t, out, "1 book(s)")
	assert.Contains(t, out, `Error: cannot sort by "colour"`)
}

func TestShell_ExportThenImport(t *testing.T) {
	h := newHarness(t)
	ada := h.register(t, "ada")
	h.addBook(t, ada.ID, "Dune")
	h.addBook(t, ada.ID, "Emma")
	grace := h.register(t, "grace")

	out := h.run(t, script(
		login("ada"),
		[]string{"7"},
		[]string{"8"},
		login("grace"),
		[]string{"6", filepath.Join(h.exportDir, "ada.csv")},
		[]string{"6", filepath.Join(h.exportDir, "missing.csv")},
		[]string{"9"},
	)...)

	assert.Contains(t, out, "Exported 2 book(s) to "+filepath.Join(h.exportDir, "ada.csv"))
	assert.Contains(t, out, "Imported 2 book(s)")
	assert.Contains(t, out, "Error: ")

	books, err := h.books.List(context.Background(), grace.ID, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Emma", books[1].Title)
}

func TestShell_ImportBadFileInsertsNothing(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "ada")

	path := filepath.Join(t.TempDir(), "bad.csv")
	data := "id,title,author,year,genre,read,note\n" +
		"1,Dune,Frank Herbert,1965,SF,1,\n" +
		"2,Emma,Jane Austen,not-a-year,,0,\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	out := h.run(t, script(
		login("ada"),
		[]string{"6", path},
		[]string{"9"},
	)...)

	assert.Contains(t, out, "Error: invalid import file: line 3")

	n, err := h.books.Count(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestShell_EndOfInputExitsCleanly(t *testing.T) {
	h := newHarness(t)
	h.register(t, "ada")

	out := h.run(t, "1", "ada", testPassword, "1", "Dune")

	assert.Contains(t, out, "Goodbye!")
}

func TestShell_CancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sh := New(h.auth, h.books, h.transfer, Options{
		In:  strings.NewReader("3\n"),
		Out: &bytes.Buffer{},
	})
	assert.ErrorIs(t, sh.Run(ctx), context.Canceled)
}

func TestShell_ReadPasswordUsedForSecrets(t *testing.T) {
	h := newHarness(t)
	h.register(t, "ada")

	calls := 0
	var out bytes.Buffer
	sh := New(h.auth, h.books, h.transfer, Options{
		In:  strings.NewReader("1\nada\n9\n"),
		Out: &out,
		ReadPassword: func() (string, error) {
			calls++
			return testPassword, nil
		},
	})
	require.NoError(t, sh.Run(context.Background()))

	assert.Equal(t, 1, calls)
	assert.Contains(t, out.String(), "Welcome, ada!")
}

func TestParseListOptions(t *testing.T) {
	tests := []struct {
		in      string
		want    store.ListOptions
		wantErr bool
	}{
		{in: "", want: store.ListOptions{}},
		{in: "title", want: store.ListOptions{Sort: store.SortTitle}},
		{in: "Year DESC", want: store.ListOptions{Sort: store.SortYear, Descending: true}},
		{in: "added desc", want: store.ListOptions{Sort: store.SortAdded, Descending: true}},
		{in: "title asc", wantErr: true},
		{in: "colour", wantErr: true},
		{in: "a b c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseListOptions(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
