package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfapp/shelf/internal/domain"
)

func TestStreamBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := mustCreateUser(t, s, "alice")
	bob := mustCreateUser(t, s, "bob")

	addBook(t, s, alice, domain.NewBook{Title: "Dune", Author: "Frank Herbert", Year: 1965})
	addBook(t, s, bob, domain.NewBook{Title: "Emma", Author: "Jane Austen", Year: 1815})
	addBook(t, s, alice, domain.NewBook{Title: "1984", Author: "George Orwell", Year: 1949})

	var got []string
	for b, err := range s.StreamBooks(ctx, alice) {
		require.NoError(t, err)
		got = append(got, b.Title)
	}
	assert.Equal(t, []string{"Dune", "1984"}, got)
}

func TestStreamBooks_StopsEarly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := mustCreateUser(t, s, "alice")
	for _, title := range []string{"A", "B", "C"} {
		addBook(t, s, userID, domain.NewBook{Title: title, Author: "X", Year: 1})
	}

	var seen int
	for _, err := range s.StreamBooks(ctx, userID) {
		require.NoError(t, err)
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)

	// The connection must have been released; a follow-up query works.
	n, err := s.CountBooks(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStreamBooks_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	userID := mustCreateUser(t, s, "alice")
	addBook(t, s, userID, domain.NewBook{Title: "A", Author: "X", Year: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for b, err := range s.StreamBooks(ctx, userID) {
		assert.Nil(t, b)
		gotErr = err
	}
	assert.Error(t, gotErr)
}
