package sqlite

import (
	"context"
	"iter"

	"github.com/shelfapp/shelf/internal/domain"
)

// StreamBooks returns an iterator over userID's books in insertion order.
// Iteration stops at the first error, which is yielded with a nil book.
func (s *Store) StreamBooks(ctx context.Context, userID int64) iter.Seq2[*domain.Book, error] {
	return func(yield func(*domain.Book, error) bool) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+bookColumns+` FROM books WHERE user_id = ? ORDER BY id`, userID)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			b, err := scanBook(rows)
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(b, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}
