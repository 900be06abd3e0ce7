package backup

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shelfapp/shelf/internal/domain"
)

// Writer streams books as CSV rows after a Header row.
type Writer struct {
	cw    *csv.Writer
	count int
}

// NewWriter writes the header to w and returns a Writer for the rows.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return nil, err
	}
	return &Writer{cw: cw}, nil
}

// Write encodes a single book as a row.
func (w *Writer) Write(b *domain.Book) error {
	if err := w.cw.Write([]string{
		strconv.FormatInt(b.ID, 10),
		b.Title,
		b.Author,
		strconv.Itoa(b.Year),
		b.Genre,
		FormatRead(b.Read),
		b.Note,
	}); err != nil {
		return err
	}
	w.count++
	return nil
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// Count returns rows written so far, excluding the header.
func (w *Writer) Count() int {
	return w.count
}
