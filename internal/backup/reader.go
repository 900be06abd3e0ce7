package backup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/shelfapp/shelf/internal/domain"
)

// Row is one parsed data row. Line is the 1-based line in the file where the
// row starts.
type Row struct {
	Line int
	Book domain.NewBook
}

// RowError reports a row that could not be parsed.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Rows iterates over the data rows in r. The first record is treated as a
// header and skipped whatever it contains. Iteration stops after the first
// error.
func Rows(r io.Reader) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.ReuseRecord = true

		first := true
		for {
			record, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var pe *csv.ParseError
				if errors.As(err, &pe) {
					err = &RowError{Line: pe.StartLine, Err: pe.Err}
				}
				yield(Row{}, err)
				return
			}

			line, _ := cr.FieldPos(0)
			if first {
				first = false
				continue
			}

			book, err := parseRecord(record)
			if err != nil {
				yield(Row{}, &RowError{Line: line, Err: err})
				return
			}
			if !yield(Row{Line: line, Book: book}, nil) {
				return
			}
		}
	}
}

func parseRecord(record []string) (domain.NewBook, error) {
	if len(record) != numColumns {
		return domain.NewBook{}, fmt.Errorf("expected %d columns, got %d", numColumns, len(record))
	}

	year, err := ParseYear(record[colYear])
	if err != nil {
		return domain.NewBook{}, err
	}
	read, err := ParseRead(record[colRead])
	if err != nil {
		return domain.NewBook{}, err
	}

	return domain.NewBook{
		Title:  record[colTitle],
		Author: record[colAuthor],
		Year:   year,
		Read:   read,
		Genre:  record[colGenre],
		Note:   record[colNote],
	}.Normalized(), nil
}
