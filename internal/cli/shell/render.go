package shell

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shelfapp/shelf/internal/domain"
)

func readMark(read bool) string {
	if read {
		return "yes"
	}
	return "no"
}

// printBooks writes books as an aligned table.
func printBooks(w io.Writer, books []*domain.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTitle\tAuthor\tYear\tRead\tGenre\tNote")
	for _, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			b.ID, b.Title, b.Author, b.Year, readMark(b.Read), b.Genre, b.Note)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d book(s)\n", len(books))
}
