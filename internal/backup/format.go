// Package backup reads and writes a user's library as CSV.
//
// Files have a header row followed by one row per book:
//
//	id,title,author,year,genre,read,note
//	3,Dune,Frank Herbert,1965,Sci-Fi,1,
//
// The id column is informational. Imports ignore it and assign fresh ids
// owned by the importing user, so a file exported by one user can be loaded
// into another user's library.
package backup

import (
	"fmt"
	"strconv"
	"strings"
)

// Header is the first row of every exported file.
var Header = []string{"id", "title", "author", "year", "genre", "read", "note"}

// Column positions within a row.
const (
	colID = iota
	colTitle
	colAuthor
	colYear
	colGenre
	colRead
	colNote
	numColumns
)

// FormatRead renders the read flag as it appears in exported files.
func FormatRead(read bool) string {
	if read {
		return "1"
	}
	return "0"
}

// ParseRead accepts the spellings people use in spreadsheets.
// An empty cell means unread.
func ParseRead(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("read must be 1/0, true/false or yes/no, got %q", s)
	}
}

// ParseYear parses a non-negative publication year.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("year is required")
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("year must be a whole number, got %q", s)
	}
	if year < 0 {
		return 0, fmt.Errorf("year must not be negative, got %d", year)
	}
	return year, nil
}
