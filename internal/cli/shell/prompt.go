package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	domainerrors "github.com/shelfapp/shelf/internal/errors"
)

// clearMarker entered at an optional-field prompt during update clears the field.
const clearMarker = "-"

// prompter reads one answer per line.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer

	// readSecret reads a password without echo. Nil means read a normal line.
	readSecret func() (string, error)
}

func newPrompter(in io.Reader, out io.Writer, readSecret func() (string, error)) *prompter {
	return &prompter{
		scanner:    bufio.NewScanner(in),
		out:        out,
		readSecret: readSecret,
	}
}

// line prints label and returns the trimmed answer. io.EOF means input is exhausted.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

func (p *prompter) secret(label string) (string, error) {
	if p.readSecret == nil {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	s, err := p.readSecret()
	fmt.Fprintln(p.out)
	return s, err
}

func (p *prompter) number(label, field string) (int, error) {
	s, err := p.line(label)
	if err != nil {
		return 0, err
	}
	return parseInt(s, field)
}

func (p *prompter) id(label string) (int64, error) {
	s, err := p.line(label)
	if err != nil {
		return 0, err
	}
	id, perr := strconv.ParseInt(s, 10, 64)
	if perr != nil || id <= 0 {
		return 0, domainerrors.Validationf("book id must be a positive whole number, got %q", s)
	}
	return id, nil
}

// yesNo parses y/n. A blank answer yields ok=false.
func (p *prompter) yesNo(label string) (value, ok bool, err error) {
	s, err := p.line(label)
	if err != nil {
		return false, false, err
	}
	switch strings.ToLower(s) {
	case "":
		return false, false, nil
	case "y", "yes":
		return true, true, nil
	case "n", "no":
		return false, true, nil
	default:
		return false, false, domainerrors.Validationf("answer y or n, got %q", s)
	}
}

func parseInt(s, field string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domainerrors.Validationf("%s must be a whole number, got %q", field, s)
	}
	return n, nil
}
