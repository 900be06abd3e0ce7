package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// passwordReader returns a no-echo reader when in is an interactive
// terminal, or nil so that callers fall back to reading a plain line.
func passwordReader(in io.Reader) func() (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
}

// lineReader prompts on out and reads one answer per line from in.
type lineReader struct {
	in     *bufio.Reader
	out    io.Writer
	secret func() (string, error)
}

func newLineReader(in io.Reader, out io.Writer) *lineReader {
	return &lineReader{in: bufio.NewReader(in), out: out, secret: passwordReader(in)}
}

func (r *lineReader) ask(label string) (string, error) {
	fmt.Fprint(r.out, label)
	s, err := r.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (r *lineReader) askSecret(label string) (string, error) {
	if r.secret == nil {
		return r.ask(label)
	}
	fmt.Fprint(r.out, label)
	s, err := r.secret()
	fmt.Fprintln(r.out)
	return s, err
}

// valueOr returns value when set, otherwise asks for it.
func (r *lineReader) valueOr(value, label string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}
	if secret {
		return r.askSecret(label)
	}
	return r.ask(label)
}
