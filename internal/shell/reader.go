package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// lineReader reads one line of input after showing prompt.
type lineReader interface {
	ReadLine(prompt string) (string, error)
}

// plainReader reads newline-terminated lines, for pipes and tests.
type plainReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPlainReader(in io.Reader, out io.Writer) *plainReader {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &plainReader{scanner: s, out: out}
}

func (r *plainReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// ttyReader edits lines on a terminal. Raw mode is held only while a line
// is read so commands and subprocesses see a normal terminal.
type ttyReader struct {
	fd   int
	term *term.Terminal
}

func newTTYReader(in *os.File, out io.Writer, complete func(line string) string) *ttyReader {
	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, "")
	t.AutoCompleteCallback = func(line string, pos int, key rune) (string, int, bool) {
		if key != '\t' || pos != len(line) {
			return "", 0, false
		}
		completed := complete(line)
		if completed == line {
			return "", 0, false
		}
		return completed, len(completed), true
	}
	return &ttyReader{fd: int(in.Fd()), term: t}
}

func (r *ttyReader) ReadLine(prompt string) (string, error) {
	state, err := term.MakeRaw(r.fd)
	if err != nil {
		return "", fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(r.fd, state)
	r.term.SetPrompt(prompt)
	return r.term.ReadLine()
}

// isTerminal reports whether both f and out are terminals.
func isTerminal(f *os.File, out io.Writer) bool {
	o, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) && term.IsTerminal(int(o.Fd()))
}
