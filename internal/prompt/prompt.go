// Package prompt collects passwords, recovery phrases and answers from the
// operator.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmcleod/confidant/vault"
	"golang.org/x/term"
)

// ErrEmpty is returned when a required secret is left blank.
var ErrEmpty = errors.New("input cannot be empty")

// Prompter supplies operator input.
type Prompter interface {
	// Secret reads a line without echo where the input is a terminal.
	Secret(msg string) (string, error)
	// Line reads a visible line. An empty answer yields def.
	Line(msg, def string) (string, error)
}

// Terminal prompts on Out and reads from In.
type Terminal struct {
	In     *os.File
	Out    io.Writer
	reader *bufio.Reader
}

var _ Prompter = (*Terminal)(nil)

// NewTerminal returns a Terminal on stdin, prompting on stderr.
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

func (t *Terminal) readLine() (string, error) {
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}
	line, err := t.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *Terminal) Secret(msg string) (string, error) {
	fmt.Fprint(t.Out, msg)

	fd := int(t.In.Fd())
	if !term.IsTerminal(fd) {
		// stdin is piped; read normally
		s, err := t.readLine()
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return s, nil
	}

	b, err := term.ReadPassword(fd)
	fmt.Fprintln(t.Out) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(b), nil
}

func (t *Terminal) Line(msg, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(t.Out, "%s [%s]: ", msg, def)
	} else {
		fmt.Fprint(t.Out, msg)
	}
	s, err := t.readLine()
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	if s = strings.TrimSpace(s); s == "" {
		return def, nil
	}
	return s, nil
}

// Static answers prompts from a fixed script.
type Static struct {
	Answers []string
	Asked   []string
}

var _ Prompter = (*Static)(nil)

func (s *Static) next(msg string) (string, error) {
	s.Asked = append(s.Asked, msg)
	if len(s.Answers) == 0 {
		return "", io.EOF
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}

func (s *Static) Secret(msg string) (string, error) {
	return s.next(msg)
}

func (s *Static) Line(msg, def string) (string, error) {
	a, err := s.next(msg)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(a) == "" {
		return def, nil
	}
	return a, nil
}

// Password asks for an existing secret once.
func Password(p Prompter, label string) (string, error) {
	pw, err := p.Secret(label + ": ")
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", ErrEmpty
	}
	return pw, nil
}

// NewPassword asks for a new secret twice. A mismatch is rejected before
// the caller runs any cryptography.
func NewPassword(p Prompter, label string) (string, error) {
	pw, err := Password(p, label)
	if err != nil {
		return "", err
	}
	confirm, err := p.Secret("Confirm " + strings.ToLower(label) + ": ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", vault.ErrPasswordConfirmationMismatch
	}
	return pw, nil
}
