package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Retries bounds how often a secret prompt is repeated after an empty or
// mismatched answer.
const Retries = 3

// ErrAborted is returned when prompting gave up after Retries attempts.
var ErrAborted = errors.New("maximum trials, quit")

// Prompter reads a secret without echoing it.
type Prompter interface {
	ReadSecret(prompt string) (string, error)
}

// TerminalPrompter reads secrets from a terminal with echo disabled. When the
// input is not a terminal it falls back to reading one line.
type TerminalPrompter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

// NewTerminalPrompter creates a TerminalPrompter reading from in and writing
// prompts to out.
func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out, reader: bufio.NewReader(in)}
}

// ReadSecret prints prompt and returns the trimmed answer.
func (p *TerminalPrompter) ReadSecret(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt+" ")

	fd := int(p.in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptNewSecret asks for a secret and its confirmation. An empty answer is
// asked again unless allowEmpty is set, in which case it is returned as is.
func PromptNewSecret(p Prompter, prompt string, allowEmpty bool) (string, error) {
	secret, err := p.ReadSecret(prompt)
	if err != nil {
		return "", err
	}
	for tries := 1; secret == ""; tries++ {
		if allowEmpty {
			return "", nil
		}
		if tries == Retries {
			return "", ErrAborted
		}
		if secret, err = p.ReadSecret("Empty, try again:"); err != nil {
			return "", err
		}
	}

	confirm, err := p.ReadSecret("Confirm password:")
	if err != nil {
		return "", err
	}
	for tries := 1; confirm != secret; tries++ {
		if tries == Retries {
			return "", ErrAborted
		}
		if confirm, err = p.ReadSecret("Mismatch, try again:"); err != nil {
			return "", err
		}
	}
	return secret, nil
}
