// Package prompt reads transaction fields interactively.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/synnq/sendtx/internal/utils"
)

// ErrNoInput is returned when the input ends before an answer was given.
var ErrNoInput = errors.New("no input")

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal used for hidden input, -1 when in is not a terminal.
	fd           int
	readPassword func(fd int) ([]byte, error)
}

func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		in:           bufio.NewReader(in),
		out:          out,
		fd:           -1,
		readPassword: term.ReadPassword,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// Ask returns the trimmed answer, which may be empty.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.readLine()
}

// AskDefault returns def when the answer is blank.
func (p *Prompter) AskDefault(label, def string) (string, error) {
	answer, err := p.Ask(fmt.Sprintf("%s [%s]", label, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskRequired asks until a non-empty answer is given.
func (p *Prompter) AskRequired(label string) (string, error) {
	for {
		answer, err := p.Ask(label)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		fmt.Fprintln(p.out, "A value is required.")
	}
}

// AskSecret reads without echo when attached to a terminal.
func (p *Prompter) AskSecret(label string) (string, error) {
	if p.fd < 0 {
		return p.Ask(label)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	defer fmt.Fprintln(p.out)

	raw, err := p.readPassword(p.fd)
	if err != nil {
		return "", fmt.Errorf("failed to read secret input: %w", err)
	}
	defer clear(raw)
	return strings.TrimSpace(string(raw)), nil
}

// AskAmount asks until a whole, non-negative number is entered.
func (p *Prompter) AskAmount(label string) (uint64, error) {
	for {
		answer, err := p.Ask(label)
		if err != nil {
			return 0, err
		}
		amount, err := utils.ParseAmount(answer)
		if err == nil {
			return amount, nil
		}
		if strings.HasPrefix(strings.TrimSpace(answer), "-") {
			fmt.Fprintln(p.out, "Amount must be a non-negative integer.")
		} else {
			fmt.Fprintln(p.out, "Invalid amount. Please enter a whole number.")
		}
	}
}

// AskCount reads how many times to send. Anything that is not a plain
// number means 0, which runs until interrupted.
func (p *Prompter) AskCount(label string) (int, error) {
	answer, err := p.Ask(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 0 || strings.HasPrefix(answer, "+") {
		return 0, nil
	}
	return n, nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
