// Package confirm implements operator confirmation sources for the cleanse engine.
package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/autonode/bls-cleanse/interfaces"
)

// ErrScriptExhausted is returned by Scripted when it runs out of answers.
var ErrScriptExhausted = errors.New("no scripted answer left")

// IsYes reports whether an operator answer counts as a confirmation.
// Only an explicit "y" or "yes" confirms; an empty answer declines.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Always answers every question with the same value.
type Always bool

// Confirm returns the fixed answer.
func (a Always) Confirm(ctx context.Context, prompt string) (bool, error) {
	return bool(a), nil
}

// Scripted answers questions from a fixed sequence and records the prompts it saw.
type Scripted struct {
	mu      sync.Mutex
	answers []bool
	prompts []string
}

// NewScripted creates a confirmer answering with answers in order.
func NewScripted(answers ...bool) *Scripted {
	return &Scripted{answers: answers}
}

// Confirm pops the next answer.
func (s *Scripted) Confirm(ctx context.Context, prompt string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return false, ErrScriptExhausted
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

// Prompts returns the prompts asked so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Func adapts a function to interfaces.Confirmer.
type Func func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f Func) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

var (
	_ interfaces.Confirmer = Always(true)
	_ interfaces.Confirmer = (*Scripted)(nil)
	_ interfaces.Confirmer = Func(nil)
)

// Terminal asks questions on an interactive terminal.
type Terminal struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
	log *slog.Logger

	// pending carries the result of a read started by an earlier, canceled Confirm.
	pending chan readResult
}

type readResult struct {
	line string
	err  error
}

// NewTerminal creates a terminal confirmer reading answers from in and writing prompts to out.
func NewTerminal(in io.Reader, out io.Writer, log *slog.Logger) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, log: log}
}

// OpenTerminal creates a terminal confirmer on stdin/stdout. When stdin is not a
// terminal (e.g. the tool is piped), /dev/tty is used if it can be opened.
// The returned close function releases /dev/tty when it was opened.
func OpenTerminal(log *slog.Logger) (*Terminal, func(), error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return NewTerminal(os.Stdin, os.Stdout, log), func() {}, nil
	}

	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("stdin is not a terminal and /dev/tty is unavailable (use --yes or --confirm-listen-addr): %w", err)
	}
	return NewTerminal(tty, os.Stdout, log), func() { tty.Close() }, nil
}

// Confirm writes the prompt and waits for a line of input or for ctx to be done.
func (t *Terminal) Confirm(ctx context.Context, prompt string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := fmt.Fprintf(t.out, "%s [y/N]\n> ", prompt); err != nil {
		return false, err
	}

	line, err := t.readLine(ctx)
	if err != nil {
		return false, err
	}

	answer := strings.TrimSpace(line)
	t.log.Info("Operator answered", slog.String("prompt", prompt), slog.String("answer", answer))
	return IsYes(answer), nil
}

// readLine reads one line in the background so that a blocked read does not
// hold up cancellation. A read abandoned on cancellation is picked up by the
// next call instead of starting a second concurrent read.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if t.pending == nil {
		t.pending = make(chan readResult, 1)
		go func(results chan<- readResult) {
			line, err := t.in.ReadString('\n')
			results <- readResult{line: line, err: err}
		}(t.pending)
	}

	select {
	case res := <-t.pending:
		t.pending = nil
		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.line != "") {
			return "", fmt.Errorf("could not read answer: %w", res.err)
		}
		return res.line, nil
	case <-ctx.Done():
		t.log.Warn("Confirmation interrupted", "err", ctx.Err())
		return "", ctx.Err()
	}
}
