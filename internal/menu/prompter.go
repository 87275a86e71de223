package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// ErrInterrupted is returned by every read once the context is cancelled,
	// which is how Ctrl-C reaches the menus.
	ErrInterrupted = errors.New("interrupted")
	// ErrInputClosed is returned once the input stream is exhausted.
	ErrInputClosed = errors.New("input closed")
)

const bannerWidth = 20

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

type lineResult struct {
	text string
	err  error
}

// Prompter owns the console: it prints menus and reads operator input one
// line at a time.
type Prompter struct {
	out      io.Writer
	prefix   string
	requests chan struct{}
	lines    chan lineResult
	pending  bool
}

// NewPrompter wires a prompter to the given input and output. Input is only
// read when a prompt asks for a line, so an external editor can own the
// terminal in between prompts.
func NewPrompter(r io.Reader, w io.Writer, prefix string) *Prompter {
	p := &Prompter{
		out:      w,
		prefix:   prefix,
		requests: make(chan struct{}),
		lines:    make(chan lineResult, 1),
	}
	go p.readLoop(bufio.NewScanner(r))
	return p
}

func (p *Prompter) readLoop(scanner *bufio.Scanner) {
	for range p.requests {
		if scanner.Scan() {
			p.lines <- lineResult{text: strings.TrimRight(scanner.Text(), "\r")}
			continue
		}
		err := scanner.Err()
		if err == nil {
			err = ErrInputClosed
		}
		p.lines <- lineResult{err: err}
	}
}

// ReadLine prints label and returns the next input line without its newline.
func (p *Prompter) ReadLine(ctx context.Context, label string) (string, error) {
	fmt.Fprint(p.out, label)

	if !p.pending {
		select {
		case p.requests <- struct{}{}:
			p.pending = true
		case <-ctx.Done():
			return "", ErrInterrupted
		}
	}

	select {
	case res := <-p.lines:
		p.pending = false
		if res.err != nil {
			fmt.Fprintln(p.out)
		}
		return res.text, res.err
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ErrInterrupted
	}
}

// ReadChoice prompts until the operator enters a pick in 1..max or one of
// the quit/rerun sentinels. Invalid input is reported and re-prompted.
func (p *Prompter) ReadChoice(ctx context.Context, max int) (Selection, error) {
	for {
		line, err := p.ReadLine(ctx, p.prefix+" ")
		if err != nil {
			return Selection{}, err
		}
		sel, err := ParseChoice(line, max)
		if err != nil {
			p.Complain(complaint(err))
			continue
		}
		return sel, nil
	}
}

// AskBinary repeats question until the answer is exactly "y" or "n".
func (p *Prompter) AskBinary(ctx context.Context, question string) (bool, error) {
	for {
		line, err := p.ReadLine(ctx, fmt.Sprintf("%s ('y' or 'n'): ", question))
		if err != nil {
			return false, err
		}
		switch line {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
	}
}

// ReadCount reads a positive count; a blank line means one.
func (p *Prompter) ReadCount(ctx context.Context, label string) (int, error) {
	for {
		line, err := p.ReadLine(ctx, label)
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return 1, nil
		}
		count, err := strconv.Atoi(line)
		if err != nil || count < 1 {
			p.Complain("Invalid count!")
			continue
		}
		return count, nil
	}
}

// PrintList prints items numbered from 1 between two dashed banners.
func (p *Prompter) PrintList(items []string) {
	banner := strings.Repeat("-", bannerWidth)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, banner)
	for i, item := range items {
		fmt.Fprintf(p.out, "%d: %s\n", i+1, item)
	}
	fmt.Fprintln(p.out, banner)
	fmt.Fprintln(p.out)
}

// Say prints each line as is.
func (p *Prompter) Say(lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(p.out, line)
	}
}

// Hint prints instructions in a muted style.
func (p *Prompter) Hint(lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(p.out, hintStyle.Render(line))
	}
}

// Complain reports a recoverable input mistake.
func (p *Prompter) Complain(msg string) {
	fmt.Fprintln(p.out, errorStyle.Render(msg))
}
