// Package prompt provides interactive terminal prompts for approving
// requests, with mock implementations for tests.
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
)

// Prompter presents numbered options and returns the selection.
type Prompter interface {
	// Prompt displays a prompt with numbered options and returns the
	// zero-based index of the selected option. If the user presses Enter
	// without input, defaultIdx is returned.
	Prompt(prompt string, options []string, defaultIdx int) (int, error)
}

// IsInteractive reports whether f is a terminal a human can answer from.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// StdinPrompter implements Prompter over a reader and writer, normally
// os.Stdin and os.Stdout.
type StdinPrompter struct {
	In  io.Reader
	Out io.Writer
}

// NewStdinPrompter creates a StdinPrompter that reads from r and writes to w.
func NewStdinPrompter(r io.Reader, w io.Writer) *StdinPrompter {
	return &StdinPrompter{In: r, Out: w}
}

// Prompt displays the prompt and options (1-indexed, default marked
// "(default)") and reads one line of input.
func (p *StdinPrompter) Prompt(prompt string, options []string, defaultIdx int) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options provided")
	}
	if defaultIdx < 0 || defaultIdx >= len(options) {
		return 0, fmt.Errorf("default index %d out of range [0, %d)", defaultIdx, len(options))
	}

	_, _ = fmt.Fprintln(p.Out, prompt)
	for i, opt := range options {
		suffix := ""
		if i == defaultIdx {
			suffix = " (default)"
		}
		_, _ = fmt.Fprintf(p.Out, "  %d. %s%s\n", i+1, opt, suffix)
	}
	_, _ = fmt.Fprintf(p.Out, "Enter selection [%d]: ", defaultIdx+1)

	input, err := readLine(p.In)
	if err != nil {
		return 0, err
	}
	if input == "" {
		return defaultIdx, nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q: must be a number", input)
	}
	idx := selection - 1
	if idx < 0 || idx >= len(options) {
		return 0, fmt.Errorf("selection %d out of range (1-%d)", selection, len(options))
	}
	return idx, nil
}

// YesNoPrompter asks a yes/no question.
type YesNoPrompter interface {
	// PromptYesNo returns the answer, or defaultYes on empty input.
	PromptYesNo(prompt string, defaultYes bool) (bool, error)
}

// StdinYesNoPrompter implements YesNoPrompter over a reader and writer.
type StdinYesNoPrompter struct {
	In  io.Reader
	Out io.Writer
}

// NewStdinYesNoPrompter creates a StdinYesNoPrompter that reads from r and writes to w.
func NewStdinYesNoPrompter(r io.Reader, w io.Writer) *StdinYesNoPrompter {
	return &StdinYesNoPrompter{In: r, Out: w}
}

// PromptYesNo displays the prompt and reads a y/yes or n/no answer,
// case-insensitive.
func (p *StdinYesNoPrompter) PromptYesNo(prompt string, defaultYes bool) (bool, error) {
	_, _ = fmt.Fprint(p.Out, prompt)

	input, err := readLine(p.In)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(input) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid input %q: expected y/n", input)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
