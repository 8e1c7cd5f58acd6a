// Package interactive asks the user questions for apply confirmations, undo,
// per-file editing and the guided `interactive` workflow.
//
// On a terminal the questions are pterm widgets. Anywhere else (piped input,
// tests) they become a plain line dialog on the configured reader and writer,
// so answers can be scripted:
//
//	printf 'y\n' | frencli list '*.txt' rename '%N_old.%E' apply
package interactive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user quits an interactive dialog.
var ErrCancelled = errors.New("cancelled")

var (
	errNoOptions     = errors.New("no prompt options given")
	errNoChoices     = errors.New("nothing to choose from")
	errNoDefault     = errors.New("an answer is required but prompts accept defaults only")
	errAnswerMissing = errors.New("no answer")
)

// PrompterConfig configures NewPrompter.
type PrompterConfig struct {
	Input  io.Reader
	Output io.Writer

	// Terminal overrides detection. When nil, Input is a terminal only if it
	// is an *os.File attached to one.
	Terminal *bool

	// AcceptDefaults answers every question with its default without reading.
	AcceptDefaults bool
}

// Prompter asks questions on one input and output.
type Prompter struct {
	in             *bufio.Reader
	out            io.Writer
	terminal       bool
	acceptDefaults bool
}

// NewPrompter creates a Prompter. Nil fields default to stdin and stdout.
func NewPrompter(cfg *PrompterConfig) *Prompter {
	if cfg == nil {
		cfg = &PrompterConfig{}
	}

	in, out := cfg.Input, cfg.Output
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	p := &Prompter{
		in:             bufio.NewReader(in),
		out:            out,
		acceptDefaults: cfg.AcceptDefaults,
	}
	switch f, isFile := in.(*os.File); {
	case cfg.Terminal != nil:
		p.terminal = *cfg.Terminal
	case isFile:
		p.terminal = term.IsTerminal(int(f.Fd()))
	}
	return p
}

// IsTerminal reports whether questions are asked with terminal widgets.
func (p *Prompter) IsTerminal() bool {
	return p.terminal
}

// TextPromptOptions describes a free-form question.
type TextPromptOptions struct {
	Message  string
	Default  string
	Required bool

	// Validate rejects an answer; the question is asked again.
	Validate func(string) error
}

// Text asks for a line of text. A blank answer means Default.
func (p *Prompter) Text(opts *TextPromptOptions) (string, error) {
	if opts == nil {
		return "", errNoOptions
	}
	if p.acceptDefaults {
		if opts.Default == "" {
			return "", errNoDefault
		}
		return opts.Default, nil
	}

	label := opts.Message
	if opts.Default != "" {
		label += " (default: " + opts.Default + ")"
	}

	for {
		answer, err := p.askText(label)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		if answer = strings.TrimSpace(answer); answer == "" {
			answer = opts.Default
		}

		if problem := check(opts, answer); problem != "" {
			p.warn(problem)
			continue
		}
		return answer, nil
	}
}

func check(opts *TextPromptOptions, answer string) string {
	if answer == "" {
		if opts.Required {
			return "This field is required"
		}
		return ""
	}
	if opts.Validate != nil {
		if err := opts.Validate(answer); err != nil {
			return err.Error()
		}
	}
	return ""
}

func (p *Prompter) askText(label string) (string, error) {
	if p.terminal {
		return pterm.DefaultInteractiveTextInput.WithMultiLine(false).Show(label)
	}
	fmt.Fprint(p.out, label+": ")
	return p.line()
}

// SelectPromptOptions describes a choice among Options.
type SelectPromptOptions struct {
	Message string
	Options []string
	Default string
}

// Select asks for one of opts.Options. The line dialog numbers the options
// and accepts either a number or the option itself.
func (p *Prompter) Select(opts *SelectPromptOptions) (string, error) {
	if opts == nil {
		return "", errNoOptions
	}
	if len(opts.Options) == 0 {
		return "", errNoChoices
	}

	fallback := max(slices.Index(opts.Options, opts.Default), 0)
	if p.acceptDefaults {
		return opts.Options[fallback], nil
	}

	if p.terminal {
		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions(opts.Options).
			WithDefaultOption(opts.Options[fallback]).
			Show(opts.Message)
		if err != nil {
			return "", fmt.Errorf("failed to read selection: %w", err)
		}
		return choice, nil
	}

	fmt.Fprintln(p.out, opts.Message)
	for n, option := range opts.Options {
		fmt.Fprintf(p.out, "  %2d. %s\n", n+1, option)
	}
	for {
		fmt.Fprintf(p.out, "Choice (default: %d): ", fallback+1)
		answer, err := p.line()
		if err != nil {
			return "", fmt.Errorf("failed to read selection: %w", err)
		}
		if choice, ok := pickOption(opts.Options, strings.TrimSpace(answer), fallback); ok {
			return choice, nil
		}
		p.warn(fmt.Sprintf("Please choose a number between 1 and %d", len(opts.Options)))
	}
}

func pickOption(options []string, answer string, fallback int) (string, bool) {
	if answer == "" {
		return options[fallback], true
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	if slices.Contains(options, answer) {
		return answer, true
	}
	return "", false
}

// ConfirmPromptOptions describes a yes/no question.
type ConfirmPromptOptions struct {
	Message string
	Default bool
}

// Confirm asks a yes/no question. Only "y" and "yes" count as yes; a blank
// answer or the end of input means Default.
func (p *Prompter) Confirm(opts *ConfirmPromptOptions) (bool, error) {
	if opts == nil {
		return false, errNoOptions
	}
	if p.acceptDefaults {
		return opts.Default, nil
	}

	if p.terminal {
		yes, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(opts.Default).Show(opts.Message)
		if err != nil {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		return yes, nil
	}

	hint := "[y/N]"
	if opts.Default {
		hint = "[Y/n]"
	}
	fmt.Fprintf(p.out, "%s %s: ", opts.Message, hint)

	answer, err := p.line()
	switch {
	case errors.Is(err, io.EOF):
		fmt.Fprintln(p.out)
		return opts.Default, nil
	case err != nil:
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" {
		return opts.Default, nil
	}
	return answer == "y" || answer == "yes", nil
}

// EditItem is one proposed rename offered for editing.
type EditItem struct {
	OldName string
	NewName string
}

// EditRenames walks items one by one. Enter keeps the proposal, any other
// text replaces it, 's' skips the file (NewName becomes OldName) and 'a'
// keeps every remaining proposal. 'q' or the end of input returns
// ErrCancelled.
func (p *Prompter) EditRenames(items []EditItem) error {
	if p.acceptDefaults {
		return nil
	}

	fmt.Fprintln(p.out, "\nInteractive mode: Edit filenames (press Enter to keep, type new name to change)")
	fmt.Fprintln(p.out, "Commands: 'q' to quit, 's' to skip file, 'a' to apply all remaining")
	fmt.Fprintln(p.out, strings.Repeat("-", 80))

	for i := range items {
		item := &items[i]
		fmt.Fprintf(p.out, "\n[%d] %s -> [%s] ", i+1, item.OldName, item.NewName)

		answer, err := p.line()
		if errors.Is(err, io.EOF) {
			return ErrCancelled
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		switch answer = strings.TrimSpace(answer); answer {
		case "":
		case "q", "quit":
			fmt.Fprintln(p.out, "Cancelled.")
			return ErrCancelled
		case "s", "skip":
			item.NewName = item.OldName
		case "a", "apply":
			fmt.Fprintln(p.out, "\nApplying pattern to all remaining files...")
			return nil
		default:
			item.NewName = answer
		}
	}
	return nil
}

// line reads one line without its terminator. io.EOF is returned only when
// nothing was read.
func (p *Prompter) line() (string, error) {
	s, err := p.in.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && s != "":
	case errors.Is(err, io.EOF):
		return "", fmt.Errorf("%w: %w", errAnswerMissing, io.EOF)
	default:
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *Prompter) warn(msg string) {
	if p.terminal {
		pterm.Error.Println(msg)
		return
	}
	fmt.Fprintln(p.out, msg)
}
