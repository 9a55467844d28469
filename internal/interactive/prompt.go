// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/adamancini/updsync/internal/types"
)

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // Download this update
	ResponseNo                   // Skip this update
	ResponseAll                  // Approve all remaining updates
	ResponseQuit                 // Abort
)

// Candidate is an available update waiting for confirmation.
type Candidate struct {
	Track       types.Track
	Version     string
	Provider    types.Provider
	ReleaseNote string
}

// Prompter handles interactive prompts for update confirmation.
type Prompter struct {
	in         io.Reader
	out        io.Writer
	scanner    *bufio.Scanner
	approveAll bool
}

// NewPrompter creates a prompter with stdin/stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// prompt displays a question and reads the response.
func (p *Prompter) prompt(format string, args ...any) Response {
	if p.approveAll {
		return ResponseYes
	}

	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/n/a/q] ")

	if !p.scanner.Scan() {
		return ResponseQuit
	}

	switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
	case "y", "yes":
		return ResponseYes
	case "n", "no":
		return ResponseNo
	case "a", "all":
		p.approveAll = true
		return ResponseYes
	case "q", "quit":
		return ResponseQuit
	default:
		// Default to no for invalid input
		_, _ = fmt.Fprintln(p.out, "Invalid response, skipping.")
		return ResponseNo
	}
}

// Confirm asks about each candidate in order. It returns the approved tracks
// and false if the user quit, in which case nothing is approved.
func (p *Prompter) Confirm(candidates []Candidate) (map[types.Track]bool, bool) {
	approved := make(map[types.Track]bool, len(candidates))
	for _, c := range candidates {
		if note := firstLine(c.ReleaseNote); note != "" {
			_, _ = fmt.Fprintf(p.out, "\n%s %s: %s\n", c.Track, c.Version, note)
		}
		switch p.prompt("Download %s update %s from %s?", c.Track, c.Version, c.Provider) {
		case ResponseQuit:
			return map[types.Track]bool{}, false
		case ResponseYes:
			approved[c.Track] = true
		default:
			approved[c.Track] = false
		}
	}
	return approved, true
}

// ReadSecret asks for a value without echo when stdin is a terminal.
func (p *Prompter) ReadSecret(label string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s: ", label)

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", label, err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read %s: %w", label, err)
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
