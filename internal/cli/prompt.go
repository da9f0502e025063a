package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fpang/photo-restorer/internal/filehandler"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ErrNoSelection is returned when the user dismisses the file dialog.
var ErrNoSelection = errors.New("no file selected")

// Prompter reads answers from a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter reading from in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Line prompts for a single line. Returns def if the user enters nothing or
// input cannot be read.
func (p *Prompter) Line(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	input, err := p.in.ReadString('\n')
	if err != nil && input == "" {
		if !errors.Is(err, io.EOF) {
			log.Warn().Err(err).Msg("Failed to read input, using default")
		}
		return def
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

// Confirm asks a yes/no question. Anything other than y/yes/n/no yields def.
func (p *Prompter) Confirm(question string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	switch strings.ToLower(p.Line(question+" ("+hint+")", "")) {
	case "y", "yes", "s", "sim":
		return true
	case "n", "no", "nao", "não":
		return false
	default:
		return def
	}
}

// EditText shows current and reads a replacement terminated by a line
// containing a single ".". An empty first line keeps current.
func (p *Prompter) EditText(label, current string) string {
	fmt.Fprintf(p.out, "%s:\n%s\n\n", label, current)
	fmt.Fprintln(p.out, "Enter a new text ending with a line containing only \".\", or press Enter to keep it:")

	var lines []string
	for {
		line, err := p.in.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if len(lines) == 0 && trimmed == "" {
			return current
		}
		if trimmed == "." {
			break
		}
		if trimmed != "" || line != "" {
			lines = append(lines, trimmed)
		}
		if err != nil {
			break
		}
	}
	if len(lines) == 0 {
		return current
	}
	return strings.Join(lines, "\n")
}

// SelectImageFile opens the native file dialog restricted to the accepted
// image types.
func SelectImageFile() (string, error) {
	patterns := make([]string, 0, len(filehandler.SupportedImageExtensions))
	for ext := range filehandler.SupportedImageExtensions {
		patterns = append(patterns, "*"+ext)
	}

	selected, err := zenity.SelectFile(
		zenity.Title("Select a photo to restore"),
		zenity.FileFilters{
			{Name: "Images (PNG, JPG, WEBP)", Patterns: patterns, CaseFold: true},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrNoSelection
		}
		return "", fmt.Errorf("file dialog failed: %w", err)
	}
	log.Info().Str("path", selected).Msg("File picked via native dialog")
	return selected, nil
}
