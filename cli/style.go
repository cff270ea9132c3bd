package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Palette is the small set of colors used for console output.
var Palette = struct {
	Blue, Cyan, Green, Yellow, Red, Orange, Violet, Muted lipgloss.AdaptiveColor
}{
	Blue:   lipgloss.AdaptiveColor{Light: "#1f5fbf", Dark: "#61afef"},
	Cyan:   lipgloss.AdaptiveColor{Light: "#0f7d8c", Dark: "#56b6c2"},
	Green:  lipgloss.AdaptiveColor{Light: "#2f7d32", Dark: "#98c379"},
	Yellow: lipgloss.AdaptiveColor{Light: "#9a6700", Dark: "#e5c07b"},
	Red:    lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#e06c75"},
	Orange: lipgloss.AdaptiveColor{Light: "#b35900", Dark: "#d19a66"},
	Violet: lipgloss.AdaptiveColor{Light: "#7b1fa2", Dark: "#c678dd"},
	Muted:  lipgloss.AdaptiveColor{Light: "#6b6b6b", Dark: "#7f848e"},
}

// NewRenderer returns a lipgloss renderer for w. Output that is not a
// terminal, or NO_COLOR, gets plain ASCII.
func NewRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if !isTerminal(w) || os.Getenv("NO_COLOR") != "" {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConsolePrinter writes the operator's progress lines.
type ConsolePrinter struct {
	w       io.Writer
	step    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	prompt  lipgloss.Style
}

// NewConsolePrinter creates a ConsolePrinter writing to w.
func NewConsolePrinter(w io.Writer) *ConsolePrinter {
	r := NewRenderer(w)
	return &ConsolePrinter{
		w:       w,
		step:    r.NewStyle().Foreground(Palette.Cyan),
		success: r.NewStyle().Bold(true).Foreground(Palette.Green),
		warn:    r.NewStyle().Bold(true).Foreground(Palette.Yellow),
		err:     r.NewStyle().Bold(true).Foreground(Palette.Red),
		prompt:  r.NewStyle().Bold(true).Foreground(Palette.Blue),
	}
}

func (p *ConsolePrinter) Step(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.step.Render("[~]"), msg)
}

func (p *ConsolePrinter) Success(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.success.Render("[*]"), msg)
}

func (p *ConsolePrinter) Warn(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.warn.Render("[!]"), msg)
}

func (p *ConsolePrinter) Error(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.err.Render("[x]"), msg)
}

func (p *ConsolePrinter) Prompt(msg string) {
	fmt.Fprint(p.w, p.prompt.Render(msg))
}
