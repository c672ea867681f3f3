// Package output renders command results in terminal-aware formats.
//
// Mode "auto" picks styled text when stdout is an interactive terminal and
// markdown otherwise, so piped and scripted invocations stay parseable.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects an output format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Styles used by text mode.
var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	brokenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Renderer writes formatted output to a pair of streams.
type Renderer struct {
	out     io.Writer
	errW    io.Writer
	mode    Mode
	isTTY   bool
	colored bool
}

// NewRenderer creates a renderer, detecting terminal state from the output
// stream. An empty or unknown mode becomes auto.
func NewRenderer(out, errW io.Writer, mode Mode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errW, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
// Tests use it to exercise both branches of auto detection.
func NewRendererWithTTY(out, errW io.Writer, isTTY bool, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	default:
		mode = ModeAuto
	}
	return &Renderer{
		out:     out,
		errW:    errW,
		mode:    mode,
		isTTY:   isTTY,
		colored: isTTY && termenv.EnvColorProfile() != termenv.Ascii,
	}
}

// EffectiveMode resolves auto against the environment: text for an
// interactive terminal, markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Writer returns the underlying output stream, for encoders that need it.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the error stream.
func (r *Renderer) ErrWriter() io.Writer { return r.errW }

func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Header prints a section header in the effective format.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeText {
		if r.colored {
			text = headerStyle.Render(text)
		}
		r.Println(text)
		return
	}
	r.Println(FormatHeader(level, text))
	r.Println("")
}

// Status prints s styled according to its meaning in text mode, plain
// otherwise. Recognized values: PASS, BROKEN, ERROR.
func (r *Renderer) Status(s string) string {
	if r.EffectiveMode() != ModeText || !r.colored {
		return s
	}
	switch s {
	case "PASS":
		return passStyle.Render(s)
	case "BROKEN":
		return brokenStyle.Render(s)
	case "ERROR":
		return errStyle.Render(s)
	}
	return s
}

// Subtle renders de-emphasized text in text mode.
func (r *Renderer) Subtle(s string) string {
	if r.EffectiveMode() == ModeText && r.colored {
		return subtleStyle.Render(s)
	}
	return s
}

// Success prints a highlighted success line.
func (r *Renderer) Success(s string) {
	if r.EffectiveMode() == ModeText && r.colored {
		s = passStyle.Render(s)
	}
	r.Println(s)
}

// Warning prints a warning line to the error stream.
func (r *Renderer) Warning(s string) {
	line := "warning: " + s
	if r.EffectiveMode() == ModeText && r.colored {
		line = warningStyle.Render(line)
	}
	_, _ = fmt.Fprintln(r.errW, line)
}

// JSON encodes v indented to the output stream.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown key/value bullet.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}
