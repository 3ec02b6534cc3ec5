// Package output renders command results for terminals, pipes, and tooling.
//
// A renderer resolves to one of three concrete modes: interactive terminals
// get styled text, pipes get markdown (agent- and script-friendly), and
// explicit JSON mode gets machine-readable documents. Mode auto picks by
// TTY detection on the output writer.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects how command results are rendered.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting TTY state from stdout.
func NewRenderer(stdout, stderr io.Writer, mode Mode) *Renderer {
	isTTY := false
	if f, ok := stdout.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(stdout, stderr, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
// Tests use this to exercise both sides of the auto-detection.
func NewRendererWithTTY(stdout, stderr io.Writer, isTTY bool, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	default:
		mode = ModeAuto
	}

	// Styling is only for humans at terminals; NO_COLOR is honored.
	colored := isTTY && !termenv.EnvNoColor()

	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		isTTY:  isTTY,
		styles: NewStyles(colored),
	}
}

// EffectiveMode resolves ModeAuto to the concrete mode in use.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to an interactive terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Styles returns the style set for text-mode rendering.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the stdout writer for direct rendering (tables, encoders).
func (r *Renderer) Writer() io.Writer {
	return r.stdout
}

// ErrWriter returns the stderr writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.stderr
}

// Println writes a line to stdout.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.stdout, a...)
}

// Printf writes formatted output to stdout.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.stdout, format, a...)
}

// Header prints a section heading: styled in text mode, a markdown heading
// otherwise.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeText {
		style := r.styles.Header1
		if level > 1 {
			style = r.styles.Header2
		}
		r.Println(style.Render(text))
		return
	}
	r.Println(FormatHeader(level, text))
}

// Success prints a positive completion message.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Success.Render("✓ " + msg))
		return
	}
	r.Println("✓ " + msg)
}

// Warning prints a warning message.
func (r *Renderer) Warning(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Warning.Render("⚠ " + msg))
		return
	}
	r.Println("⚠ " + msg)
}

// Error prints an error message to stderr.
func (r *Renderer) Error(msg string) {
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintln(r.stderr, r.styles.Error.Render("✗ "+msg))
		return
	}
	_, _ = fmt.Fprintln(r.stderr, "✗ "+msg)
}

// StatusLine prints an indented per-item status row, as used by scaffolding
// and doctor listings. Status "success" gets a check mark, anything else a
// cross.
func (r *Renderer) StatusLine(name, status, detail string) {
	icon := r.styles.StatusSuccess.String()
	if status != "success" {
		icon = r.styles.StatusFailed.String()
	}
	if detail != "" {
		r.Printf("  %s %s  %s\n", icon, name, r.styles.Muted.Render(detail))
		return
	}
	r.Printf("  %s %s\n", icon, name)
}

// JSON writes v as indented JSON to stdout.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Width returns the terminal width for wrapping prose, clamped to a sane
// range. Non-terminal writers get the default.
func (r *Renderer) Width() int {
	const def = 80
	f, ok := r.stdout.(*os.File)
	if !ok {
		return def
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return def
	}
	if w < 40 {
		return 40
	}
	if w > 120 {
		return 120
	}
	return w
}
