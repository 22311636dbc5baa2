package errors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"
)

// Position is a source location as reported by the lexer.
type Position = lexer.Position

// ErrorLevel represents the severity of an error
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// CompilerError represents a structured error with suggestions and context
type CompilerError struct {
	Level       ErrorLevel
	Code        string
	Message     string
	Position    Position
	Length      int // width of the underline
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

func (e CompilerError) Error() string {
	return fmt.Sprintf("%d:%d: %s[%s]: %s", e.Position.Line, e.Position.Column, e.Level, e.Code, e.Message)
}

// Suggestion represents a suggested fix
type Suggestion struct {
	Message     string
	Replacement string // optional
}

// ErrorReporter handles consistent error formatting and suggestions
type ErrorReporter struct {
	filename string
	source   string
	lines    []string
}

// NewErrorReporter creates a new error reporter for a file
func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		source:   source,
		lines:    strings.Split(source, "\n"),
	}
}

// FormatError renders an error with the offending source line, an underline,
// and any suggestions or notes.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var b strings.Builder
	paint := levelPaint(err.Level)

	if err.Code != "" {
		fmt.Fprintf(&b, "%s[%s]: %s\n", paint(string(err.Level)), err.Code, err.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s\n", paint(string(err.Level)), err.Message)
	}

	g := newGutter(&b, err.Position.Line)
	g.arrow(fmt.Sprintf("%s:%d:%d", er.filename, err.Position.Line, err.Position.Column))
	g.blank()

	line := err.Position.Line
	if text, ok := er.line(line - 1); ok {
		g.context(line-1, text)
	}
	if text, ok := er.line(line); ok {
		g.source(line, text)
		g.text(underline(err.Position.Column, err.Length, paint))
	}
	if text, ok := er.line(line + 1); ok {
		g.context(line+1, text)
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	if len(err.Suggestions) > 0 {
		g.blank()
	}
	for i, s := range err.Suggestions {
		label := "    "
		if i == 0 {
			label = "help: try:"
		}
		g.label(cyan(label), s.Message)
		if s.Replacement != "" {
			g.blank()
			for _, r := range strings.Split(s.Replacement, "\n") {
				g.text(cyan(r))
			}
		}
	}

	blue := color.New(color.FgBlue).SprintFunc()
	for _, note := range err.Notes {
		g.text(blue("note:") + " " + note)
	}
	if err.HelpText != "" {
		g.text(color.New(color.FgGreen).Sprint("help:") + " " + err.HelpText)
	}

	b.WriteString("\n")
	return b.String()
}

// line returns the 1-based source line n
func (er *ErrorReporter) line(n int) (string, bool) {
	if n < 1 || n > len(er.lines) {
		return "", false
	}
	return er.lines[n-1], true
}

// gutter writes the numbered margin running down the left of a diagnostic
type gutter struct {
	b     *strings.Builder
	width int
	dim   func(...interface{}) string
	bold  func(...interface{}) string
}

func newGutter(b *strings.Builder, line int) gutter {
	return gutter{
		b:     b,
		width: max(3, len(strconv.Itoa(line))),
		dim:   color.New(color.Faint).SprintFunc(),
		bold:  color.New(color.Bold).SprintFunc(),
	}
}

func (g gutter) pad() string {
	return strings.Repeat(" ", g.width)
}

func (g gutter) arrow(location string) {
	fmt.Fprintf(g.b, "%s %s %s\n", g.pad(), g.dim("-->"), location)
}

func (g gutter) blank() {
	fmt.Fprintf(g.b, "%s %s\n", g.pad(), g.dim("│"))
}

func (g gutter) text(s string) {
	fmt.Fprintf(g.b, "%s %s %s\n", g.pad(), g.dim("│"), s)
}

func (g gutter) label(label, s string) {
	fmt.Fprintf(g.b, "%s %s %s\n", g.pad(), label, s)
}

func (g gutter) context(n int, s string) {
	fmt.Fprintf(g.b, "%s %s %s\n", g.dim(fmt.Sprintf("%*d", g.width, n)), g.dim("│"), s)
}

func (g gutter) source(n int, s string) {
	fmt.Fprintf(g.b, "%s %s %s\n", g.bold(fmt.Sprintf("%*d", g.width, n)), g.dim("│"), s)
}

// levelPaint colors text for level; unknown levels paint as errors
func levelPaint(level ErrorLevel) func(...interface{}) string {
	attrs := map[ErrorLevel]color.Attribute{
		Warning: color.FgYellow,
		Note:    color.FgBlue,
		Help:    color.FgGreen,
	}
	fg, ok := attrs[level]
	if !ok {
		fg = color.FgRed
	}
	return color.New(fg, color.Bold).SprintFunc()
}

// underline marks length columns starting at the 1-based column
func underline(column, length int, paint func(...interface{}) string) string {
	return strings.Repeat(" ", max(0, column-1)) + paint(strings.Repeat("^", max(1, length)))
}

// FormatAll renders errors in order, followed by a one-line summary.
func (er *ErrorReporter) FormatAll(errs []CompilerError) string {
	var b strings.Builder
	nerr, warnings := 0, 0
	for _, err := range errs {
		b.WriteString(er.FormatError(err))
		if err.Level == Warning {
			warnings++
		} else {
			nerr++
		}
	}
	if nerr+warnings > 0 {
		b.WriteString(fmt.Sprintf("%s: %d error(s), %d warning(s)\n", er.filename, nerr, warnings))
	}
	return b.String()
}
