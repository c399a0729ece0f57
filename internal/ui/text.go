package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter styles one kind of CLI output. With color disabled it falls back
// to wrapping the text in open and close, so meaning survives in logs and pipes.
type Formatter struct {
	color       *color.Color
	open, close string
}

func style(attr color.Attribute, wrap ...string) Formatter {
	f := Formatter{color: color.New(attr)}
	if len(wrap) == 2 {
		f.open, f.close = wrap[0], wrap[1]
	}
	return f
}

// Sprint styles the operands as fmt.Sprint would join them.
func (f Formatter) Sprint(a ...interface{}) string {
	return f.render(fmt.Sprint(a...))
}

// Sprintf styles a formatted string.
func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.render(fmt.Sprintf(format, a...))
}

func (f Formatter) render(text string) string {
	if noColor() {
		return f.open + text + f.close
	}
	return f.color.Sprint(text)
}

// EnsureNewline appends a newline unless s already ends with one.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// noColor honours NO_COLOR (https://no-color.org/) and fatih/color's own
// terminal detection.
func noColor() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return true
	}
	return color.NoColor
}

// Styles used across instivault's commands.
var (
	// Status glyphs and the message that follows them.
	Success = style(color.FgGreen)
	Error   = style(color.FgRed)
	Warning = style(color.FgYellow)
	Info    = style(color.FgCyan)

	// Code is a command the user can run: `instivault backup create`.
	Code = style(color.FgYellow, "`", "`")
	// Path is a backup file, config file or sink location.
	Path = style(color.FgYellow)
	// Flag is a command-line flag such as --yes.
	Flag = style(color.FgYellow)

	// Highlight marks identities and collection names: 'admin@x.com'.
	Highlight = style(color.FgCyan, "'", "'")
	// Count marks record counts and sizes.
	Count = style(color.Bold)
	// Muted is secondary detail: (from config).
	Muted = style(color.FgHiBlack, "(", ")")
)
