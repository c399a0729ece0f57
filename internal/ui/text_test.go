package ui

import (
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	original := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = original })
}

func TestFormatter_PlainFallback(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name      string
		formatter Formatter
		input     string
		want      string
	}{
		{"code is backticked", Code, "instivault backup restore", "`instivault backup restore`"},
		{"identity is quoted", Highlight, "admin@x.com", "'admin@x.com'"},
		{"detail is parenthesised", Muted, "from config", "(from config)"},
		{"path is bare", Path, "institute-backup-2026-01-01.enc", "institute-backup-2026-01-01.enc"},
		{"glyph is bare", Success, "✓", "✓"},
		{"count is bare", Count, "42", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.formatter.Sprint(tt.input))
		})
	}
}

func TestFormatter_Sprintf(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "(3 records)", Muted.Sprintf("%d records", 3))
}

func TestFormatter_ColorDropsWrapping(t *testing.T) {
	withColor(t, true)
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	got := Highlight.Sprint("admin@x.com")
	assert.Contains(t, got, "\x1b[")
	assert.Contains(t, got, "admin@x.com")
	assert.NotContains(t, got, "'")
}

func TestNoColor(t *testing.T) {
	withColor(t, true)
	t.Setenv("NO_COLOR", "")
	assert.True(t, noColor(), "NO_COLOR is honoured even when empty")
}

func TestNoColor_TerminalDetection(t *testing.T) {
	withColor(t, false)
	assert.True(t, noColor())
}

func TestEnsureNewline(t *testing.T) {
	assert.Equal(t, "\n", EnsureNewline(""))
	assert.Equal(t, "done\n", EnsureNewline("done"))
	assert.Equal(t, "done\n", EnsureNewline("done\n"))
}
