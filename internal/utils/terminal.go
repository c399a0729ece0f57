package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"
)

func ttyPath() string {
	if runtime.GOOS == "windows" {
		return "CON"
	}
	return "/dev/tty"
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsTTYAvailable returns true if /dev/tty (or CON on Windows) is available for reading.
func IsTTYAvailable() bool {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return false
	}
	defer tty.Close()

	return term.IsTerminal(int(tty.Fd()))
}

// ConfirmFromTTY asks a yes/no question on the terminal. It reads from
// /dev/tty so it works while stdin carries a piped backup.
func ConfirmFromTTY(prompt string) (bool, error) {
	tty, err := os.Open(ttyPath())
	if err != nil {
		return false, fmt.Errorf("cannot open %s for confirmation: %w", ttyPath(), err)
	}
	defer tty.Close()

	fmt.Fprint(os.Stderr, prompt+" [y/N]: ")
	return readConfirmation(tty)
}

func readConfirmation(r io.Reader) (bool, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
