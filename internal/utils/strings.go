package utils

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// emailRegex is a simple regex for validating email format.
// It checks for: local-part@domain.tld format.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail checks if the given string is a valid email address format.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// DefaultBackupName returns institute-backup-YYYY-MM-DD.enc for the given day.
func DefaultBackupName(t time.Time) string {
	return fmt.Sprintf("institute-backup-%s.enc", t.Format("2006-01-02"))
}

// HumanSize formats a byte count, e.g. "39 kB".
func HumanSize(n int) string {
	return humanize.Bytes(uint64(n))
}

// FormatCounts renders per-collection counts as "a: 1, b: 2" in name order.
func FormatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "no records"
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %d", name, counts[name])
	}
	return strings.Join(parts, ", ")
}
