package workflows

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/PolarWolf314/instivault/internal/audit"
	kerrors "github.com/PolarWolf314/instivault/internal/errors"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// User filters entries by identity.
	User string

	// Operations filters entries by operation types (comma-separated).
	Operations string

	// Since filters entries on or after this date (YYYY-MM-DD format).
	Since string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the audit log.
//
// Returns ErrNoAuditLog if nothing has been logged yet.
// Returns ErrInvalidDateFormat if Since is not YYYY-MM-DD.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	var since time.Time
	if opts.Since != "" {
		var err error
		since, err = time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
	}

	if _, err := os.Stat(audit.LogPath()); os.IsNotExist(err) {
		return nil, kerrors.ErrNoAuditLog
	}

	entries, err := audit.ReadEntries()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}

	ops := []string{""}
	if opts.Operations != "" {
		ops = strings.Split(opts.Operations, ",")
	}

	var filtered []audit.Entry
	for _, op := range ops {
		filtered = append(filtered, audit.Filter(entries, strings.TrimSpace(op), since)...)
	}
	if len(ops) > 1 {
		filtered = sortByTimestamp(filtered)
	}

	if opts.User != "" {
		kept := filtered[:0]
		for _, e := range filtered {
			if e.User == opts.User {
				kept = append(kept, e)
			}
		}
		filtered = kept
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

// sortByTimestamp restores log order after merging per-operation filters.
// The fixed-width timestamp format sorts lexically.
func sortByTimestamp(entries []audit.Entry) []audit.Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
	return entries
}
