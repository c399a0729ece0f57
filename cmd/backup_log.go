package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/instivault/internal/audit"
	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/PolarWolf314/instivault/internal/utils"
	"github.com/PolarWolf314/instivault/internal/workflows"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logUser      string
	logOperation string
	logSince     string
	logOneline   bool
	logJSON      bool
)

func init() {
	backupLogCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	backupLogCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	backupLogCmd.Flags().StringVar(&logUser, "user", "", "filter by user email")
	backupLogCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	backupLogCmd.Flags().StringVar(&logSince, "since", "", "show entries on or after date (YYYY-MM-DD)")
	backupLogCmd.Flags().BoolVar(&logOneline, "oneline", false, "compact one-line format")
	backupLogCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logUser = ""
	logOperation = ""
	logSince = ""
	logOneline = false
	logJSON = false
}

var backupLogCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the local audit log of backups, restores and record changes.

Examples:
  instivault backup log                           # View full log
  instivault backup log -n 10                     # Last 10 entries
  instivault backup log --reverse                 # Most recent first
  instivault backup log --operation backup,restore
  instivault backup log --since 2024-01-01
  instivault backup log --json`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	result, err := workflows.Log(context.Background(), workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		User:       logUser,
		Operations: logOperation,
		Since:      logSince,
	})
	if err != nil {
		fmt.Println(formatLogError(err))
		if isLogUnexpectedError(err) {
			return err
		}
		return nil
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			fmt.Println("No audit log entries found.")
		} else {
			fmt.Println("No audit log entries found matching the filters.")
		}
		return nil
	}

	switch {
	case logJSON:
		return outputLogJSON(result.Entries)
	case logOneline:
		outputLogOneline(result.Entries)
	default:
		outputLogDefault(result.Entries)
	}
	return nil
}

// formatLogError formats a log error for display to the user.
func formatLogError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrNoAuditLog):
		return ui.Info.Sprint("ℹ") + " No audit log found. Operations are logged once you create or restore a backup."

	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return ui.Error.Sprint("✗") + " " + err.Error()

	default:
		return ui.Error.Sprint("✗") + " Failed to read audit log: " + err.Error()
	}
}

// isLogUnexpectedError returns true if the error is unexpected and should cause a non-zero exit.
func isLogUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrNoAuditLog),
		errors.Is(err, kerrors.ErrInvalidDateFormat):
		return false
	default:
		return true
	}
}

func outputLogJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputLogOneline(entries []audit.Entry) {
	for _, e := range entries {
		fmt.Printf("%s %s %s %s\n", formatLogTime(e.Timestamp, "2006-01-02"), e.User, e.Operation, formatLogDetails(e))
	}
}

func outputLogDefault(entries []audit.Entry) {
	table := ui.NewTable(os.Stdout, "TIME", "USER", "OPERATION", "DETAILS")
	for _, e := range entries {
		when := formatLogTime(e.Timestamp, "2006-01-02 15:04:05")
		if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
			when += " " + ui.Muted.Sprint(humanize.Time(t))
		}
		table.Row(when, e.User, e.Operation, formatLogDetails(e))
	}
	_ = table.Flush()
}

func formatLogTime(ts, layout string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format(layout)
}

func formatLogDetails(e audit.Entry) string {
	var parts []string

	switch e.Operation {
	case audit.OpBackup:
		if e.Sink != "" {
			parts = append(parts, "sink="+e.Sink)
		}
		if e.Location != "" {
			parts = append(parts, e.Location)
		}
	case audit.OpRestore:
		if e.DryRun {
			parts = append(parts, "dry-run")
		}
		if len(e.Failed) > 0 {
			parts = append(parts, "failed="+strings.Join(e.Failed, ","))
		}
	case audit.OpRecordAdd, audit.OpRecordUpdate, audit.OpRecordRemove:
		parts = append(parts, e.Collection+"/"+e.RecordID)
	}

	if e.BackupID != "" {
		parts = append(parts, "id="+e.BackupID)
	}
	if len(e.Counts) > 0 {
		parts = append(parts, "("+utils.FormatCounts(e.Counts)+")")
	}
	if e.Error != "" {
		parts = append(parts, ui.Error.Sprint("error: "+e.Error))
	}

	return strings.Join(parts, " ")
}
