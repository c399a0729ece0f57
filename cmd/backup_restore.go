package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/PolarWolf314/instivault/internal/utils"
	"github.com/PolarWolf314/instivault/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	restoreDryRun bool
	restoreYes    bool
)

func init() {
	backupRestoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "decrypt and validate the backup without writing anything")
	backupRestoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "skip the confirmation prompt")
}

// resetRestoreCommandState resets the restore command's global state for testing.
func resetRestoreCommandState() {
	restoreDryRun = false
	restoreYes = false
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore an encrypted backup into the record store",
	Long: `Decrypts a backup with your email and writes its records back to the record store.

Records are matched by id. Existing records with the same id are replaced and
every restored record becomes yours. Records that are not in the backup are
left alone.

Nothing is written unless the whole backup decrypts and parses. Collections are
then written one at a time; if one fails the others are still restored and the
command reports which ones need another try.

Use "-" to read the backup from stdin.

Examples:
  instivault backup restore institute-backup-2024-05-01.enc
  instivault backup restore --dry-run institute-backup-2024-05-01.enc
  cat backup.enc | instivault backup restore - --yes`,
	Args: cobra.ExactArgs(1),
	// Every failure is reported by runRestore itself.
	SilenceErrors: true,
	RunE:          runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting backup restore command")
	path := args[0]

	if !restoreDryRun && !restoreYes {
		confirmed, err := confirmRestore(path)
		if err != nil {
			fmt.Println(ui.Error.Sprint("✗") + " " + err.Error())
			return err
		}
		if !confirmed {
			fmt.Println(ui.Warning.Sprint("⚠") + " Restore cancelled")
			return nil
		}
	}

	message := "Restoring backup..."
	if restoreDryRun {
		message = "Checking backup..."
	}
	spinner, cleanup := startSpinner(message, verbose)
	defer cleanup()

	result, err := workflows.Restore(context.Background(), workflows.RestoreOptions{
		Path:   path,
		DryRun: restoreDryRun,
		Logger: Logger,
	})
	if err != nil && result == nil {
		Logger.Errorf("Restore failed: %v", err)
		spinner.FinalMSG = formatRestoreError(err)
		return err
	}

	if result.DryRun {
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Backup decrypted and verified for " + ui.Highlight.Sprint(result.Identity) + "\n" +
			formatBackupSummary(result) +
			ui.Info.Sprint("→") + " Nothing was written. Run without " + ui.Flag.Sprint("--dry-run") + " to restore"
		return nil
	}

	var failed []string
	for _, c := range result.Collections {
		if c.Err != nil {
			failed = append(failed, c.Name)
			Logger.Errorf("Collection %s failed: %v", c.Name, c.Err)
		}
	}

	var b strings.Builder
	if len(failed) == 0 {
		b.WriteString(ui.Success.Sprint("✓") + " Backup restored for " + ui.Highlight.Sprint(result.Identity) + "\n")
	} else {
		b.WriteString(ui.Warning.Sprint("⚠") + " Backup partially restored for " + ui.Highlight.Sprint(result.Identity) + "\n")
	}
	b.WriteString(formatBackupSummary(result))
	b.WriteString("  Written:  " + ui.Count.Sprint(result.Written()) + " records\n")

	if len(failed) > 0 {
		b.WriteString(ui.Error.Sprint("✗") + " Failed collections: " + strings.Join(failed, ", ") + "\n")
		b.WriteString(ui.Info.Sprint("→") + " Run the restore again; restored records are replaced, not duplicated\n")
	}
	if result.RefreshErr != nil {
		b.WriteString(ui.Warning.Sprint("⚠") + " Could not recount records: " + result.RefreshErr.Error() + "\n")
	} else if result.After != nil {
		b.WriteString("  Now in store: " + ui.Muted.Sprint(utils.FormatCounts(result.After)))
	}

	spinner.FinalMSG = b.String()

	if err != nil {
		return err
	}
	return nil
}

// confirmRestore asks before writing. Without a terminal the caller must pass --yes.
func confirmRestore(path string) (bool, error) {
	if !utils.IsTTYAvailable() {
		return false, fmt.Errorf("%w: pass --yes to restore without a terminal", kerrors.ErrConfirmationRequired)
	}

	source := path
	if path == "-" {
		source = "stdin"
	}
	return utils.ConfirmFromTTY(fmt.Sprintf("Restore %s into the record store? Records with the same ids will be replaced", source))
}

func formatBackupSummary(result *workflows.RestoreResult) string {
	total := 0
	for _, n := range result.Counts {
		total += n
	}

	return "  Backup:   " + ui.Highlight.Sprint(result.Metadata.BackupID) + " " + ui.Muted.Sprint(result.Metadata.Timestamp) + "\n" +
		"  Records:  " + ui.Count.Sprint(total) + " " + ui.Muted.Sprint(utils.FormatCounts(result.Counts)) + "\n"
}

// formatRestoreError formats a restore error for display to the user.
func formatRestoreError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrAccessDenied):
		return ui.Error.Sprint("✗") + " Access Denied. Authentication mismatch\n" +
			ui.Info.Sprint("→") + " This backup was made under a different email. Set your email with " +
			ui.Code.Sprint("instivault config init") + " or " + ui.Code.Sprint("INSTIVAULT_EMAIL")

	case errors.Is(err, kerrors.ErrUnsupportedVersion):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Upgrade instivault to restore this backup"

	case errors.Is(err, kerrors.ErrInvalidFormat), errors.Is(err, kerrors.ErrDecoding):
		return ui.Error.Sprint("✗") + " Invalid file format\n" +
			ui.Muted.Sprint(err.Error())

	case errors.Is(err, kerrors.ErrFileNotFound):
		return ui.Error.Sprint("✗") + " " + err.Error()

	case errors.Is(err, kerrors.ErrEmptyIdentity):
		return ui.Error.Sprint("✗") + " No email is configured\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("instivault config init") + " first"

	default:
		return ui.Error.Sprint("✗") + " Restore failed: " + err.Error()
	}
}
