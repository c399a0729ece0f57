package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PolarWolf314/instivault/internal/backup"
	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/sinks"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/PolarWolf314/instivault/internal/utils"
	"github.com/PolarWolf314/instivault/internal/workflows"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	createOutput string
	createSink   string
	createForce  bool
)

func init() {
	backupCreateCmd.Flags().StringVarP(&createOutput, "output", "o", "", "backup file name or path (default institute-backup-YYYY-MM-DD.enc)")
	backupCreateCmd.Flags().StringVarP(&createSink, "sink", "s", "", "where to send the backup: "+strings.Join(sinks.Names, ", "))
	backupCreateCmd.Flags().BoolVarP(&createForce, "force", "f", false, "overwrite an existing backup file")
}

// resetCreateCommandState resets the create command's global state for testing.
func resetCreateCommandState() {
	createOutput = ""
	createSink = ""
	createForce = false
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Export your records into an encrypted backup",
	Long: `Reads every collection you own from the record store, encrypts it with a key
derived from your email and delivers the result to a sink.

The file sink writes to [backup].output_dir. The email sink posts the backup
to the configured mail relay and refuses backups over its size limit. The s3
sink uploads to the configured bucket.

Examples:
  instivault backup create
  instivault backup create --output weekly.enc --force
  instivault backup create --sink email`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting backup create command")
		spinner, cleanup := startSpinner("Creating backup...", verbose)
		defer cleanup()

		result, err := workflows.Backup(context.Background(), workflows.BackupOptions{
			Sink:   createSink,
			Output: createOutput,
			Force:  createForce,
		})
		if err != nil {
			Logger.Errorf("Backup failed: %v", err)
			spinner.FinalMSG = formatCreateError(err)
			if isCreateUnexpectedError(err) {
				return err
			}
			return nil
		}

		Logger.Infof("Backup %s delivered via %s to %s", result.BackupID, result.Sink, result.Location)

		finalMessage := ui.Success.Sprint("✓") + " Backup created for " + ui.Highlight.Sprint(result.Identity) + "\n" +
			"  Records:  " + ui.Count.Sprint(result.Total) + " " + ui.Muted.Sprint(utils.FormatCounts(result.Counts)) + "\n" +
			"  Size:     " + utils.HumanSize(result.Size) + "\n" +
			"  Saved to: " + ui.Path.Sprint(result.Location)
		if result.Total == 0 {
			finalMessage += "\n" + ui.Warning.Sprint("⚠") + " You have no records yet, the backup is empty"
		}
		finalMessage += "\n" + ui.Info.Sprint("→") + " Only " + ui.Highlight.Sprint(result.Identity) + " can restore this backup"

		spinner.FinalMSG = finalMessage
		return nil
	},
}

// formatCreateError formats a backup error for display to the user.
func formatCreateError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrSizeLimit):
		var limitErr *backup.SizeLimitError
		msg := ui.Error.Sprint("✗") + " Backup is too large for this sink"
		if errors.As(err, &limitErr) {
			msg = ui.Error.Sprint("✗") + fmt.Sprintf(" Backup is too large for the %s sink (%s characters, limit %s)",
				limitErr.Sink, ui.Count.Sprint(humanize.Comma(int64(limitErr.Size))), ui.Count.Sprint(humanize.Comma(int64(limitErr.Limit))))
		}
		return msg + "\n" + ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--sink file") + " and share the file another way"

	case errors.Is(err, kerrors.ErrFileExists):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--force") + " to overwrite it or pick another " + ui.Flag.Sprint("--output")

	case errors.Is(err, kerrors.ErrUnknownSink):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Supported sinks: " + strings.Join(sinks.Names, ", ")

	case errors.Is(err, kerrors.ErrInvalidConfig):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Check " + ui.Code.Sprint("instivault config show")

	case errors.Is(err, kerrors.ErrEmptyIdentity):
		return ui.Error.Sprint("✗") + " No email is configured\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("instivault config init") + " first"

	default:
		return ui.Error.Sprint("✗") + " Backup failed: " + err.Error()
	}
}

// isCreateUnexpectedError returns true if the error should cause a non-zero exit.
func isCreateUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrSizeLimit),
		errors.Is(err, kerrors.ErrFileExists),
		errors.Is(err, kerrors.ErrUnknownSink),
		errors.Is(err, kerrors.ErrInvalidConfig),
		errors.Is(err, kerrors.ErrEmptyIdentity):
		return false
	default:
		return true
	}
}
