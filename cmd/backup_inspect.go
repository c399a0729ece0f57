package cmd

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/PolarWolf314/instivault/internal/utils"
	"github.com/PolarWolf314/instivault/internal/workflows"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var backupInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show what a backup file contains without decrypting it",
	Long: `Parses a backup envelope and prints its format version, who it claims to be
locked to and the size of each field.

The "Locked to" line is informational. It is not checked during restore; only
the email used for decryption matters.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting backup inspect command")

		result, err := workflows.Inspect(context.Background(), workflows.InspectOptions{Path: args[0]})
		if err != nil {
			Logger.Errorf("Inspect failed: %v", err)
			fmt.Println(formatRestoreError(err))
			if errors.Is(err, kerrors.ErrInvalidFormat) || errors.Is(err, kerrors.ErrFileNotFound) ||
				errors.Is(err, kerrors.ErrUnsupportedVersion) {
				return nil
			}
			return err
		}

		fmt.Println(ui.Success.Sprint("✓") + " " + ui.Path.Sprint(args[0]) + " is an instivault backup")
		table := ui.NewTable(cmd.OutOrStdout())
		table.Row("Version:", fmt.Sprint(result.Version))
		table.Row("Locked to:", valueOrNone(result.LockedTo))
		table.Row("You are:", result.CurrentIdentity)
		table.Row("Salt:", fieldSize(result.SaltBytes))
		table.Row("IV:", fieldSize(result.IVBytes))
		table.Row("Ciphertext:", fieldSize(result.CipherTextBytes))
		table.Row("Size:", utils.HumanSize(result.Size))
		if err := table.Flush(); err != nil {
			return err
		}

		if !result.EmailSafe {
			fmt.Println(ui.Warning.Sprint("⚠") + " Too large for the email sink " +
				ui.Muted.Sprint("limit "+humanize.Comma(int64(result.EmailLimit))+" characters"))
		}
		if result.LikelyMatches {
			fmt.Println(ui.Info.Sprint("→") + " This backup looks like yours. Run " +
				ui.Code.Sprint("instivault backup restore --dry-run "+args[0]) + " to verify it")
		} else {
			fmt.Println(ui.Warning.Sprint("⚠") + " This backup does not appear to be locked to " +
				ui.Highlight.Sprint(result.CurrentIdentity) + ", restoring it will likely fail")
		}
		return nil
	},
}

func fieldSize(n int) string {
	if n < 0 {
		return ui.Error.Sprint("not valid base64")
	}
	return fmt.Sprintf("%d bytes", n)
}

func valueOrNone(s string) string {
	if s == "" {
		return ui.Muted.Sprint("none")
	}
	return s
}
