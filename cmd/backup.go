package cmd

import (
	logger "github.com/PolarWolf314/instivault/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	BackupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Create, restore and inspect encrypted institute backups",
		Long: `Exports every record you own into a single encrypted file and restores it later.

Backups are locked to your email. Only the same email can restore them.

Examples:
  # Write institute-backup-YYYY-MM-DD.enc to the configured output directory
  instivault backup create

  # Restore a backup into the record store
  instivault backup restore institute-backup-2024-05-01.enc

  # Check a backup without the key
  instivault backup inspect institute-backup-2024-05-01.enc`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing backup command with verbose=%t, debug=%t", verbose, debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if debug {
				printMetrics(cmd.ErrOrStderr())
			}
		},
	}
)

func init() {
	BackupCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	BackupCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	BackupCmd.AddCommand(backupCreateCmd)
	BackupCmd.AddCommand(backupRestoreCmd)
	BackupCmd.AddCommand(backupInspectCmd)
	BackupCmd.AddCommand(backupStatusCmd)
	BackupCmd.AddCommand(backupLogCmd)
}

// GetBackupCmd returns the BackupCmd for testing.
func GetBackupCmd() *cobra.Command {
	return BackupCmd
}

// ResetGlobalState resets all backup command globals to their defaults for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetCreateCommandState()
	resetRestoreCommandState()
	resetLogCommandState()
	resetCobraFlagState(BackupCmd)
}

// SetVerbose sets the verbose flag for testing.
func SetVerbose(v bool) {
	verbose = v
}

// SetDebug sets the debug flag for testing.
func SetDebug(d bool) {
	debug = d
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}

// resetCobraFlagState clears Changed on every flag under root so values from
// one test run do not leak into the next.
func resetCobraFlagState(root *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		flag.Changed = false
	}
	root.PersistentFlags().VisitAll(reset)
	root.Flags().VisitAll(reset)
	for _, sub := range root.Commands() {
		sub.Flags().VisitAll(reset)
	}
}
