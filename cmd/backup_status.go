package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/instivault/internal/configs"
	"github.com/PolarWolf314/instivault/internal/store"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/PolarWolf314/instivault/internal/workflows"
	"github.com/spf13/cobra"
)

var backupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who backups are locked to and what they would contain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting backup status command")
		spinner, cleanup := startSpinner("Counting records...", verbose)

		result, err := workflows.Status(context.Background(), workflows.StatusOptions{})
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Failed to read the record store: " + err.Error()
			cleanup()
			return err
		}
		cleanup()

		fmt.Println("Identity: " + ui.Highlight.Sprint(result.Identity) + " " + ui.Muted.Sprint("from "+string(result.IdentitySource)))
		if result.IdentitySource == configs.IdentityFromFallback {
			fmt.Println(ui.Warning.Sprint("⚠") + " No email configured. Backups are locked to the shared guest identity")
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("instivault config init") + " to set your email")
		}
		fmt.Println("Store:    " + result.Driver)
		fmt.Println()

		table := ui.NewTable(cmd.OutOrStdout(), "COLLECTION", "RECORDS")
		for _, name := range store.Collections {
			table.Row(name, fmt.Sprint(result.Counts[name]))
		}
		table.Row("total", ui.Count.Sprint(result.Total))
		return table.Flush()
	},
}
