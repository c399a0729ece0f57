package cmd

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/PolarWolf314/instivault/internal/workflows"
	"github.com/spf13/cobra"
)

var recordsData string

func init() {
	recordsAddCmd.Flags().StringVar(&recordsData, "data", "", "record as a JSON object (default: read from stdin)")
	recordsUpdateCmd.Flags().StringVar(&recordsData, "data", "", "fields to change as a JSON object (default: read from stdin)")
}

func resetRecordsDataState() {
	recordsData = ""
}

var recordsAddCmd = &cobra.Command{
	Use:   "add <collection>",
	Short: "Add a record owned by you",
	Long: `Adds a record to a collection. The record is owned by your email whatever
ownerEmail it carries. An id is generated when the record has none.`,
	Args: collectionArg(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readRecordInput(recordsData)
		if err != nil {
			fmt.Println(formatRecordError(err, args[0], ""))
			return nil
		}

		result, err := workflows.AddRecord(context.Background(), workflows.AddRecordOptions{
			Collection: args[0],
			Record:     rec,
		})
		if err != nil {
			fmt.Println(formatRecordError(err, args[0], rec.ID()))
			if isRecordUnexpectedError(err) {
				return err
			}
			return nil
		}

		RecordsLogger.Infof("Added %s/%s for %s", args[0], result.Record.ID(), result.Identity)
		fmt.Println(ui.Success.Sprint("✓") + " Added " + args[0] + "/" + ui.Highlight.Sprint(result.Record.ID()))
		return nil
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update <collection> <id>",
	Short: "Change fields of a record you own",
	Args:  collectionArg(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := readRecordInput(recordsData)
		if err != nil {
			fmt.Println(formatRecordError(err, args[0], args[1]))
			return nil
		}

		err = workflows.UpdateRecord(context.Background(), workflows.UpdateRecordOptions{
			Collection: args[0],
			ID:         args[1],
			Patch:      patch,
		})
		if err != nil {
			fmt.Println(formatRecordError(err, args[0], args[1]))
			if isRecordUnexpectedError(err) {
				return err
			}
			return nil
		}

		fmt.Println(ui.Success.Sprint("✓") + " Updated " + args[0] + "/" + ui.Highlight.Sprint(args[1]))
		return nil
	},
}

var recordsRemoveCmd = &cobra.Command{
	Use:   "remove <collection> <id>",
	Short: "Delete a record you own",
	Args:  collectionArg(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := workflows.RemoveRecord(context.Background(), workflows.RemoveRecordOptions{
			Collection: args[0],
			ID:         args[1],
		})
		if err != nil {
			fmt.Println(formatRecordError(err, args[0], args[1]))
			if isRecordUnexpectedError(err) {
				return err
			}
			return nil
		}

		fmt.Println(ui.Success.Sprint("✓") + " Removed " + args[0] + "/" + ui.Highlight.Sprint(args[1]))
		return nil
	},
}

// formatRecordError formats a records error for display to the user.
func formatRecordError(err error, collection, id string) string {
	switch {
	case errors.Is(err, kerrors.ErrRecordNotFound):
		return ui.Error.Sprint("✗") + " No record " + ui.Highlight.Sprint(id) + " in " + collection + " owned by you"

	case errors.Is(err, kerrors.ErrInvalidRecord):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Pass a JSON object with " + ui.Flag.Sprint("--data") + " or on stdin"

	default:
		return ui.Error.Sprint("✗") + " Failed to change " + collection + ": " + err.Error()
	}
}

// isRecordUnexpectedError returns true if the error should cause a non-zero exit.
func isRecordUnexpectedError(err error) bool {
	return !errors.Is(err, kerrors.ErrRecordNotFound) && !errors.Is(err, kerrors.ErrInvalidRecord)
}
