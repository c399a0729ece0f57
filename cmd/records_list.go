package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/store"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/PolarWolf314/instivault/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	recordsListID   string
	recordsListJSON bool
)

func init() {
	recordsListCmd.Flags().StringVar(&recordsListID, "id", "", "show a single record")
	recordsListCmd.Flags().BoolVar(&recordsListJSON, "json", false, "output as JSON array")
}

func resetRecordsListState() {
	recordsListID = ""
	recordsListJSON = false
}

var recordsListCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List your records in a collection",
	Args:  collectionArg(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		RecordsLogger.Infof("Listing %s", args[0])

		result, err := workflows.ListRecords(context.Background(), workflows.ListRecordsOptions{
			Collection: args[0],
			ID:         recordsListID,
		})
		if err != nil {
			if errors.Is(err, kerrors.ErrRecordNotFound) {
				fmt.Println(ui.Error.Sprint("✗") + " No record " + ui.Highlight.Sprint(recordsListID) + " in " + args[0])
				return nil
			}
			return RecordsLogger.ErrorfAndReturn("failed to list records: %v", err)
		}

		if recordsListJSON {
			data, err := json.MarshalIndent(result.Records, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal records to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(result.Records) == 0 {
			fmt.Println("No " + args[0] + " records for " + ui.Highlight.Sprint(result.Identity) + ".")
			return nil
		}

		table := ui.NewTable(os.Stdout, "ID", "FIELDS")
		for _, rec := range result.Records {
			table.Row(rec.ID(), recordFields(rec))
		}
		if err := table.Flush(); err != nil {
			return err
		}
		fmt.Println(ui.Muted.Sprintf("%d records", len(result.Records)))
		return nil
	},
}

// recordFields renders a record without its id and owner as compact JSON.
func recordFields(rec store.Record) string {
	rest := make(store.Record, len(rec))
	for k, v := range rec {
		if k == store.IDField || k == store.OwnerField {
			continue
		}
		rest[k] = v
	}

	data, err := json.Marshal(rest)
	if err != nil {
		return ui.Error.Sprint("unprintable")
	}
	return string(data)
}
