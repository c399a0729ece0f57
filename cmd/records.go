package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	logger "github.com/PolarWolf314/instivault/internal/logging"
	"github.com/PolarWolf314/instivault/internal/store"
	"github.com/PolarWolf314/instivault/internal/utils"
	"github.com/spf13/cobra"
)

var (
	recordsVerbose bool
	recordsDebug   bool
	RecordsLogger  logger.Logger

	// RecordsCmd is the top-level records command.
	RecordsCmd = &cobra.Command{
		Use:   "records",
		Short: "Work with the records you own",
		Long: `Lists and edits records in the record store. Every command only sees records
owned by your email.

Collections: ` + strings.Join(store.Collections, ", ") + `

Examples:
  instivault records list students
  instivault records add students --data '{"id":"s1","name":"Asha"}'
  echo '{"status":"called"}' | instivault records update enquiries e1
  instivault records remove payments p1`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			RecordsLogger = logger.Logger{
				Verbose: recordsVerbose,
				Debug:   recordsDebug,
			}
			RecordsLogger.Debugf("Initializing records command with verbose=%t, debug=%t", recordsVerbose, recordsDebug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if recordsDebug {
				printMetrics(cmd.ErrOrStderr())
			}
		},
	}
)

func init() {
	RecordsCmd.PersistentFlags().BoolVarP(&recordsVerbose, "verbose", "v", false, "enable verbose output")
	RecordsCmd.PersistentFlags().BoolVarP(&recordsDebug, "debug", "d", false, "enable debug output")

	RecordsCmd.AddCommand(recordsListCmd)
	RecordsCmd.AddCommand(recordsAddCmd)
	RecordsCmd.AddCommand(recordsUpdateCmd)
	RecordsCmd.AddCommand(recordsRemoveCmd)
}

// GetRecordsCmd returns the RecordsCmd for testing.
func GetRecordsCmd() *cobra.Command {
	return RecordsCmd
}

// ResetRecordsState resets all records command globals to their defaults for testing.
func ResetRecordsState() {
	recordsVerbose = false
	recordsDebug = false
	resetRecordsListState()
	resetRecordsDataState()
	resetCobraFlagState(RecordsCmd)
}

// collectionArg checks that the first argument names a known collection.
func collectionArg(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return err
		}
		if !slices.Contains(store.Collections, args[0]) {
			return fmt.Errorf("unknown collection %q, expected one of: %s", args[0], strings.Join(store.Collections, ", "))
		}
		return nil
	}
}

// readRecordInput decodes a record from the --data flag, or from stdin when
// the flag is empty. Numbers keep their original precision.
func readRecordInput(data string) (store.Record, error) {
	raw := []byte(data)
	if data == "" || data == "-" {
		var err error
		raw, err = utils.ReadStdin()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidRecord, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rec store.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: record must be a JSON object: %v", kerrors.ErrInvalidRecord, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: record must be a JSON object", kerrors.ErrInvalidRecord)
	}
	return rec, nil
}
