package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/PolarWolf314/instivault/internal/secrets"
	"github.com/PolarWolf314/instivault/internal/ui"
	"github.com/briandowns/spinner"
	"github.com/rcrowley/go-metrics"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
// Uses the global debug flag from the backup command.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	return startSpinnerWithFlags(message, verbose, debug)
}

// startSpinnerWithFlags creates and starts a spinner with explicit verbose and debug flags.
// This is useful for commands that have their own flag variables (e.g., records and config commands).
func startSpinnerWithFlags(message string, verbose, debugFlag bool) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")

	quiet := !verbose && !debugFlag
	if quiet {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// printMetrics writes a summary of every instivault timer that has fired.
func printMetrics(out io.Writer) {
	type row struct {
		name  string
		timer metrics.Timer
	}

	var rows []row
	metrics.DefaultRegistry.Each(func(name string, i interface{}) {
		timer, ok := i.(metrics.Timer)
		if !ok || !strings.HasPrefix(name, secrets.MetricsPrefix+".") {
			return
		}
		if timer.Count() == 0 {
			return
		}
		rows = append(rows, row{strings.TrimPrefix(name, secrets.MetricsPrefix+"."), timer})
	})
	if len(rows) == 0 {
		return
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Info.Sprint("Timings"))
	table := ui.NewTable(out, "operation", "count", "mean", "max", "p95")
	for _, r := range rows {
		snapshot := r.timer.Snapshot()
		table.Row(
			r.name,
			fmt.Sprint(snapshot.Count()),
			time.Duration(snapshot.Mean()).String(),
			time.Duration(snapshot.Max()).String(),
			time.Duration(snapshot.Percentile(0.95)).String(),
		)
	}
	_ = table.Flush()
}
