// Package workflows provides high-level orchestration for instivault commands.
//
// Workflows coordinate configs, the record store, backup, sinks and audit to
// implement complete user-facing features. Each workflow handles a single
// command's business logic, independent of CLI concerns like flag parsing,
// spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Loading configuration and resolving the identity
//   - Opening the record store
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Backup: exports the identity's records and delivers a sealed envelope
//   - Restore: decrypts a backup and upserts it (or validates it with DryRun)
//   - Inspect: reports what an envelope reveals without decrypting it
//   - Status: identity and per-collection record counts
//   - ListRecords, AddRecord, UpdateRecord, RemoveRecord: direct record access
//   - Log: reads the audit trail
//   - ConfigInit, ConfigShow: user configuration
//
// Every store-backed workflow accepts a Store option so tests and embedders
// can supply their own record store; otherwise the configured one is opened
// and closed around the call.
//
// # Error Handling
//
// Workflows return sentinel errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching:
//
//	result, err := workflows.Restore(ctx, opts)
//	if errors.Is(err, kerrors.ErrAccessDenied) {
//	    // Backup belongs to someone else
//	}
//
// Restore may return both a result and ErrPartialRestore; the result says
// which collections were written.
package workflows
