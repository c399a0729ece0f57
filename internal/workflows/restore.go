package workflows

import (
	"context"

	"github.com/PolarWolf314/instivault/internal/audit"
	"github.com/PolarWolf314/instivault/internal/backup"
	logger "github.com/PolarWolf314/instivault/internal/logging"
	"github.com/PolarWolf314/instivault/internal/store"
	"github.com/PolarWolf314/instivault/internal/utils"
)

// RestoreOptions configures the restore workflow.
type RestoreOptions struct {
	// Path is the backup file to read, or "-" for stdin. Ignored when Data is set.
	Path string

	// Data is the serialized envelope.
	Data []byte

	// DryRun decrypts and validates the backup without writing anything.
	DryRun bool

	// Store overrides the configured record store.
	Store store.RecordStore

	// Logger receives per-collection progress.
	Logger logger.Logger
}

// RestoreResult contains the outcome of a restore operation.
type RestoreResult struct {
	Identity string
	Metadata backup.Metadata

	// Counts is the number of records per collection in the backup.
	Counts map[string]int

	// Collections is the per-collection outcome. Empty for a dry run.
	Collections []backup.CollectionResult

	// After is the record count per collection once the restore finished.
	After map[string]int

	// RefreshErr is set when the post-restore count failed.
	RefreshErr error

	DryRun bool
}

// Written returns the number of records written.
func (r *RestoreResult) Written() int {
	n := 0
	for _, c := range r.Collections {
		if c.Err == nil {
			n += c.Records
		}
	}
	return n
}

// Restore decrypts a backup with the current identity and upserts its
// collections into the record store.
//
// Returns ErrInvalidFormat if the file is not a backup.
// Returns ErrAccessDenied if the backup was made under a different identity.
// In both cases nothing is written.
// Returns a non-nil result together with ErrPartialRestore when some
// collections failed; the others stay written.
func Restore(ctx context.Context, opts RestoreOptions) (*RestoreResult, error) {
	data := opts.Data
	if data == nil {
		var err error
		data, err = utils.ReadInputFile(opts.Path)
		if err != nil {
			return nil, err
		}
	}

	sess, err := openSession(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	result := &RestoreResult{
		Identity: sess.identity,
		DryRun:   opts.DryRun,
	}

	refresh := func(ctx context.Context, identity string) error {
		counts, err := countRecords(ctx, sess.store, identity)
		if err != nil {
			return err
		}
		result.After = counts
		return nil
	}

	u := backup.NewUnarchiver(sess.store,
		backup.WithRefresher(refresh),
		backup.WithLogger(opts.Logger),
	)

	auditEntry := audit.LogWithUser(audit.OpRestore, sess.identity)
	auditEntry.DryRun = opts.DryRun

	if opts.DryRun {
		payload, err := u.Open(ctx, data, sess.identity)
		if err != nil {
			auditEntry.Error = err.Error()
			audit.Log(auditEntry)
			return nil, err
		}
		result.Metadata = payload.Metadata
		result.Counts = payload.Data.Counts()

		auditEntry.BackupID = payload.Metadata.BackupID
		auditEntry.Counts = result.Counts
		audit.Log(auditEntry)
		return result, nil
	}

	restored, err := u.Restore(ctx, data, sess.identity)
	if err != nil && restored == nil {
		auditEntry.Error = err.Error()
		audit.Log(auditEntry)
		return nil, err
	}

	result.Metadata = restored.Payload.Metadata
	result.Counts = restored.Payload.Data.Counts()
	result.Collections = restored.Collections
	result.RefreshErr = restored.RefreshErr

	auditEntry.BackupID = result.Metadata.BackupID
	auditEntry.Counts = result.Counts
	for _, c := range restored.Failed() {
		auditEntry.Failed = append(auditEntry.Failed, c.Name)
	}
	if err == nil {
		err = restored.Err()
	}
	if err != nil {
		auditEntry.Error = err.Error()
	}
	audit.Log(auditEntry)

	return result, err
}
