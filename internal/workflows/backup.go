package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/PolarWolf314/instivault/internal/audit"
	"github.com/PolarWolf314/instivault/internal/backup"
	"github.com/PolarWolf314/instivault/internal/configs"
	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/sinks"
	"github.com/PolarWolf314/instivault/internal/store"
	"github.com/PolarWolf314/instivault/internal/utils"
)

// BackupOptions configures the backup workflow.
type BackupOptions struct {
	// Sink is the destination ("file", "email" or "s3"). Empty uses
	// [backup].default_sink.
	Sink string

	// Output is the backup file name, or a path for the file sink. Empty
	// uses institute-backup-YYYY-MM-DD.enc.
	Output string

	// Force overwrites an existing file.
	Force bool

	// Store overrides the configured record store.
	Store store.RecordStore

	// Deliverer overrides the sink built from configuration.
	Deliverer sinks.Sink
}

// BackupResult contains the outcome of a backup operation.
type BackupResult struct {
	Identity string
	BackupID string

	// Counts is the number of records per collection included.
	Counts map[string]int
	Total  int

	// Size is the serialized envelope length in characters.
	Size int

	Sink     string
	Location string
}

// Backup exports every collection owned by the current identity, seals it
// and hands the envelope to a sink.
//
// Returns ErrUnknownSink for an unsupported sink name.
// Returns ErrSizeLimit if the sink cannot take a backup this large.
// Returns ErrFileExists if the output file exists and Force is false.
func Backup(ctx context.Context, opts BackupOptions) (*BackupResult, error) {
	sess, err := openSession(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	sink := opts.Deliverer
	if sink == nil {
		sinkName := opts.Sink
		if sinkName == "" {
			sinkName = sess.config.Backup.DefaultSink
		}
		sink, err = buildSink(ctx, sess.config, sinkName, opts.Force)
		if err != nil {
			return nil, err
		}
	}

	name := opts.Output
	if name == "" {
		name = utils.DefaultBackupName(time.Now())
	}

	env, payload, err := backup.NewPackager(sess.store).Export(ctx, sess.identity)
	if err != nil {
		return nil, err
	}

	data, err := env.Marshal()
	if err != nil {
		return nil, err
	}
	size, err := env.Size()
	if err != nil {
		return nil, err
	}

	auditEntry := audit.LogWithUser(audit.OpBackup, sess.identity)
	auditEntry.Sink = sink.Name()
	auditEntry.BackupID = payload.Metadata.BackupID
	auditEntry.Counts = payload.Metadata.Counts

	location, err := sink.Deliver(ctx, name, data)
	if err != nil {
		auditEntry.Error = err.Error()
		audit.Log(auditEntry)
		return nil, err
	}

	auditEntry.Location = location
	audit.Log(auditEntry)

	return &BackupResult{
		Identity: sess.identity,
		BackupID: payload.Metadata.BackupID,
		Counts:   payload.Metadata.Counts,
		Total:    payload.Data.Total(),
		Size:     size,
		Sink:     sink.Name(),
		Location: location,
	}, nil
}

// buildSink constructs the named sink from configuration.
func buildSink(ctx context.Context, config *configs.UserConfig, name string, force bool) (sinks.Sink, error) {
	if err := sinks.ValidateName(name); err != nil {
		return nil, err
	}

	switch name {
	case sinks.EmailSinkName:
		email := config.Sinks.Email
		return sinks.NewEmailSink(email.Endpoint, email.Recipient, sinks.WithLimit(email.Limit))
	case sinks.S3SinkName:
		s3 := config.Sinks.S3
		return sinks.NewS3Sink(ctx, s3.Bucket, s3.Prefix, s3.Region)
	case sinks.FileSinkName:
		return &sinks.FileSink{Dir: config.Backup.OutputDir, Force: force}, nil
	}

	return nil, fmt.Errorf("%w: %q", kerrors.ErrUnknownSink, name)
}
