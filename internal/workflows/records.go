package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/instivault/internal/audit"
	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/store"
)

// ListRecordsOptions configures the records list workflow.
type ListRecordsOptions struct {
	Collection string

	// ID limits the result to one record.
	ID string

	Store store.RecordStore
}

// ListRecordsResult contains the records owned by the current identity.
type ListRecordsResult struct {
	Identity   string
	Collection string
	Records    []store.Record
}

// ListRecords returns the records in a collection owned by the current identity.
//
// Returns ErrRecordNotFound if ID is set and no such record exists.
func ListRecords(ctx context.Context, opts ListRecordsOptions) (*ListRecordsResult, error) {
	sess, err := openSession(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	recs, err := sess.store.Select(ctx, opts.Collection, store.Filter{Owner: sess.identity, ID: opts.ID})
	if err != nil {
		return nil, err
	}
	if opts.ID != "" && len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", kerrors.ErrRecordNotFound, opts.Collection, opts.ID)
	}

	return &ListRecordsResult{
		Identity:   sess.identity,
		Collection: opts.Collection,
		Records:    recs,
	}, nil
}

// AddRecordOptions configures the records add workflow.
type AddRecordOptions struct {
	Collection string

	// Record is stored as given, owned by the current identity. An id is
	// generated when missing.
	Record store.Record

	Store store.RecordStore
}

// AddRecordResult contains the stored record.
type AddRecordResult struct {
	Identity string
	Record   store.Record
}

// AddRecord inserts a record owned by the current identity.
//
// Returns ErrInvalidRecord if the record is empty.
func AddRecord(ctx context.Context, opts AddRecordOptions) (*AddRecordResult, error) {
	if len(opts.Record) == 0 {
		return nil, fmt.Errorf("%w: record has no fields", kerrors.ErrInvalidRecord)
	}

	sess, err := openSession(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	rec := make(store.Record, len(opts.Record)+1)
	for k, v := range opts.Record {
		rec[k] = v
	}
	rec[store.OwnerField] = sess.identity

	if err := sess.store.Insert(ctx, opts.Collection, rec); err != nil {
		return nil, err
	}

	logRecordChange(audit.OpRecordAdd, sess.identity, opts.Collection, rec.ID())

	return &AddRecordResult{Identity: sess.identity, Record: rec}, nil
}

// UpdateRecordOptions configures the records update workflow.
type UpdateRecordOptions struct {
	Collection string
	ID         string

	// Patch fields replace the stored ones. id and ownerEmail are ignored.
	Patch store.Record

	Store store.RecordStore
}

// UpdateRecord merges a patch into a record owned by the current identity.
//
// Returns ErrRecordNotFound if no such record exists.
func UpdateRecord(ctx context.Context, opts UpdateRecordOptions) error {
	if opts.ID == "" {
		return fmt.Errorf("%w: record id is required", kerrors.ErrInvalidRecord)
	}

	sess, err := openSession(ctx, opts.Store)
	if err != nil {
		return err
	}
	defer sess.close()

	if err := sess.store.Update(ctx, opts.Collection, sess.identity, opts.ID, opts.Patch); err != nil {
		return err
	}

	logRecordChange(audit.OpRecordUpdate, sess.identity, opts.Collection, opts.ID)
	return nil
}

// RemoveRecordOptions configures the records remove workflow.
type RemoveRecordOptions struct {
	Collection string
	ID         string
	Store      store.RecordStore
}

// RemoveRecord deletes a record owned by the current identity.
//
// Returns ErrRecordNotFound if no such record exists.
func RemoveRecord(ctx context.Context, opts RemoveRecordOptions) error {
	if opts.ID == "" {
		return fmt.Errorf("%w: record id is required", kerrors.ErrInvalidRecord)
	}

	sess, err := openSession(ctx, opts.Store)
	if err != nil {
		return err
	}
	defer sess.close()

	if err := sess.store.Delete(ctx, opts.Collection, sess.identity, opts.ID); err != nil {
		return err
	}

	logRecordChange(audit.OpRecordRemove, sess.identity, opts.Collection, opts.ID)
	return nil
}

func logRecordChange(op, identity, collection, id string) {
	entry := audit.LogWithUser(op, identity)
	entry.Collection = collection
	entry.RecordID = id
	audit.Log(entry)
}
