package backup

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	logger "github.com/PolarWolf314/instivault/internal/logging"
	"github.com/PolarWolf314/instivault/internal/secrets"
	"github.com/PolarWolf314/instivault/internal/store"
)

// Refresher reloads domain state after a restore has written to the store.
type Refresher func(ctx context.Context, identity string) error

// UnarchiverOption configures an Unarchiver.
type UnarchiverOption func(*Unarchiver)

// WithRefresher sets the function called once all collections are written.
func WithRefresher(r Refresher) UnarchiverOption {
	return func(u *Unarchiver) {
		u.refresh = r
	}
}

// WithLogger sets the logger used for per-collection progress.
func WithLogger(l logger.Logger) UnarchiverOption {
	return func(u *Unarchiver) {
		u.log = l
	}
}

// Unarchiver opens envelopes and writes their contents back to a store.
type Unarchiver struct {
	store   store.RecordStore
	refresh Refresher
	log     logger.Logger
}

// NewUnarchiver returns an Unarchiver writing to s.
func NewUnarchiver(s store.RecordStore, opts ...UnarchiverOption) *Unarchiver {
	u := &Unarchiver{store: s}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// CollectionResult is the outcome of restoring one collection.
type CollectionResult struct {
	Name    string
	Records int
	Err     error
}

// RestoreResult describes a restore that got past decryption.
type RestoreResult struct {
	Payload     *Payload
	Collections []CollectionResult

	// RefreshErr is set when writes finished but reloading state failed.
	RefreshErr error
}

// Failed returns the collections whose upsert failed.
func (r *RestoreResult) Failed() []CollectionResult {
	var failed []CollectionResult
	for _, c := range r.Collections {
		if c.Err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}

// Written returns the number of records written successfully.
func (r *RestoreResult) Written() int {
	n := 0
	for _, c := range r.Collections {
		if c.Err == nil {
			n += c.Records
		}
	}
	return n
}

// Err returns nil when every collection was written, otherwise an error
// matching ErrPartialRestore that joins each collection's failure.
func (r *RestoreResult) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}

	errs := make([]error, 0, len(failed)+1)
	errs = append(errs, kerrors.ErrPartialRestore)
	for _, c := range failed {
		errs = append(errs, fmt.Errorf("%s: %w", c.Name, c.Err))
	}
	return errors.Join(errs...)
}

// Open parses envelopeJSON and decrypts it under a key derived from identity.
// It never touches the store.
//
// Returns ErrInvalidFormat for a malformed envelope or payload and
// ErrAccessDenied when the backup is locked to a different identity.
func (u *Unarchiver) Open(ctx context.Context, envelopeJSON []byte, identity string) (*Payload, error) {
	env, err := ParseEnvelope(envelopeJSON)
	if err != nil {
		return nil, err
	}

	// The current identity decides, never env.Info.
	key, err := secrets.DeriveKeyContext(ctx, identity, env.Salt)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	defer key.Wipe()

	plaintext, err := secrets.Decrypt(env.CipherText, env.IV, key)
	if err != nil {
		return nil, err
	}
	defer wipe(plaintext)

	return parsePayload(plaintext)
}

// Restore opens envelopeJSON and upserts every collection it contains into the
// store, stamping identity as the owner of each record.
//
// Any failure before the first write aborts with no changes. Once writing
// starts, collections are upserted independently: a failing collection is
// recorded in the result and the rest still run. There is no rollback across
// collections.
func (u *Unarchiver) Restore(ctx context.Context, envelopeJSON []byte, identity string) (*RestoreResult, error) {
	if u.store == nil {
		return nil, fmt.Errorf("%w: unarchiver has no record store", kerrors.ErrStoreUnavailable)
	}

	payload, err := u.Open(ctx, envelopeJSON, identity)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{Payload: payload}

	for _, name := range payload.Data.Names() {
		recs := payload.Data[name]
		for _, rec := range recs {
			rec[store.OwnerField] = identity
		}

		cr := CollectionResult{Name: name, Records: len(recs)}
		if err := ctx.Err(); err != nil {
			cr.Err = err
		} else if err := u.store.Upsert(ctx, name, recs); err != nil {
			cr.Err = err
			u.log.Warnf("Failed to restore %s: %v", name, err)
		} else {
			u.log.Infof("Restored %d record(s) into %s", len(recs), name)
		}
		result.Collections = append(result.Collections, cr)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if u.refresh != nil {
		if err := u.refresh(ctx, identity); err != nil {
			result.RefreshErr = err
			u.log.Warnf("Failed to refresh state after restore: %v", err)
		}
	}

	return result, nil
}
