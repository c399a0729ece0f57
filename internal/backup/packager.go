package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/secrets"
	"github.com/PolarWolf314/instivault/internal/store"

	"github.com/google/uuid"
)

// PackagerOption configures a Packager.
type PackagerOption func(*Packager)

// WithAppName sets Metadata.App.
func WithAppName(name string) PackagerOption {
	return func(p *Packager) {
		p.app = name
	}
}

// WithClock overrides the clock used for Metadata.Timestamp.
func WithClock(now func() time.Time) PackagerOption {
	return func(p *Packager) {
		p.now = now
	}
}

// WithCollections sets which collections Export reads. Defaults to store.Collections.
func WithCollections(names ...string) PackagerOption {
	return func(p *Packager) {
		p.collections = names
	}
}

// Packager turns domain records into sealed envelopes. It never mutates the
// store it reads from.
type Packager struct {
	store       store.RecordStore
	app         string
	now         func() time.Time
	collections []string
}

// NewPackager returns a Packager reading from s. s may be nil if only
// CreateBackup is used.
func NewPackager(s store.RecordStore, opts ...PackagerOption) *Packager {
	p := &Packager{
		store:       s,
		app:         DefaultAppName,
		now:         time.Now,
		collections: store.Collections,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Export reads every configured collection owned by identity and seals it.
// The returned payload is what was sealed, for reporting counts and the
// backup id.
func (p *Packager) Export(ctx context.Context, identity string) (*Envelope, *Payload, error) {
	if p.store == nil {
		return nil, nil, fmt.Errorf("%w: packager has no record store", kerrors.ErrStoreUnavailable)
	}

	snapshot := make(Snapshot, len(p.collections))
	for _, name := range p.collections {
		recs, err := p.store.Select(ctx, name, store.Filter{Owner: identity})
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		snapshot[name] = recs
	}

	return p.seal(ctx, snapshot, identity)
}

// CreateBackup seals snapshot under a key derived from identity and a fresh
// salt. The returned envelope is ready to Marshal and hand to a sink.
func (p *Packager) CreateBackup(ctx context.Context, snapshot Snapshot, identity string) (*Envelope, error) {
	env, _, err := p.seal(ctx, snapshot, identity)
	return env, err
}

func (p *Packager) seal(ctx context.Context, snapshot Snapshot, identity string) (*Envelope, *Payload, error) {
	if identity == "" {
		return nil, nil, kerrors.ErrEmptyIdentity
	}
	if name, i, ok := snapshot.firstNilRecord(); ok {
		return nil, nil, fmt.Errorf("%w: record %d in %s is nil", kerrors.ErrInvalidRecord, i, name)
	}

	data := snapshot.normalized()
	payload := Payload{
		Metadata: Metadata{
			App:       p.app,
			Timestamp: p.now().UTC().Format(time.RFC3339Nano),
			LockedTo:  identity,
			BackupID:  uuid.New().String(),
			Counts:    data.Counts(),
		},
		Data: data,
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encoding payload: %v", kerrors.ErrInvalidFormat, err)
	}
	defer wipe(plaintext)

	salt, err := secrets.GenerateSalt()
	if err != nil {
		return nil, nil, err
	}

	key, err := secrets.DeriveKeyContext(ctx, identity, salt)
	if err != nil {
		return nil, nil, fmt.Errorf("deriving key: %w", err)
	}
	defer key.Wipe()

	sealed, err := secrets.Encrypt(plaintext, key)
	if err != nil {
		return nil, nil, err
	}

	env := &Envelope{
		Version:    FormatVersion,
		Salt:       salt,
		IV:         sealed.IV,
		CipherText: sealed.CipherText,
		Info:       infoPrefix + identity,
	}
	return env, &payload, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
