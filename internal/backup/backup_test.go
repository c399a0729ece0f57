package backup

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	logger "github.com/PolarWolf314/instivault/internal/logging"
	"github.com/PolarWolf314/instivault/internal/secrets"
	"github.com/PolarWolf314/instivault/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin = "admin@x.com"
	other = "other@y.com"
)

func sealFor(t *testing.T, snapshot Snapshot, identity string) []byte {
	t.Helper()
	env, err := NewPackager(nil).CreateBackup(context.Background(), snapshot, identity)
	require.NoError(t, err)
	data, err := env.Marshal()
	require.NoError(t, err)
	return data
}

// sealPlaintext encrypts an arbitrary payload the way CreateBackup would.
func sealPlaintext(t *testing.T, plaintext, identity string) []byte {
	t.Helper()
	salt, err := secrets.GenerateSalt()
	require.NoError(t, err)
	key, err := secrets.DeriveKey(identity, salt)
	require.NoError(t, err)
	defer key.Wipe()
	sealed, err := secrets.Encrypt([]byte(plaintext), key)
	require.NoError(t, err)
	return mustMarshal(t, &Envelope{
		Version:    FormatVersion,
		Salt:       salt,
		IV:         sealed.IV,
		CipherText: sealed.CipherText,
		Info:       infoPrefix + identity,
	})
}

func TestCreateBackup_NilRecord(t *testing.T) {
	_, err := NewPackager(nil).CreateBackup(context.Background(), Snapshot{"students": {nil, {"id": "1"}}}, admin)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrInvalidRecord), "got %v", err)
}

func TestRestore_NonObjectRecordsWriteNothing(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
	}{
		{"null record", `{"metadata":{},"data":{"attendance":[{"id":"a"}],"students":[null,{"id":"1"}]}}`},
		{"string record", `{"metadata":{},"data":{"attendance":[{"id":"a"}],"students":["oops"]}}`},
		{"number record", `{"metadata":{},"data":{"attendance":[{"id":"a"}],"students":[7]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newRecordingStore()
			refreshed := false
			u := NewUnarchiver(s, WithRefresher(func(context.Context, string) error {
				refreshed = true
				return nil
			}))

			var result *RestoreResult
			var err error
			require.NotPanics(t, func() {
				result, err = u.Restore(context.Background(), sealPlaintext(t, tt.plaintext, admin), admin)
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, kerrors.ErrInvalidFormat), "got %v", err)
			assert.Nil(t, result)
			assert.Empty(t, s.calls())
			assert.False(t, refreshed)
		})
	}
}

func TestCreateBackup_Envelope(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPackager(nil, WithAppName("institute"), WithClock(func() time.Time { return fixed }))

	env, err := p.CreateBackup(context.Background(), Snapshot{"students": {{"id": "1"}}}, admin)
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, env.Version)
	assert.Equal(t, "Locked to: "+admin, env.Info)
	assert.NotEmpty(t, env.Salt)
	assert.NotEmpty(t, env.IV)
	assert.NotEmpty(t, env.CipherText)

	payload, err := NewUnarchiver(nil).Open(context.Background(), mustMarshal(t, env), admin)
	require.NoError(t, err)
	assert.Equal(t, "institute", payload.Metadata.App)
	assert.Equal(t, admin, payload.Metadata.LockedTo)
	assert.Equal(t, fixed.Format(time.RFC3339Nano), payload.Metadata.Timestamp)
	assert.NotEmpty(t, payload.Metadata.BackupID)
	assert.Equal(t, map[string]int{"students": 1}, payload.Metadata.Counts)
}

func TestCreateBackup_EmptyIdentity(t *testing.T) {
	_, err := NewPackager(nil).CreateBackup(context.Background(), Snapshot{}, "")
	assert.True(t, errors.Is(err, kerrors.ErrEmptyIdentity))
}

func TestCreateBackup_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPackager(nil).CreateBackup(ctx, Snapshot{}, admin)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		identity string
	}{
		{
			name:     "single collection",
			snapshot: Snapshot{"students": {{"id": "1", "name": "A"}}},
			identity: admin,
		},
		{
			name: "several collections",
			snapshot: Snapshot{
				"students": {{"id": "1", "name": "A"}, {"id": "2", "name": "B", "tags": []any{"x", "y"}}},
				"payments": {{"id": "p1", "note": "paid in full", "details": map[string]any{"mode": "upi"}}},
				"courses":  {},
			},
			identity: admin,
		},
		{
			name:     "unicode identity and data",
			snapshot: Snapshot{"staff": {{"id": "s1", "name": "Ankita Sharma"}}},
			identity: "प्रशासक@संस्थान.भारत",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := sealFor(t, tt.snapshot, tt.identity)

			payload, err := NewUnarchiver(nil).Open(context.Background(), data, tt.identity)
			require.NoError(t, err)
			assert.Equal(t, tt.snapshot.normalized(), payload.Data)
		})
	}
}

func TestRoundTrip_NumbersKeepPrecision(t *testing.T) {
	data := sealFor(t, Snapshot{"payments": {{"id": "1", "amount": 12345678901234567}}}, admin)

	payload, err := NewUnarchiver(nil).Open(context.Background(), data, admin)
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567"), payload.Data["payments"][0]["amount"])
}

func TestEmptyPayload(t *testing.T) {
	data := sealFor(t, Snapshot{}, admin)

	s := newRecordingStore()
	result, err := NewUnarchiver(s).Restore(context.Background(), data, admin)
	require.NoError(t, err)
	require.NoError(t, result.Err())
	assert.Empty(t, result.Payload.Data)
	assert.Empty(t, s.calls())
}

func TestCrossIdentityDenied(t *testing.T) {
	data := sealFor(t, Snapshot{"students": {{"id": "1", "name": "A"}}}, admin)

	for _, identity := range []string{other, "Admin@x.com", "admin@x.com ", "x"} {
		t.Run(identity, func(t *testing.T) {
			_, err := NewUnarchiver(nil).Open(context.Background(), data, identity)
			require.Error(t, err)
			assert.True(t, errors.Is(err, kerrors.ErrAccessDenied), "got %v", err)
		})
	}
}

func TestInfoIsIgnored(t *testing.T) {
	env, err := NewPackager(nil).CreateBackup(context.Background(), Snapshot{}, admin)
	require.NoError(t, err)
	env.Info = "Locked to: " + other

	_, err = NewUnarchiver(nil).Open(context.Background(), mustMarshal(t, env), other)
	assert.True(t, errors.Is(err, kerrors.ErrAccessDenied))

	_, err = NewUnarchiver(nil).Open(context.Background(), mustMarshal(t, env), admin)
	assert.NoError(t, err)
}

func TestSaltAndIVFresh(t *testing.T) {
	snapshot := Snapshot{"students": {{"id": "1"}}}
	p := NewPackager(nil)

	a, err := p.CreateBackup(context.Background(), snapshot, admin)
	require.NoError(t, err)
	b, err := p.CreateBackup(context.Background(), snapshot, admin)
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.CipherText, b.CipherText)
}

func TestMalformedInput(t *testing.T) {
	valid := &Envelope{}
	require.NoError(t, json.Unmarshal(sealFor(t, Snapshot{}, admin), valid))

	noCipher := *valid
	noCipher.CipherText = ""

	badSalt := *valid
	badSalt.Salt = "not base64!"

	shortSalt := *valid
	shortSalt.Salt = "c2FsdA=="

	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{"not json", []byte("definitely not json"), kerrors.ErrInvalidFormat},
		{"empty", []byte(""), kerrors.ErrInvalidFormat},
		{"missing cipherText", mustMarshal(t, &noCipher), kerrors.ErrInvalidFormat},
		{"salt not base64", mustMarshal(t, &badSalt), kerrors.ErrDecoding},
		{"salt too short", mustMarshal(t, &shortSalt), kerrors.ErrDecoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newRecordingStore()
			_, err := NewUnarchiver(s).Restore(context.Background(), tt.input, admin)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Empty(t, s.calls())
		})
	}
}

func TestFullCycle(t *testing.T) {
	data := sealFor(t, Snapshot{"students": {{"id": "1", "name": "A"}}}, admin)

	s := newRecordingStore()
	refreshed := ""
	u := NewUnarchiver(s, WithRefresher(func(_ context.Context, identity string) error {
		refreshed = identity
		return nil
	}))

	result, err := u.Restore(context.Background(), data, admin)
	require.NoError(t, err)
	require.NoError(t, result.Err())
	assert.Equal(t, 1, result.Written())
	assert.Equal(t, admin, refreshed)

	calls := s.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "students", calls[0].Collection)
	assert.Equal(t, []store.Record{{"id": "1", "name": "A", "ownerEmail": admin}}, calls[0].Records)
}

func TestWrongIdentityNeverWrites(t *testing.T) {
	data := sealFor(t, Snapshot{"students": {{"id": "1", "name": "A"}}}, admin)

	s := newRecordingStore()
	refreshed := false
	u := NewUnarchiver(s, WithRefresher(func(context.Context, string) error {
		refreshed = true
		return nil
	}))

	result, err := u.Restore(context.Background(), data, other)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrAccessDenied))
	assert.Nil(t, result)
	assert.Empty(t, s.calls())
	assert.False(t, refreshed)
}

func TestRestore_OwnerRestamped(t *testing.T) {
	data := sealFor(t, Snapshot{"students": {{"id": "1", "ownerEmail": "someone@else.com"}}}, admin)

	s := newRecordingStore()
	_, err := NewUnarchiver(s).Restore(context.Background(), data, admin)
	require.NoError(t, err)

	calls := s.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, admin, calls[0].Records[0].Owner())
}

func TestRestore_PartialFailure(t *testing.T) {
	data := sealFor(t, Snapshot{
		"batches":  {{"id": "b1"}},
		"payments": {{"id": "p1"}, {"id": "p2"}},
		"students": {{"id": "s1"}},
	}, admin)

	s := newRecordingStore()
	s.failOn["payments"] = errors.New("connection reset")

	refreshed := false
	u := NewUnarchiver(s,
		WithLogger(logger.Logger{}),
		WithRefresher(func(context.Context, string) error {
			refreshed = true
			return nil
		}),
	)

	result, err := u.Restore(context.Background(), data, admin)
	require.NoError(t, err)
	require.Len(t, result.Collections, 3)
	assert.Len(t, s.calls(), 3, "every collection is attempted")
	assert.True(t, refreshed)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "payments", failed[0].Name)
	assert.Equal(t, 2, result.Written())

	err = result.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrPartialRestore))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRestore_RefreshFailure(t *testing.T) {
	data := sealFor(t, Snapshot{"students": {{"id": "1"}}}, admin)

	u := NewUnarchiver(newRecordingStore(), WithRefresher(func(context.Context, string) error {
		return errors.New("reload failed")
	}))

	result, err := u.Restore(context.Background(), data, admin)
	require.NoError(t, err)
	assert.NoError(t, result.Err())
	assert.EqualError(t, result.RefreshErr, "reload failed")
}

func TestRestore_NoStore(t *testing.T) {
	_, err := NewUnarchiver(nil).Restore(context.Background(), sealFor(t, Snapshot{}, admin), admin)
	assert.True(t, errors.Is(err, kerrors.ErrStoreUnavailable))
}

func TestExport(t *testing.T) {
	s := newRecordingStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "students", store.Record{"id": "1", "ownerEmail": admin}))
	require.NoError(t, s.Insert(ctx, "students", store.Record{"id": "2", "ownerEmail": other}))
	require.NoError(t, s.Insert(ctx, "courses", store.Record{"id": "c1", "ownerEmail": admin}))

	env, sealed, err := NewPackager(s, WithCollections("students", "courses", "staff")).Export(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"students": 1, "courses": 1, "staff": 0}, sealed.Metadata.Counts)
	assert.Equal(t, 2, sealed.Data.Total())
	assert.NotEmpty(t, sealed.Metadata.BackupID)

	payload, err := NewUnarchiver(nil).Open(ctx, mustMarshal(t, env), admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"courses", "staff", "students"}, payload.Data.Names())
	assert.Empty(t, payload.Data["staff"])
	assert.Equal(t, sealed.Metadata.BackupID, payload.Metadata.BackupID)
}

func mustMarshal(t *testing.T, env *Envelope) []byte {
	t.Helper()
	data, err := env.Marshal()
	require.NoError(t, err)
	return data
}
