package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "admin@x.com"

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStore_InsertSelect(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Insert(ctx, "students", Record{"id": "2", "name": "B", OwnerField: owner}))
	require.NoError(t, s.Insert(ctx, "students", Record{"id": "1", "name": "A", OwnerField: owner}))
	require.NoError(t, s.Insert(ctx, "students", Record{"id": "1", "name": "X", OwnerField: "other@y.com"}))

	recs, err := s.Select(ctx, "students", Filter{Owner: owner})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "1", recs[0].ID())
	assert.Equal(t, "A", recs[0]["name"])
	assert.Equal(t, "2", recs[1].ID())

	one, err := s.Select(ctx, "students", Filter{Owner: "other@y.com", ID: "1"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "X", one[0]["name"])
}

func TestSQLStore_SelectEmpty(t *testing.T) {
	s := newTestStore(t)

	recs, err := s.Select(context.Background(), "courses", Filter{Owner: owner})
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	none, err := s.Select(context.Background(), "courses", Filter{Owner: owner, ID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLStore_SelectRequiresOwner(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Select(context.Background(), "students", Filter{})
	assert.ErrorIs(t, err, kerrors.ErrInvalidRecord)
}

func TestSQLStore_InsertGeneratesID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := Record{"name": "no id", OwnerField: owner}
	require.NoError(t, s.Insert(ctx, "enquiries", rec))
	assert.Len(t, rec.ID(), 36)

	recs, err := s.Select(ctx, "enquiries", Filter{Owner: owner})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID(), recs[0].ID())
}

func TestSQLStore_InsertRejectsMissingOwner(t *testing.T) {
	s := newTestStore(t)

	err := s.Insert(context.Background(), "students", Record{"id": "1"})
	assert.ErrorIs(t, err, kerrors.ErrInvalidRecord)
}

func TestSQLStore_InsertDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Insert(ctx, "staff", Record{"id": "1", OwnerField: owner}))
	assert.Error(t, s.Insert(ctx, "staff", Record{"id": "1", OwnerField: owner}))
}

func TestSQLStore_Update(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Insert(ctx, "payments", Record{"id": "p1", "amount": 100, "status": "due", OwnerField: owner}))
	require.NoError(t, s.Update(ctx, "payments", owner, "p1", Record{"status": "paid", OwnerField: "intruder@z.com", "id": "p9"}))

	recs, err := s.Select(ctx, "payments", Filter{Owner: owner, ID: "p1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "paid", recs[0]["status"])
	assert.Equal(t, json.Number("100"), recs[0]["amount"])
	assert.Equal(t, owner, recs[0].Owner())
	assert.Equal(t, "p1", recs[0].ID())
}

func TestSQLStore_UpdateNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Insert(ctx, "payments", Record{"id": "p1", OwnerField: owner}))

	err := s.Update(ctx, "payments", "other@y.com", "p1", Record{"status": "paid"})
	assert.ErrorIs(t, err, kerrors.ErrRecordNotFound)
}

func TestSQLStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Insert(ctx, "batches", Record{"id": "b1", OwnerField: owner}))
	require.NoError(t, s.Delete(ctx, "batches", owner, "b1"))

	err := s.Delete(ctx, "batches", owner, "b1")
	assert.ErrorIs(t, err, kerrors.ErrRecordNotFound)
}

func TestSQLStore_Upsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Insert(ctx, "students", Record{"id": "1", "name": "old", OwnerField: owner}))

	err := s.Upsert(ctx, "students", []Record{
		{"id": "1", "name": "new", OwnerField: owner},
		{"id": "2", "name": "second", OwnerField: owner},
	})
	require.NoError(t, err)

	recs, err := s.Select(ctx, "students", Filter{Owner: owner})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "new", recs[0]["name"])
	assert.Equal(t, "second", recs[1]["name"])
}

func TestSQLStore_UpsertIsAtomicPerCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Upsert(ctx, "students", []Record{
		{"id": "1", OwnerField: owner},
		{"id": "2"},
	})
	require.ErrorIs(t, err, kerrors.ErrInvalidRecord)

	recs, err := s.Select(ctx, "students", Filter{Owner: owner})
	require.NoError(t, err)
	assert.Empty(t, recs, "a failed upsert must not leave partial rows")
}

func TestSQLStore_UpdatedAtUsesClock(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	s := newTestStore(t)
	WithClock(func() time.Time { return fixed })(s)

	require.NoError(t, s.Insert(ctx, "schemes", Record{"id": "s1", OwnerField: owner}))

	var updatedAt int64
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT updated_at FROM records WHERE id = 's1'").Scan(&updatedAt))
	assert.Equal(t, fixed.Unix(), updatedAt)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	for _, driver := range []string{"oracle", "postgres"} {
		_, err := Open(context.Background(), driver, "")
		assert.ErrorIs(t, err, kerrors.ErrStoreUnavailable, driver)
	}
}

func TestOpen_InvalidMySQLDSN(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "not a dsn")
	assert.ErrorIs(t, err, kerrors.ErrStoreUnavailable)
}

func TestQueriesFor_SharedStatements(t *testing.T) {
	for _, dbType := range []DBType{SQLite, MySQL} {
		t.Run(string(dbType), func(t *testing.T) {
			assert.Equal(t, "DELETE FROM records WHERE collection = ? AND owner = ? AND id = ?", queriesFor(dbType).remove)
		})
	}
}

func TestQueriesFor_MySQLUpsert(t *testing.T) {
	qs := queriesFor(MySQL)
	assert.Contains(t, qs.upsert, "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, qs.schema, "LONGTEXT")
}
