package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
	_ "modernc.org/sqlite"
)

// DBType identifies a database/sql driver family.
type DBType string

const (
	SQLite DBType = "sqlite"
	MySQL  DBType = "mysql"

	DefaultDBType = SQLite
)

const (
	defaultSelectQuery = "SELECT body FROM records WHERE collection = ? AND owner = ? ORDER BY id"
	defaultSelectOne   = "SELECT body FROM records WHERE collection = ? AND owner = ? AND id = ?"
	defaultInsertQuery = "INSERT INTO records (collection, owner, id, body, updated_at) VALUES (?, ?, ?, ?, ?)"
	defaultUpdateQuery = "UPDATE records SET body = ?, updated_at = ? WHERE collection = ? AND owner = ? AND id = ?"
	defaultDeleteQuery = "DELETE FROM records WHERE collection = ? AND owner = ? AND id = ?"
	sqliteUpsertQuery  = defaultInsertQuery + " ON CONFLICT (collection, owner, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at"
	mysqlUpsertQuery   = defaultInsertQuery + " ON DUPLICATE KEY UPDATE body = VALUES(body), updated_at = VALUES(updated_at)"
)

const defaultSchema = `CREATE TABLE IF NOT EXISTS records (
	collection VARCHAR(64) NOT NULL,
	owner VARCHAR(255) NOT NULL,
	id VARCHAR(128) NOT NULL,
	body TEXT NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (collection, owner, id)
)`

const mysqlSchema = `CREATE TABLE IF NOT EXISTS records (
	collection VARCHAR(64) NOT NULL,
	owner VARCHAR(255) NOT NULL,
	id VARCHAR(128) NOT NULL,
	body LONGTEXT NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (collection, owner, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

var (
	// Verify SQLStore implements the RecordStore interface.
	_ RecordStore = (*SQLStore)(nil)

	selectTimer = metrics.GetOrRegisterTimer("instivault.store.sql.select", nil)
	insertTimer = metrics.GetOrRegisterTimer("instivault.store.sql.insert", nil)
	updateTimer = metrics.GetOrRegisterTimer("instivault.store.sql.update", nil)
	deleteTimer = metrics.GetOrRegisterTimer("instivault.store.sql.delete", nil)
	upsertTimer = metrics.GetOrRegisterTimer("instivault.store.sql.upsert", nil)
)

type queries struct {
	schema    string
	selectAll string
	selectOne string
	insert    string
	update    string
	remove    string
	upsert    string
}

func queriesFor(t DBType) queries {
	qs := queries{
		schema:    defaultSchema,
		selectAll: defaultSelectQuery,
		selectOne: defaultSelectOne,
		insert:    defaultInsertQuery,
		update:    defaultUpdateQuery,
		remove:    defaultDeleteQuery,
		upsert:    sqliteUpsertQuery,
	}
	if t == MySQL {
		qs.schema = mysqlSchema
		qs.upsert = mysqlUpsertQuery
	}
	return qs
}

// Option configures a SQLStore.
type Option func(*SQLStore)

// WithDBType configures the store for the given driver family. SQLite is the default.
func WithDBType(t DBType) Option {
	return func(s *SQLStore) {
		s.dbType = t
		s.queries = queriesFor(t)
	}
}

// WithClock overrides the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		s.now = now
	}
}

// SQLStore implements RecordStore on a single `records` table. Bodies are
// stored as JSON; collection, owner and id are lifted into key columns.
type SQLStore struct {
	db      *sql.DB
	dbType  DBType
	queries queries
	now     func() time.Time
}

// NewSQLStore wraps an open handle and creates the records table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{
		db:      db,
		dbType:  DefaultDBType,
		queries: queriesFor(DefaultDBType),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.db.ExecContext(ctx, s.queries.schema); err != nil {
		return nil, fmt.Errorf("creating records table: %w", err)
	}

	return s, nil
}

// Open opens a store for driver ("sqlite" or "mysql") and dsn.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch DBType(driver) {
	case SQLite, "":
		return openSQLite(ctx, dsn)
	case MySQL:
		return openMySQL(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", kerrors.ErrStoreUnavailable, driver)
	}
}

func openSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0700); err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrStoreUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStoreUnavailable, err)
	}

	// A single connection keeps :memory: databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: setting %q: %v", kerrors.ErrStoreUnavailable, pragma, err)
		}
	}

	s, err := NewSQLStore(ctx, db, WithDBType(SQLite))
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func openMySQL(ctx context.Context, dsn string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStoreUnavailable, err)
	}
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", kerrors.ErrStoreUnavailable, err)
	}

	s, err := NewSQLStore(ctx, db, WithDBType(MySQL))
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(v ...interface{}) error
}

func decodeRecord(sc scanner) (Record, error) {
	var body string
	if err := sc.Scan(&body); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: stored body is not a JSON object", kerrors.ErrInvalidRecord)
	}
	return rec, nil
}

func encodeRecord(rec Record) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrInvalidRecord, err)
	}
	return string(body), nil
}

// prepare validates rec and fills in a generated id when it has none.
func prepare(rec Record) (Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: record is nil", kerrors.ErrInvalidRecord)
	}
	if rec.Owner() == "" {
		return nil, fmt.Errorf("%w: missing %s", kerrors.ErrInvalidRecord, OwnerField)
	}
	if rec.ID() == "" {
		rec[IDField] = uuid.New().String()
	}
	return rec, nil
}

// Select returns the records in collection owned by filter.Owner.
func (s *SQLStore) Select(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	defer selectTimer.UpdateSince(time.Now())

	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if filter.Owner == "" {
		return nil, fmt.Errorf("%w: owner filter is required", kerrors.ErrInvalidRecord)
	}

	if filter.ID != "" {
		rec, err := decodeRecord(s.db.QueryRowContext(ctx, s.queries.selectOne, collection, filter.Owner, filter.ID))
		if errors.Is(err, sql.ErrNoRows) {
			return []Record{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("selecting %s/%s: %w", collection, filter.ID, err)
		}
		return []Record{rec}, nil
	}

	rows, err := s.db.QueryContext(ctx, s.queries.selectAll, collection, filter.Owner)
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", collection, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := decodeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", collection, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", collection, err)
	}

	return records, nil
}

// Insert adds a new record. Inserting an existing id is an error.
func (s *SQLStore) Insert(ctx context.Context, collection string, rec Record) error {
	defer insertTimer.UpdateSince(time.Now())

	if err := validateCollection(collection); err != nil {
		return err
	}
	rec, err := prepare(rec)
	if err != nil {
		return err
	}
	body, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.queries.insert, collection, rec.Owner(), rec.ID(), body, s.now().Unix()); err != nil {
		return fmt.Errorf("inserting %s/%s: %w", collection, rec.ID(), err)
	}
	return nil
}

// Update merges patch into an existing record. The id and owner fields of
// patch are ignored.
func (s *SQLStore) Update(ctx context.Context, collection, owner, id string, patch Record) error {
	defer updateTimer.UpdateSince(time.Now())

	if err := validateCollection(collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := decodeRecord(tx.QueryRowContext(ctx, s.queries.selectOne, collection, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s/%s", kerrors.ErrRecordNotFound, collection, id)
	}
	if err != nil {
		return fmt.Errorf("loading %s/%s: %w", collection, id, err)
	}

	for k, v := range patch {
		if k == IDField || k == OwnerField {
			continue
		}
		current[k] = v
	}

	body, err := encodeRecord(current)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, s.queries.update, body, s.now().Unix(), collection, owner, id); err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	return tx.Commit()
}

// Delete removes one record.
func (s *SQLStore) Delete(ctx context.Context, collection, owner, id string) error {
	defer deleteTimer.UpdateSince(time.Now())

	if err := validateCollection(collection); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.queries.remove, collection, owner, id)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", kerrors.ErrRecordNotFound, collection, id)
	}
	return nil
}

// Upsert writes recs in a single transaction, replacing rows with the same
// (owner, id).
func (s *SQLStore) Upsert(ctx context.Context, collection string, recs []Record) error {
	defer upsertTimer.UpdateSince(time.Now())

	if err := validateCollection(collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.queries.upsert)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	updatedAt := s.now().Unix()
	for i, rec := range recs {
		rec, err := prepare(rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		body, err := encodeRecord(rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, rec.Owner(), rec.ID(), body, updatedAt); err != nil {
			return fmt.Errorf("upserting %s/%s: %w", collection, rec.ID(), err)
		}
	}

	return tx.Commit()
}
