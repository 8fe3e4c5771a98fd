package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/go-dolar-client/tokenstore"
	pkgerrors "github.com/pkg/errors"
)

var _ tokenstore.Store = (*PGStore)(nil)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS session_store (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`
	getSQL    = `SELECT value FROM session_store WHERE namespace = $1 AND key = $2`
	upsertSQL = `INSERT INTO session_store (namespace, key, value) VALUES ($1, $2, $3)
ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteSQL = `DELETE FROM session_store WHERE namespace = $1 AND key = $2`
)

// PGStore keeps session fields as rows of session_store keyed by (namespace, key).
type PGStore struct {
	db        DB
	namespace string
	closeFn   func()
}

type Option func(*PGStore)

// WithClose registers a function run by Close, typically pool.Close.
func WithClose(fn func()) Option {
	return func(s *PGStore) {
		s.closeFn = fn
	}
}

func New(db DB, namespace string, options ...Option) *PGStore {
	s := &PGStore{db: db, namespace: namespace}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// EnsureSchema creates the session_store table when missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return pkgerrors.Wrap(err, "[pgstore] ensure schema")
}

func (s *PGStore) Get(ctx context.Context, key tokenstore.Key) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, getSQL, s.namespace, string(key)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(err, "[pgstore] get")
	}
	return value, true, nil
}

func (s *PGStore) Set(ctx context.Context, key tokenstore.Key, value string) error {
	_, err := s.db.Exec(ctx, upsertSQL, s.namespace, string(key), value)
	return pkgerrors.Wrap(err, "[pgstore] upsert")
}

func (s *PGStore) Remove(ctx context.Context, key tokenstore.Key) error {
	_, err := s.db.Exec(ctx, deleteSQL, s.namespace, string(key))
	return pkgerrors.Wrap(err, "[pgstore] delete")
}

func (s *PGStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
