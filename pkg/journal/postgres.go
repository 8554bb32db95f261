/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package journal

import (
	reqContext "context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS transaction_outcomes (
	id             UUID PRIMARY KEY,
	transaction_id TEXT NOT NULL,
	chaincode_id   TEXT NOT NULL,
	fcn            TEXT NOT NULL,
	args           TEXT[] NOT NULL,
	order_status   TEXT,
	event_status   TEXT,
	status         INTEGER NOT NULL,
	error          TEXT,
	started_at     TIMESTAMPTZ NOT NULL,
	duration_ms    BIGINT NOT NULL
)`

const insertSQL = `INSERT INTO transaction_outcomes
	(id, transaction_id, chaincode_id, fcn, args, order_status, event_status, status, error, started_at, duration_ms)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

type execer interface {
	Exec(ctx reqContext.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PostgresRecorder inserts entries into the transaction_outcomes table
type PostgresRecorder struct {
	db    execer
	close func()
}

// NewPostgresRecorder connects to dsn and creates the table if needed
func NewPostgresRecorder(ctx reqContext.Context, dsn string) (*PostgresRecorder, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres failed")
	}

	r, err := newPostgresRecorder(ctx, pool, pool.Close)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func newPostgresRecorder(ctx reqContext.Context, db execer, closer func()) (*PostgresRecorder, error) {
	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		return nil, errors.Wrap(err, "creating transaction_outcomes table failed")
	}
	return &PostgresRecorder{db: db, close: closer}, nil
}

// Record inserts the entry
func (r *PostgresRecorder) Record(ctx reqContext.Context, e *Entry) error {
	_, err := r.db.Exec(ctx, insertSQL,
		e.ID, e.TransactionID, e.ChaincodeID, e.Fcn, e.Args,
		nullable(e.OrderStatus), nullable(e.EventStatus), e.Status, nullable(e.Error),
		e.Started, e.DurationMillis)
	if err != nil {
		return errors.Wrapf(err, "inserting outcome of transaction [%s] failed", e.TransactionID)
	}
	return nil
}

// Close releases the connection pool
func (r *PostgresRecorder) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
