package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// ErrSerialization marks a transaction that lost a concurrent write race.
var ErrSerialization = errors.New("concurrent update detected")

// ErrDuplicate marks an insert rejected by a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// TxManager runs units of work inside a single database transaction.
type TxManager struct {
	db *sqlx.DB
}

// NewTxManager constructs a transaction manager.
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx begins a transaction, hands it to fn and commits when fn succeeds.
// Any error rolls back every statement executed through the transaction.
func (m *TxManager) WithinTx(ctx context.Context, opts *sql.TxOptions, fn func(exec sqlx.ExtContext) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return classifyPQError(err)
	}
	if err = tx.Commit(); err != nil {
		return classifyPQError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// classifyPQError tags driver errors that callers translate into domain failures.
func classifyPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqSerializationFailure, pqDeadlockDetected:
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	case pqUniqueViolation:
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
