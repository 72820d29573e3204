package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Session runs fn inside a single transaction bound to ctx. The transaction
// commits when fn returns nil and rolls back when fn returns an error or
// panics; a panic is re-raised after the rollback. The connection goes back
// to the pool on every path.
func (db *DB) Session(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && err != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
