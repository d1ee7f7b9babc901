// Package sqlxrepos implements the school stores on PostgreSQL.
package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

const uniqueViolation = "23505"

// trapErr maps "no rows" to a *core.NotFoundError and connection failures to a systemic error.
func trapErr(err error, entity, key, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return core.NewNotFoundError(entity, key)
	case isUnavailable(err):
		return core.NewUnavailableError(errors.Wrap(err, msg))
	}
	return errors.Wrap(err, msg)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57": // connection exception, insufficient resources, operator intervention
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// checkAffected turns an update that matched no row into a *core.NotFoundError.
func checkAffected(res sql.Result, err error, entity, key, msg string) error {
	if err != nil {
		return trapErr(err, entity, key, msg)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return core.NewNotFoundError(entity, key)
	}
	return nil
}

// inTx runs `fn` in a transaction, committed only if `fn` succeeds.
func inTx(ctx context.Context, db core.DB, fn func(tx core.DBTransactor) error) (err error) {
	var tx *sqlx.Tx
	if tx, err = db.BeginTxx(ctx, nil); err != nil {
		return trapErr(err, "", "", "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return trapErr(tx.Commit(), "", "", "committing transaction")
}
