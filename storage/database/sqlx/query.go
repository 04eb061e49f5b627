package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core"
)

// where collects AND-ed conditions written with `?` placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// search adds a case-insensitive substring match of term on any of cols.
func (w *where) search(term string, cols ...string) {
	if term == "" {
		return
	}
	like := "%" + escapeLike(strings.ToLower(term)) + "%"
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, "lower("+col+") LIKE ?")
		w.args = append(w.args, like)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// orderBy maps the API ordering fields to columns. Unknown fields are ignored.
func orderBy(ordering []core.DBOrdering, columns map[string]string) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := columns[ord.Field]; ok {
			clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	clauses = append(clauses, "created_at DESC")
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func deleteByID(ctx context.Context, db *sqlx.DB, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = db.ExecContext(ctx, db.Rebind(q), args...); err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	return nil
}

// inTx runs fn in a transaction, committed if fn succeeds.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// uniqueViolation reports whether err is a postgres unique_violation on constraint.
func uniqueViolation(err error, constraint string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == "23505" && pqErr.Constraint == constraint
}

// notFound maps sql.ErrNoRows to the domain error.
func notFound(err error, domainErr error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return domainErr
	}
	return errors.Wrap(err, msg)
}
