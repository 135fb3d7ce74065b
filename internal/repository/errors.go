// Package repository defines the MySQL data access layer and the error
// values shared by its repositories.  Handlers translate these sentinels
// into HTTP statuses: ErrNotFound → 404, ErrForbidden → 403,
// ErrConflict → 409.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hotel-reservation/internal/auth"
)

// ErrNotFound is returned when a row does not exist or lies outside the
// caller's hotel scope.  The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource it may see but not change.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with existing state, such
// as a duplicate room type code within a hotel.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a user email is already registered.
var ErrEmailExists = errors.New("email already exists")

// DBTX is satisfied by both *sql.DB and *sql.Tx so reads can run inside
// or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// scopeClause renders a hotel scope as a SQL predicate on col.
func scopeClause(col string, s auth.Scope) (string, []any) {
	if s.All {
		return "1=1", nil
	}
	if len(s.HotelIDs) == 0 {
		return "1=0", nil
	}
	args := make([]any, 0, len(s.HotelIDs))
	for _, id := range s.HotelIDs {
		args = append(args, id)
	}
	return col + " IN (" + placeholders(len(args)) + ")", args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Page normalizes pagination input: page ≥ 1, 1 ≤ limit ≤ 100.
func Page(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
