package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/finance"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// LedgerRepo stores cash book entries.  Every write canonicalizes the
// entry first.
type LedgerRepo struct{ db *sql.DB }

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// DB exposes the handle so services can open transactions.
func (r *LedgerRepo) DB() *sql.DB { return r.db }

const ledgerCols = `id, hotel_id, type, method, category, entry_date, amount, currency, fx_rate, amount_in_base,
	note, ref, source, reservation_id, guest_name, channel, unique_key, created_at, updated_at`

func scanLedger(row interface{ Scan(...any) error }) (model.LedgerEntry, error) {
	var (
		e     model.LedgerEntry
		resID sql.NullInt64
		key   sql.NullString
	)
	err := row.Scan(&e.ID, &e.HotelID, &e.Type, &e.Method, &e.Category, &e.Date, &e.Amount, &e.Currency,
		&e.FxRate, &e.AmountInBase, &e.Note, &e.Ref, &e.Source, &resID, &e.GuestName, &e.Channel, &key,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	if resID.Valid {
		id := uint64(resID.Int64)
		e.ReservationID = &id
	}
	if key.Valid {
		k := key.String
		e.UniqueKey = &k
	}
	return e, nil
}

func nullableID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableKey(k *string) any {
	if k == nil {
		return nil
	}
	return *k
}

func (r *LedgerRepo) insert(ctx context.Context, q DBTX, e *model.LedgerEntry) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO ledger_entries (hotel_id, type, method, category, entry_date, amount, currency, fx_rate,
			amount_in_base, note, ref, source, reservation_id, guest_name, channel, unique_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.HotelID, e.Type, e.Method, e.Category, inventory.FormatDay(e.Date), e.Amount, e.Currency, e.FxRate,
		e.AmountInBase, e.Note, e.Ref, e.Source, nullableID(e.ReservationID), e.GuestName, e.Channel,
		nullableKey(e.UniqueKey))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Create canonicalizes and stores e.  A unique key that already exists
// yields ErrConflict.
func (r *LedgerRepo) Create(ctx context.Context, e *model.LedgerEntry) error {
	if err := finance.Canonicalize(e); err != nil {
		return err
	}
	if err := r.insert(ctx, r.db, e); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	got, err := r.GetByID(ctx, auth.Scope{All: true}, e.ID)
	if err != nil {
		return err
	}
	*e = got
	return nil
}

// InsertIdempotentTx stores e unless an entry with the same unique key
// exists, in which case e is replaced by the stored entry and created is
// false.
func (r *LedgerRepo) InsertIdempotentTx(ctx context.Context, q DBTX, e *model.LedgerEntry) (bool, error) {
	if q == nil {
		q = r.db
	}
	if err := finance.Canonicalize(e); err != nil {
		return false, err
	}
	err := r.insert(ctx, q, e)
	if err == nil {
		return true, nil
	}
	if !isDuplicate(err) || e.UniqueKey == nil {
		return false, err
	}
	existing, err := scanLedger(q.QueryRowContext(ctx,
		`SELECT `+ledgerCols+` FROM ledger_entries WHERE unique_key = ?`, *e.UniqueKey))
	if err != nil {
		return false, err
	}
	*e = existing
	return false, nil
}

// GetByID loads an entry inside scope.
func (r *LedgerRepo) GetByID(ctx context.Context, scope auth.Scope, id uint64) (model.LedgerEntry, error) {
	where, args := scopeClause("hotel_id", scope)
	e, err := scanLedger(r.db.QueryRowContext(ctx,
		`SELECT `+ledgerCols+` FROM ledger_entries WHERE id = ? AND `+where, append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

// GetForUpdateTx loads and locks an entry inside scope.
func (r *LedgerRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, scope auth.Scope, id uint64) (model.LedgerEntry, error) {
	where, args := scopeClause("hotel_id", scope)
	e, err := scanLedger(tx.QueryRowContext(ctx,
		`SELECT `+ledgerCols+` FROM ledger_entries WHERE id = ? AND `+where+` FOR UPDATE`, append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

// UpdateTx canonicalizes e and overwrites its stored row.
func (r *LedgerRepo) UpdateTx(ctx context.Context, tx *sql.Tx, e *model.LedgerEntry) error {
	if err := finance.Canonicalize(e); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE ledger_entries SET type = ?, method = ?, category = ?, entry_date = ?, amount = ?, currency = ?,
			fx_rate = ?, amount_in_base = ?, note = ?, ref = ?, source = ?, unique_key = ?
		 WHERE id = ? AND hotel_id = ?`,
		e.Type, e.Method, e.Category, inventory.FormatDay(e.Date), e.Amount, e.Currency,
		e.FxRate, e.AmountInBase, e.Note, e.Ref, e.Source, nullableKey(e.UniqueKey), e.ID, e.HotelID)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// Delete removes an entry inside scope.
func (r *LedgerRepo) Delete(ctx context.Context, scope auth.Scope, id uint64) error {
	where, args := scopeClause("hotel_id", scope)
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ? AND `+where, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStaleBalanceTx drops the planned balance entries of a reservation
// whose unique key is not in keep.  Actual payment entries are never
// touched.
func (r *LedgerRepo) DeleteStaleBalanceTx(ctx context.Context, q DBTX, reservationID uint64, keep []string) (int64, error) {
	if q == nil {
		q = r.db
	}
	query := `DELETE FROM ledger_entries WHERE reservation_id = ? AND source = ?`
	args := []any{reservationID, finance.SourceReservationBalance}
	if len(keep) > 0 {
		query += ` AND (unique_key IS NULL OR unique_key NOT IN (` + placeholders(len(keep)) + `))`
		for _, k := range keep {
			args = append(args, k)
		}
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LedgerFilter narrows List.  Dates are inclusive calendar days.
type LedgerFilter struct {
	Scope    auth.Scope
	From, To time.Time
	Type     string
	Method   string
	Source   string
	Page     int
	Limit    int
}

func (f LedgerFilter) where() (string, []any) {
	where, args := scopeClause("hotel_id", f.Scope)
	conds := []string{where}
	if !f.From.IsZero() {
		conds = append(conds, "entry_date >= ?")
		args = append(args, inventory.FormatDay(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "entry_date <= ?")
		args = append(args, inventory.FormatDay(f.To))
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if f.Method != "" {
		conds = append(conds, "method = ?")
		args = append(args, f.Method)
	}
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, f.Source)
	}
	return strings.Join(conds, " AND "), args
}

// List returns one page of entries plus the total match count, newest
// first.
func (r *LedgerRepo) List(ctx context.Context, f LedgerFilter) ([]model.LedgerEntry, int, error) {
	where, args := f.where()
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, limit := Page(f.Page, f.Limit)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerCols+` FROM ledger_entries WHERE `+where+` ORDER BY entry_date DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.LedgerEntry
	for rows.Next() {
		e, err := scanLedger(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// Totals sums amount_in_base per entry type for the filter, ignoring
// pagination.
func (r *LedgerRepo) Totals(ctx context.Context, f LedgerFilter) (map[string]string, error) {
	where, args := f.where()
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, COALESCE(SUM(amount_in_base), 0) FROM ledger_entries WHERE `+where+` GROUP BY type`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{model.EntryIncome: "0.00", model.EntryExpense: "0.00"}
	for rows.Next() {
		var typ, sum string
		if err := rows.Scan(&typ, &sum); err != nil {
			return nil, err
		}
		out[typ] = sum
	}
	return out, rows.Err()
}
