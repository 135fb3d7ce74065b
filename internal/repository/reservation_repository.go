package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// ReservationRepo stores reservations together with their captured
// payment records (a JSON column).  Availability checks read through
// CommittedTx inside the same transaction that writes.
type ReservationRepo struct{ db *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the handle so services can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationCols = `id, hotel_id, room_type_id, guest_name, guest_email, guest_phone, check_in, check_out,
	adults, children, rooms, channel, status, currency, fx_rate, total_price, deposit_amount, deposit_date,
	payment_method, payment_status, notes, payments, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		res      model.Reservation
		depDate  sql.NullTime
		notes    sql.NullString
		payments []byte
	)
	err := row.Scan(&res.ID, &res.HotelID, &res.RoomTypeID, &res.GuestName, &res.GuestEmail, &res.GuestPhone,
		&res.CheckIn, &res.CheckOut, &res.Adults, &res.Children, &res.Rooms, &res.Channel, &res.Status,
		&res.Currency, &res.FxRate, &res.TotalPrice, &res.DepositAmount, &depDate,
		&res.PaymentMethod, &res.PaymentStatus, &notes, &payments, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return res, err
	}
	if depDate.Valid {
		d := depDate.Time
		res.DepositDate = &d
	}
	res.Notes = notes.String
	if len(payments) > 0 && string(payments) != "null" {
		if err := json.Unmarshal(payments, &res.Payments); err != nil {
			return res, err
		}
	}
	return res, nil
}

func paymentsJSON(ps []model.PaymentRecord) (any, error) {
	if len(ps) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(ps)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func depositDateArg(d *time.Time) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return inventory.FormatDay(*d)
}

// CreateTx inserts res inside tx and fills its generated fields.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	pays, err := paymentsJSON(res.Payments)
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (hotel_id, room_type_id, guest_name, guest_email, guest_phone, check_in, check_out,
			adults, children, rooms, channel, status, currency, fx_rate, total_price, deposit_amount, deposit_date,
			payment_method, payment_status, notes, payments)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.HotelID, res.RoomTypeID, res.GuestName, res.GuestEmail, res.GuestPhone,
		inventory.FormatDay(res.CheckIn), inventory.FormatDay(res.CheckOut),
		res.Adults, res.Children, res.Rooms, res.Channel, res.Status, res.Currency, res.FxRate,
		res.TotalPrice, res.DepositAmount, depositDateArg(res.DepositDate),
		res.PaymentMethod, res.PaymentStatus, res.Notes, pays)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	got, err := scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id))
	if err != nil {
		return err
	}
	*res = got
	return nil
}

// UpdateTx overwrites every mutable column of res.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	pays, err := paymentsJSON(res.Payments)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE reservations SET room_type_id = ?, guest_name = ?, guest_email = ?, guest_phone = ?, check_in = ?, check_out = ?,
			adults = ?, children = ?, rooms = ?, channel = ?, status = ?, currency = ?, fx_rate = ?, total_price = ?,
			deposit_amount = ?, deposit_date = ?, payment_method = ?, payment_status = ?, notes = ?, payments = ?
		 WHERE id = ? AND hotel_id = ?`,
		res.RoomTypeID, res.GuestName, res.GuestEmail, res.GuestPhone,
		inventory.FormatDay(res.CheckIn), inventory.FormatDay(res.CheckOut),
		res.Adults, res.Children, res.Rooms, res.Channel, res.Status, res.Currency, res.FxRate, res.TotalPrice,
		res.DepositAmount, depositDateArg(res.DepositDate), res.PaymentMethod, res.PaymentStatus, res.Notes, pays,
		res.ID, res.HotelID)
	if err != nil {
		return err
	}
	got, err := scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, res.ID))
	if err != nil {
		return err
	}
	*res = got
	return nil
}

// GetForUpdateTx loads a reservation inside scope and locks its row.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, scope auth.Scope, id uint64) (model.Reservation, error) {
	where, args := scopeClause("hotel_id", scope)
	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ? AND `+where+` FOR UPDATE`,
		append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return res, ErrNotFound
	}
	return res, err
}

// GetByID loads a reservation inside scope.
func (r *ReservationRepo) GetByID(ctx context.Context, scope auth.Scope, id uint64) (model.Reservation, error) {
	where, args := scopeClause("hotel_id", scope)
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ? AND `+where,
		append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return res, ErrNotFound
	}
	return res, err
}

// Delete removes a reservation inside scope.  Derived ledger entries keep
// their weak reference.
func (r *ReservationRepo) Delete(ctx context.Context, scope auth.Scope, id uint64) error {
	where, args := scopeClause("hotel_id", scope)
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ? AND `+where, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CommittedTx returns the stays of non-cancelled reservations of a room
// type that overlap [start, end).  excludeID skips the reservation being
// edited; pass 0 to skip nothing.
func (r *ReservationRepo) CommittedTx(ctx context.Context, q DBTX, roomTypeID uint64, start, end time.Time, excludeID uint64) ([]inventory.Booking, error) {
	if q == nil {
		q = r.db
	}
	rows, err := q.QueryContext(ctx,
		`SELECT check_in, check_out, rooms FROM reservations
		 WHERE room_type_id = ? AND status <> 'cancelled' AND check_in < ? AND check_out > ? AND id <> ?`,
		roomTypeID, inventory.FormatDay(end), inventory.FormatDay(start), excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []inventory.Booking
	for rows.Next() {
		var b inventory.Booking
		if err := rows.Scan(&b.CheckIn, &b.CheckOut, &b.Rooms); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReservationFilter narrows List.  From/To select stays overlapping
// [From, To); zero values disable a bound.
type ReservationFilter struct {
	Scope      auth.Scope
	From, To   time.Time
	Status     string
	Channel    string
	Guest      string
	RoomTypeID uint64
	Page       int
	Limit      int
}

func (f ReservationFilter) where() (string, []any) {
	where, args := scopeClause("hotel_id", f.Scope)
	conds := []string{where}
	if !f.To.IsZero() {
		conds = append(conds, "check_in < ?")
		args = append(args, inventory.FormatDay(f.To))
	}
	if !f.From.IsZero() {
		conds = append(conds, "check_out > ?")
		args = append(args, inventory.FormatDay(f.From))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Channel != "" {
		conds = append(conds, "channel = ?")
		args = append(args, f.Channel)
	}
	if f.RoomTypeID != 0 {
		conds = append(conds, "room_type_id = ?")
		args = append(args, f.RoomTypeID)
	}
	if g := strings.TrimSpace(f.Guest); g != "" {
		conds = append(conds, "(guest_name LIKE ? OR guest_email LIKE ? OR guest_phone LIKE ?)")
		like := "%" + escapeLike(g) + "%"
		args = append(args, like, like, like)
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns one page of reservations plus the total match count.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, int, error) {
	where, args := f.where()
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, limit := Page(f.Page, f.Limit)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE `+where+` ORDER BY check_in DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	return out, total, rows.Err()
}

// ListOverlapping returns every reservation inside scope whose stay
// overlaps [from, to), cancelled ones included.  Reporting and ledger
// derivation read through it.
func (r *ReservationRepo) ListOverlapping(ctx context.Context, scope auth.Scope, from, to time.Time) ([]model.Reservation, error) {
	where, args := ReservationFilter{Scope: scope, From: from, To: to}.where()
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE `+where+` ORDER BY check_in, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
