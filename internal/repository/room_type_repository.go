package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// RoomTypeRepo stores room types.  Rows are never hard-deleted because
// reservations keep pointing at them; Deactivate clears the active flag.
type RoomTypeRepo struct{ db *sql.DB }

func NewRoomTypeRepo(db *sql.DB) *RoomTypeRepo { return &RoomTypeRepo{db: db} }

// DB exposes the handle so services can open transactions.
func (r *RoomTypeRepo) DB() *sql.DB { return r.db }

const roomTypeCols = `id, hotel_id, code, name, base_price, capacity_adults, capacity_children, total_rooms, active, created_at, updated_at`

func scanRoomType(row interface{ Scan(...any) error }, rt *model.RoomType) error {
	return row.Scan(&rt.ID, &rt.HotelID, &rt.Code, &rt.Name, &rt.BasePrice,
		&rt.CapacityAdults, &rt.CapacityChildren, &rt.TotalRooms, &rt.Active,
		&rt.CreatedAt, &rt.UpdatedAt)
}

func normalizeRoomType(rt *model.RoomType) {
	rt.Code = strings.ToUpper(strings.TrimSpace(rt.Code))
	rt.Name = strings.TrimSpace(rt.Name)
}

// Create inserts rt.  A duplicate code within the hotel yields ErrConflict.
func (r *RoomTypeRepo) Create(ctx context.Context, rt *model.RoomType) error {
	normalizeRoomType(rt)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO room_types (hotel_id, code, name, base_price, capacity_adults, capacity_children, total_rooms, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.HotelID, rt.Code, rt.Name, rt.BasePrice, rt.CapacityAdults, rt.CapacityChildren, rt.TotalRooms, rt.Active)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return scanRoomType(r.db.QueryRowContext(ctx, `SELECT `+roomTypeCols+` FROM room_types WHERE id = ?`, rt.ID), rt)
}

// GetByID loads a room type inside scope.
func (r *RoomTypeRepo) GetByID(ctx context.Context, scope auth.Scope, id uint64) (model.RoomType, error) {
	where, args := scopeClause("hotel_id", scope)
	var rt model.RoomType
	err := scanRoomType(r.db.QueryRowContext(ctx,
		`SELECT `+roomTypeCols+` FROM room_types WHERE id = ? AND `+where,
		append([]any{id}, args...)...), &rt)
	if errors.Is(err, sql.ErrNoRows) {
		return rt, ErrNotFound
	}
	return rt, err
}

// LockTx loads a room type with FOR UPDATE.  Reservation commits for the
// same room type serialize on this row lock.
func (r *RoomTypeRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (model.RoomType, error) {
	var rt model.RoomType
	err := scanRoomType(tx.QueryRowContext(ctx,
		`SELECT `+roomTypeCols+` FROM room_types WHERE id = ? FOR UPDATE`, id), &rt)
	if errors.Is(err, sql.ErrNoRows) {
		return rt, ErrNotFound
	}
	return rt, err
}

// List returns the room types inside scope.
func (r *RoomTypeRepo) List(ctx context.Context, scope auth.Scope, activeOnly bool) ([]model.RoomType, error) {
	where, args := scopeClause("hotel_id", scope)
	q := `SELECT ` + roomTypeCols + ` FROM room_types WHERE ` + where
	if activeOnly {
		q += ` AND active = 1`
	}
	q += ` ORDER BY hotel_id, code`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RoomType
	for rows.Next() {
		var rt model.RoomType
		if err := scanRoomType(rows, &rt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// Update overwrites the mutable columns of rt.  The hotel never changes.
func (r *RoomTypeRepo) Update(ctx context.Context, rt *model.RoomType) error {
	normalizeRoomType(rt)
	_, err := r.db.ExecContext(ctx,
		`UPDATE room_types SET code = ?, name = ?, base_price = ?, capacity_adults = ?, capacity_children = ?, total_rooms = ?, active = ?
		 WHERE id = ? AND hotel_id = ?`,
		rt.Code, rt.Name, rt.BasePrice, rt.CapacityAdults, rt.CapacityChildren, rt.TotalRooms, rt.Active, rt.ID, rt.HotelID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return scanRoomType(r.db.QueryRowContext(ctx, `SELECT `+roomTypeCols+` FROM room_types WHERE id = ?`, rt.ID), rt)
}

// Deactivate clears the active flag of a room type inside scope.
func (r *RoomTypeRepo) Deactivate(ctx context.Context, scope auth.Scope, id uint64) error {
	where, args := scopeClause("hotel_id", scope)
	res, err := r.db.ExecContext(ctx,
		`UPDATE room_types SET active = 0 WHERE id = ? AND `+where,
		append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, scope, id); err != nil {
			return err
		}
	}
	return nil
}

// TotalRooms sums the physical rooms of active room types inside scope.
func (r *RoomTypeRepo) TotalRooms(ctx context.Context, scope auth.Scope) (int, int, error) {
	where, args := scopeClause("hotel_id", scope)
	var types, rooms int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_rooms), 0) FROM room_types WHERE active = 1 AND `+where,
		args...).Scan(&types, &rooms)
	return types, rooms, err
}
