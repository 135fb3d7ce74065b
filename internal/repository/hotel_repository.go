package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// HotelRepo manages tenants.  Only MASTER_ADMIN handlers write here.
type HotelRepo struct{ db *sql.DB }

func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db} }

const hotelCols = `id, code, name, currency, active, created_at, updated_at`

func scanHotel(row interface{ Scan(...any) error }, h *model.Hotel) error {
	return row.Scan(&h.ID, &h.Code, &h.Name, &h.Currency, &h.Active, &h.CreatedAt, &h.UpdatedAt)
}

// Create inserts h and fills its generated fields.
func (r *HotelRepo) Create(ctx context.Context, h *model.Hotel) error {
	h.Code = strings.ToUpper(strings.TrimSpace(h.Code))
	h.Name = strings.TrimSpace(h.Name)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hotels (code, name, currency, active) VALUES (?, ?, ?, ?)`,
		h.Code, h.Name, h.Currency, h.Active)
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
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*h = got
	return nil
}

// GetByID loads one hotel.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (model.Hotel, error) {
	var h model.Hotel
	err := scanHotel(r.db.QueryRowContext(ctx, `SELECT `+hotelCols+` FROM hotels WHERE id = ?`, id), &h)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrNotFound
	}
	return h, err
}

// List returns the hotels inside scope ordered by name.
func (r *HotelRepo) List(ctx context.Context, scope auth.Scope) ([]model.Hotel, error) {
	where, args := scopeClause("id", scope)
	rows, err := r.db.QueryContext(ctx, `SELECT `+hotelCols+` FROM hotels WHERE `+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Hotel
	for rows.Next() {
		var h model.Hotel
		if err := scanHotel(rows, &h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Update overwrites the mutable columns of h.
func (r *HotelRepo) Update(ctx context.Context, h *model.Hotel) error {
	h.Code = strings.ToUpper(strings.TrimSpace(h.Code))
	h.Name = strings.TrimSpace(h.Name)
	_, err := r.db.ExecContext(ctx,
		`UPDATE hotels SET code = ?, name = ?, currency = ?, active = ? WHERE id = ?`,
		h.Code, h.Name, h.Currency, h.Active, h.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	got, err := r.GetByID(ctx, h.ID)
	if err != nil {
		return err
	}
	*h = got
	return nil
}

// IDs returns every active hotel id; the ledger sync walks them one by one.
func (r *HotelRepo) IDs(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM hotels WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
