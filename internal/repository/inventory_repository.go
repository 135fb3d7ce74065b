package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// InventoryRepo reads and writes per-day inventory rows.
type InventoryRepo struct{ db *sql.DB }

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// upsertChunk bounds the number of rows per INSERT statement.
const upsertChunk = 250

// ListRange returns the stored rows of a room type for days in
// [start, end), keyed by YYYY-MM-DD.  Days without a row are absent.
func (r *InventoryRepo) ListRange(ctx context.Context, q DBTX, roomTypeID uint64, start, end time.Time) (map[string]model.InventoryDay, error) {
	if q == nil {
		q = r.db
	}
	rows, err := q.QueryContext(ctx,
		`SELECT room_type_id, day, price, allotment, stop_sell FROM inventory_days
		 WHERE room_type_id = ? AND day >= ? AND day < ? ORDER BY day`,
		roomTypeID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]model.InventoryDay)
	for rows.Next() {
		var (
			d     model.InventoryDay
			price decimal.NullDecimal
		)
		if err := rows.Scan(&d.RoomTypeID, &d.Day, &price, &d.Allotment, &d.StopSell); err != nil {
			return nil, err
		}
		if price.Valid {
			p := price.Decimal
			d.Price = &p
		}
		out[inventory.FormatDay(d.Day)] = d
	}
	return out, rows.Err()
}

// ApplyRangeTx upserts one row per day.  Existing rows only receive the
// columns present in p; new rows start from NULL price, zero allotment and
// stop-sell off, then take the patched values.  The caller owns tx, so a
// range (or a set of weekday segments) commits or rolls back as a whole.
func (r *InventoryRepo) ApplyRangeTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, days []time.Time, p inventory.Patch) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}
	var price any
	if p.Price != nil {
		price = *p.Price
	}
	allot := 0
	if p.Allotment != nil {
		allot = *p.Allotment
	}
	stop := false
	if p.StopSell != nil {
		stop = *p.StopSell
	}

	var sets []string
	if p.Price != nil {
		sets = append(sets, "price = VALUES(price)")
	}
	if p.Allotment != nil {
		sets = append(sets, "allotment = VALUES(allotment)")
	}
	if p.StopSell != nil {
		sets = append(sets, "stop_sell = VALUES(stop_sell)")
	}
	if len(sets) == 0 {
		return 0, inventory.ErrEmptyPatch
	}
	suffix := " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")

	written := 0
	for from := 0; from < len(days); from += upsertChunk {
		to := from + upsertChunk
		if to > len(days) {
			to = len(days)
		}
		chunk := days[from:to]
		var b strings.Builder
		b.WriteString("INSERT INTO inventory_days (room_type_id, day, price, allotment, stop_sell) VALUES ")
		args := make([]any, 0, len(chunk)*5)
		for i, d := range chunk {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, roomTypeID, inventory.FormatDay(d), price, allot, stop)
		}
		b.WriteString(suffix)
		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}
