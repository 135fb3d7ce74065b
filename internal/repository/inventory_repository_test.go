package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
)

func day(s string) time.Time {
	t, err := inventory.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestInventoryApplyRangeTxOnlyUpdatesPatchedColumns(t *testing.T) {
	require := require.New(t)
	db, mock, err := sqlmock.New()
	require.NoError(err)
	defer db.Close()

	repo := NewInventoryRepo(db)
	allot := 4
	days := inventory.Days(day("2024-03-01"), day("2024-03-04"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_days (room_type_id, day, price, allotment, stop_sell) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?),(?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE allotment = VALUES(allotment)")).
		WithArgs(
			9, "2024-03-01", nil, 4, false,
			9, "2024-03-02", nil, 4, false,
			9, "2024-03-03", nil, 4, false,
		).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(err)
	n, err := repo.ApplyRangeTx(context.Background(), tx, 9, days, inventory.Patch{Allotment: &allot})
	require.NoError(err)
	require.Equal(3, n)
	require.NoError(tx.Commit())
	require.NoError(mock.ExpectationsWereMet())
}

func TestInventoryApplyRangeTxChunksLargeRanges(t *testing.T) {
	require := require.New(t)
	db, mock, err := sqlmock.New()
	require.NoError(err)
	defer db.Close()

	repo := NewInventoryRepo(db)
	price := decimal.NewFromInt(150)
	stop := true
	days := inventory.Days(day("2024-01-01"), day("2024-01-01").AddDate(0, 0, upsertChunk+10))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE price = VALUES(price), stop_sell = VALUES(stop_sell)")).
		WillReturnResult(sqlmock.NewResult(0, upsertChunk))
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE price = VALUES(price), stop_sell = VALUES(stop_sell)")).
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(err)
	n, err := repo.ApplyRangeTx(context.Background(), tx, 1, days, inventory.Patch{Price: &price, StopSell: &stop})
	require.NoError(err)
	require.Equal(upsertChunk+10, n)
	require.NoError(tx.Rollback())
	require.NoError(mock.ExpectationsWereMet())
}

func TestInventoryApplyRangeTxRejectsEmptyPatch(t *testing.T) {
	require := require.New(t)
	db, mock, err := sqlmock.New()
	require.NoError(err)
	defer db.Close()

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(err)

	_, err = NewInventoryRepo(db).ApplyRangeTx(context.Background(), tx, 1, []time.Time{day("2024-01-01")}, inventory.Patch{})
	require.ErrorIs(err, inventory.ErrEmptyPatch)
}

func TestInventoryListRangeKeysByDay(t *testing.T) {
	require := require.New(t)
	db, mock, err := sqlmock.New()
	require.NoError(err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"room_type_id", "day", "price", "allotment", "stop_sell"}).
		AddRow(3, day("2024-05-01"), "120.00", 5, false).
		AddRow(3, day("2024-05-02"), nil, 2, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM inventory_days")).
		WithArgs(3, day("2024-05-01"), day("2024-05-03")).
		WillReturnRows(rows)

	got, err := NewInventoryRepo(db).ListRange(context.Background(), nil, 3, day("2024-05-01"), day("2024-05-03"))
	require.NoError(err)
	require.Len(got, 2)
	require.NotNil(got["2024-05-01"].Price)
	require.Equal("120", got["2024-05-01"].Price.String())
	require.Nil(got["2024-05-02"].Price)
	require.True(got["2024-05-02"].StopSell)
	require.NoError(mock.ExpectationsWereMet())
}
