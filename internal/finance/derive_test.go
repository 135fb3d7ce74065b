package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleReservation() model.Reservation {
	return model.Reservation{
		ID:         42,
		HotelID:    7,
		RoomTypeID: 3,
		GuestName:  "Ada Lovelace",
		CheckIn:    day("2024-06-10"),
		CheckOut:   day("2024-06-12"),
		Rooms:      1,
		Channel:    model.ChannelBooking,
		Status:     model.StatusConfirmed,
		Currency:   "TRY",
		FxRate:     decimal.NewFromInt(1),
		TotalPrice: decimal.RequireFromString("1000"),
		CreatedAt:  day("2024-06-01"),
		Payments: []model.PaymentRecord{
			{ID: "p1", Amount: decPtr("300"), Method: "kart", Date: "2024-06-02"},
			{ID: "p2", Amount: decPtr("-50"), Method: "cash", Date: "2024-06-03"},
		},
	}
}

func TestUniqueKey(t *testing.T) {
	assert.Equal(t, "res:42:payment:2024-06-02:300.00:p1",
		UniqueKey(42, "payment", day("2024-06-02"), decimal.RequireFromString("300"), "p1"))
	assert.Equal(t, "res:42:refund:2024-06-03:50.00",
		UniqueKey(42, "refund", day("2024-06-03").Add(13*time.Hour), decimal.RequireFromString("-50"), ""))
	assert.Equal(t, "res:1:payment:2024-01-01:0.00", UniqueKey(1, "", day("2024-01-01"), decimal.Zero, " "))
}

func TestDeriveEntriesPaymentsAndBalance(t *testing.T) {
	entries := DeriveEntries([]model.Reservation{sampleReservation()}, DefaultOptions())
	require.Len(t, entries, 3)

	pay := entries[0]
	assert.Equal(t, model.EntryIncome, pay.Type)
	assert.Equal(t, SourceReservationPayment, pay.Source)
	assert.Equal(t, MethodPOS, pay.Method)
	assert.Equal(t, "300.00", pay.Amount.StringFixed(2))
	assert.Equal(t, "res:42:payment:2024-06-02:300.00:p1", *pay.UniqueKey)
	assert.Equal(t, uint64(7), pay.HotelID)
	require.NotNil(t, pay.ReservationID)
	assert.Equal(t, uint64(42), *pay.ReservationID)

	ref := entries[1]
	assert.Equal(t, model.EntryExpense, ref.Type)
	assert.Equal(t, SourceReservationRefund, ref.Source)
	assert.Equal(t, "50.00", ref.Amount.StringFixed(2))
	assert.Equal(t, "res:42:refund:2024-06-03:50.00:p2", *ref.UniqueKey)

	bal := entries[2]
	assert.Equal(t, model.EntryIncome, bal.Type)
	assert.Equal(t, SourceReservationBalance, bal.Source)
	assert.Equal(t, "700.00", bal.Amount.StringFixed(2))
	assert.Equal(t, day("2024-06-10"), bal.Date)
	assert.Equal(t, "res:42:balance:2024-06-10:700.00", *bal.UniqueKey)
}

func TestDeriveEntriesRulesAreIndependent(t *testing.T) {
	rs := []model.Reservation{sampleReservation()}

	only := DeriveEntries(rs, Options{IncludePayments: true})
	require.Len(t, only, 2)
	for _, e := range only {
		assert.NotEqual(t, SourceReservationBalance, e.Source)
	}

	planned := DeriveEntries(rs, Options{IncludePlannedBalance: true})
	require.Len(t, planned, 1)
	assert.Equal(t, SourceReservationBalance, planned[0].Source)

	assert.Empty(t, DeriveEntries(rs, Options{}))
}

func TestDeriveEntriesIsIdempotent(t *testing.T) {
	rs := []model.Reservation{sampleReservation()}
	keys := func(es []model.LedgerEntry) []string {
		out := make([]string, 0, len(es))
		for _, e := range es {
			out = append(out, *e.UniqueKey)
		}
		return out
	}
	assert.Equal(t, keys(DeriveEntries(rs, DefaultOptions())), keys(DeriveEntries(rs, DefaultOptions())))
}

func TestDeriveEntriesDepositFallback(t *testing.T) {
	r := sampleReservation()
	r.Payments = nil
	r.DepositAmount = decimal.RequireFromString("200")
	dd := day("2024-06-05")
	r.DepositDate = &dd

	entries := DeriveEntries([]model.Reservation{r}, DefaultOptions())
	require.Len(t, entries, 2)
	assert.Equal(t, MethodTransfer, entries[0].Method)
	assert.Equal(t, "res:42:payment:2024-06-05:200.00", *entries[0].UniqueKey)
	assert.Equal(t, "800.00", entries[1].Amount.StringFixed(2))
}

func TestDeriveEntriesRefundTaggedPositiveIsNotPaid(t *testing.T) {
	r := sampleReservation()
	r.TotalPrice = decimal.RequireFromString("100")
	r.Payments = []model.PaymentRecord{{Amount: decPtr("40"), Kind: "refund", Date: "2024-06-02"}}

	entries := DeriveEntries([]model.Reservation{r}, DefaultOptions())
	require.Len(t, entries, 2)
	assert.Equal(t, model.EntryExpense, entries[0].Type)
	assert.Equal(t, SourceReservationRefund, entries[0].Source)
	assert.Equal(t, "40.00", entries[0].Amount.StringFixed(2))
	assert.Equal(t, SourceReservationBalance, entries[1].Source)
	assert.Equal(t, "100.00", entries[1].Amount.StringFixed(2))
}

func TestDeriveEntriesFullyPaidHasNoBalance(t *testing.T) {
	r := sampleReservation()
	r.Payments = []model.PaymentRecord{{Amount: decPtr("1000"), Date: "2024-06-02"}}
	entries := DeriveEntries([]model.Reservation{r}, DefaultOptions())
	require.Len(t, entries, 1)
	assert.Equal(t, SourceReservationPayment, entries[0].Source)
}

func TestDeriveEntriesCancelledHasNoBalance(t *testing.T) {
	r := sampleReservation()
	r.Status = model.StatusCancelled
	entries := DeriveEntries([]model.Reservation{r}, DefaultOptions())
	for _, e := range entries {
		assert.NotEqual(t, SourceReservationBalance, e.Source)
	}
	assert.Len(t, entries, 2)
}

func TestPaidAmountConvertsForeignPayments(t *testing.T) {
	r := sampleReservation()
	ps := []Payment{
		{Amount: decimal.RequireFromString("100"), Currency: "TRY", FxRate: decimal.NewFromInt(1)},
		{Amount: decimal.RequireFromString("10"), Currency: "EUR", FxRate: decimal.RequireFromString("35")},
		{Amount: decimal.RequireFromString("-40"), Currency: "TRY", FxRate: decimal.NewFromInt(1)},
	}
	assert.Equal(t, "450.00", PaidAmount(r, ps).StringFixed(2))
}
