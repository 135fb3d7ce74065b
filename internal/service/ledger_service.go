package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/finance"
	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// LedgerService derives ledger entries from reservations and manages the
// cash book.
type LedgerService struct {
	reservations *repository.ReservationRepo
	ledger       *repository.LedgerRepo
	logger       logrus.FieldLogger
}

func NewLedgerService(reservations *repository.ReservationRepo, ledger *repository.LedgerRepo, logger logrus.FieldLogger) *LedgerService {
	return &LedgerService{reservations: reservations, ledger: ledger, logger: logger}
}

// SyncResult counts what one sync did.
type SyncResult struct {
	Reservations int `json:"reservations"`
	Created      int `json:"created"`
	Existing     int `json:"existing"`
	Removed      int `json:"removed"`
}

func (r *SyncResult) add(o SyncResult) {
	r.Reservations += o.Reservations
	r.Created += o.Created
	r.Existing += o.Existing
	r.Removed += o.Removed
}

func checkWindow(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return invalid("from", "from and to are required")
	}
	return inventory.CheckRange(from, to)
}

// Preview derives the entries of reservations whose stay overlaps
// [from, to) without storing anything.
func (s *LedgerService) Preview(ctx context.Context, ac auth.Context, requested []uint64, from, to time.Time, opts finance.Options) ([]model.LedgerEntry, error) {
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}
	scope, err := ac.ReadScope(requested)
	if err != nil {
		return nil, err
	}
	rs, err := s.reservations.ListOverlapping(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}
	entries := finance.DeriveEntries(rs, opts)
	for i := range entries {
		if err := finance.Canonicalize(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// SyncForCaller runs Sync over the caller's scope.
func (s *LedgerService) SyncForCaller(ctx context.Context, ac auth.Context, requested []uint64, from, to time.Time, opts finance.Options) (SyncResult, error) {
	if err := checkWindow(from, to); err != nil {
		return SyncResult{}, err
	}
	scope, err := ac.ReadScope(requested)
	if err != nil {
		return SyncResult{}, err
	}
	return s.Sync(ctx, scope, from, to, opts)
}

// Sync derives and stores the entries of every reservation in scope whose
// stay overlaps [from, to).  Entries already stored under the same unique
// key are left alone.  With planned balances enabled, balance entries that
// no longer match the reservation are removed.
func (s *LedgerService) Sync(ctx context.Context, scope auth.Scope, from, to time.Time, opts finance.Options) (SyncResult, error) {
	rs, err := s.reservations.ListOverlapping(ctx, scope, from, to)
	if err != nil {
		return SyncResult{}, err
	}
	var total SyncResult
	for _, r := range rs {
		res, err := s.syncOne(ctx, r, opts)
		if err != nil {
			return total, err
		}
		total.add(res)
	}
	return total, nil
}

// SyncReservation re-derives the ledger of one reservation.
func (s *LedgerService) SyncReservation(ctx context.Context, hotelID, reservationID uint64) (SyncResult, error) {
	r, err := s.reservations.GetByID(ctx, auth.Scope{HotelIDs: []uint64{hotelID}}, reservationID)
	if err != nil {
		return SyncResult{}, err
	}
	return s.syncOne(ctx, r, finance.DefaultOptions())
}

func (s *LedgerService) syncOne(ctx context.Context, r model.Reservation, opts finance.Options) (SyncResult, error) {
	res := SyncResult{Reservations: 1}
	entries := finance.DeriveEntries([]model.Reservation{r}, opts)

	tx, err := s.ledger.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return res, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var keep []string
	for i := range entries {
		e := entries[i]
		if e.Source == finance.SourceReservationBalance && e.UniqueKey != nil {
			keep = append(keep, *e.UniqueKey)
		}
		created, err := s.ledger.InsertIdempotentTx(ctx, tx, &e)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		} else {
			res.Existing++
		}
	}
	if opts.IncludePlannedBalance {
		n, err := s.ledger.DeleteStaleBalanceTx(ctx, tx, r.ID, keep)
		if err != nil {
			return res, err
		}
		res.Removed = int(n)
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	committed = true
	return res, nil
}

// EntryPatch carries the fields an entry update overwrites.
type EntryPatch struct {
	Type     *string
	Method   *string
	Category *string
	Date     *time.Time
	Amount   *decimal.Decimal
	Currency *string
	FxRate   *decimal.Decimal
	Note     *string
	Ref      *string
	Source   *string
}

func (p EntryPatch) apply(e *model.LedgerEntry) {
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Method != nil {
		e.Method = *p.Method
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Currency != nil {
		e.Currency = *p.Currency
		// a new currency invalidates the stored rate unless one is given
		if p.FxRate == nil {
			e.FxRate = decimal.Zero
		}
	}
	if p.FxRate != nil {
		e.FxRate = *p.FxRate
	}
	if p.Note != nil {
		e.Note = *p.Note
	}
	if p.Ref != nil {
		e.Ref = *p.Ref
	}
	if p.Source != nil {
		e.Source = *p.Source
	}
}

// CreateEntry stores a manual entry in the caller's write hotel.
func (s *LedgerService) CreateEntry(ctx context.Context, ac auth.Context, e model.LedgerEntry) (model.LedgerEntry, error) {
	hotelID, err := ac.WriteHotel(e.HotelID)
	if err != nil {
		return model.LedgerEntry{}, err
	}
	e.ID = 0
	e.HotelID = hotelID
	e.ReservationID = nil
	if err := s.ledger.Create(ctx, &e); err != nil {
		return model.LedgerEntry{}, err
	}
	return e, nil
}

// UpdateEntry applies p to an entry inside the caller's scope.
func (s *LedgerService) UpdateEntry(ctx context.Context, ac auth.Context, id uint64, p EntryPatch) (model.LedgerEntry, error) {
	scope, err := ac.ReadScope(nil)
	if err != nil {
		return model.LedgerEntry{}, err
	}
	tx, err := s.ledger.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.LedgerEntry{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	e, err := s.ledger.GetForUpdateTx(ctx, tx, scope, id)
	if err != nil {
		return model.LedgerEntry{}, err
	}
	p.apply(&e)
	if err := s.ledger.UpdateTx(ctx, tx, &e); err != nil {
		return model.LedgerEntry{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.LedgerEntry{}, err
	}
	committed = true
	return e, nil
}

// DeleteEntry removes an entry inside the caller's scope.
func (s *LedgerService) DeleteEntry(ctx context.Context, ac auth.Context, id uint64) error {
	scope, err := ac.ReadScope(nil)
	if err != nil {
		return err
	}
	return s.ledger.Delete(ctx, scope, id)
}

// EntryPage is one page of entries with the totals of the whole filter.
type EntryPage struct {
	Entries []model.LedgerEntry `json:"entries"`
	Total   int                 `json:"total"`
	Sums    map[string]string   `json:"sums"`
}

// ListEntries pages through the caller's entries.
func (s *LedgerService) ListEntries(ctx context.Context, ac auth.Context, requested []uint64, f repository.LedgerFilter) (EntryPage, error) {
	scope, err := ac.ReadScope(requested)
	if err != nil {
		return EntryPage{}, err
	}
	f.Scope = scope
	if f.Method != "" {
		f.Method = finance.NormMethod(f.Method)
	}
	if f.Source != "" {
		f.Source = finance.NormSource(f.Source)
	}
	entries, total, err := s.ledger.List(ctx, f)
	if err != nil {
		return EntryPage{}, err
	}
	sums, err := s.ledger.Totals(ctx, f)
	if err != nil {
		return EntryPage{}, err
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	return EntryPage{Entries: entries, Total: total, Sums: sums}, nil
}
