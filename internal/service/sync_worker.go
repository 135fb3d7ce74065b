package service

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-reservation/internal/auth"
	"github.com/iliyamo/hotel-reservation/internal/config"
	"github.com/iliyamo/hotel-reservation/internal/finance"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

const ledgerSyncLockKey = "lock:ledger-sync"

// SyncWorker runs the periodic jobs: ledger synchronization for every
// active hotel and the purge of expired refresh tokens.
type SyncWorker struct {
	cfg    config.LedgerSyncConfig
	hotels *repository.HotelRepo
	tokens *repository.TokenRepo
	ledger *LedgerService
	locker *redislock.Client
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewSyncWorker(cfg config.LedgerSyncConfig, hotels *repository.HotelRepo, tokens *repository.TokenRepo, ledger *LedgerService,
	locker *redislock.Client, logger logrus.FieldLogger) *SyncWorker {
	return &SyncWorker{
		cfg:    cfg,
		hotels: hotels,
		tokens: tokens,
		ledger: ledger,
		locker: locker,
		logger: logger.WithField("module", "sync_worker"),
		now:    time.Now,
	}
}

// window returns the stays a run covers: lookback days on both sides of
// today, so deposits of upcoming stays are booked too.
func (w *SyncWorker) window() (time.Time, time.Time) {
	today := finance.Day(w.now())
	return today.AddDate(0, 0, -w.cfg.LookbackDays), today.AddDate(0, 0, w.cfg.LookbackDays+1)
}

// RunOnce syncs every active hotel.  When another instance holds the sync
// lock the run is skipped.
func (w *SyncWorker) RunOnce(ctx context.Context) (SyncResult, error) {
	var total SyncResult
	if w.locker != nil {
		lock, err := w.locker.Obtain(ctx, ledgerSyncLockKey, w.cfg.LockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			w.logger.Info("ledger sync already running elsewhere, skipping")
			return total, nil
		}
		if err != nil {
			w.logger.WithError(err).Warn("ledger sync lock unavailable, running unlocked")
		} else {
			defer func() { _ = lock.Release(context.Background()) }()
		}
	}

	ids, err := w.hotels.IDs(ctx)
	if err != nil {
		return total, err
	}
	from, to := w.window()
	for _, id := range ids {
		res, err := w.ledger.Sync(ctx, auth.Scope{HotelIDs: []uint64{id}}, from, to, finance.DefaultOptions())
		if err != nil {
			config.LogError(w.logger, "service", "SyncWorker.RunOnce", "sync hotel", logrus.Fields{"hotel_id": id}, err)
			continue
		}
		total.add(res)
	}
	w.logger.WithFields(logrus.Fields{
		"hotels":       len(ids),
		"reservations": total.Reservations,
		"created":      total.Created,
		"removed":      total.Removed,
	}).Info("ledger sync finished")
	return total, nil
}

// PurgeTokens deletes refresh tokens that expired more than a day ago.
func (w *SyncWorker) PurgeTokens(ctx context.Context) {
	n, err := w.tokens.PurgeExpired(ctx, w.now().UTC().Add(-24*time.Hour))
	if err != nil {
		config.LogError(w.logger, "service", "SyncWorker.PurgeTokens", "purge", nil, err)
		return
	}
	if n > 0 {
		w.logger.WithField("purged", n).Info("expired refresh tokens purged")
	}
}

// HandleReservationConfirmed is the queue handler for confirmed
// reservations.
func (w *SyncWorker) HandleReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
	res, err := w.ledger.SyncReservation(ctx, ev.HotelID, ev.ReservationID)
	if errors.Is(err, repository.ErrNotFound) {
		// deleted before the event was consumed
		return nil
	}
	if err != nil {
		return err
	}
	w.logger.WithFields(logrus.Fields{
		"reservation_id": ev.ReservationID,
		"hotel_id":       ev.HotelID,
		"created":        res.Created,
	}).Info("ledger synced for confirmed reservation")
	return nil
}

// Start schedules the jobs and starts the cron runner.  The caller stops
// it with Stop on shutdown.
func (w *SyncWorker) Start(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	if w.cfg.Enabled {
		if _, err := c.AddFunc(w.cfg.Schedule, func() {
			runCtx, cancel := context.WithTimeout(ctx, w.cfg.LockTTL)
			defer cancel()
			if _, err := w.RunOnce(runCtx); err != nil {
				config.LogError(w.logger, "service", "SyncWorker.Start", "ledger sync", nil, err)
			}
		}); err != nil {
			return nil, err
		}
	}
	if _, err := c.AddFunc("@hourly", func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		w.PurgeTokens(runCtx)
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
