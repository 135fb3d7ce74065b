package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/hotel-reservation/internal/config"
	"github.com/iliyamo/hotel-reservation/internal/database"
	"github.com/iliyamo/hotel-reservation/internal/handler"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
	"github.com/iliyamo/hotel-reservation/internal/router"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.WithError(err).Fatal("migration failed")
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable: rate limit, cache and distributed locks disabled")
	} else {
		defer rdb.Close()
	}
	locker := config.NewLocker(rdb)

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	hotels := repository.NewHotelRepo(db)
	roomTypes := repository.NewRoomTypeRepo(db)
	inv := repository.NewInventoryRepo(db)
	reservations := repository.NewReservationRepo(db)
	ledger := repository.NewLedgerRepo(db)

	if cfg.MasterEmail != "" && cfg.MasterPassword != "" {
		created, err := users.EnsureMaster(ctx, cfg.MasterEmail, cfg.MasterPassword, cfg.BcryptCost)
		if err != nil {
			logger.WithError(err).Fatal("bootstrap master admin failed")
		}
		if created {
			logger.WithField("email", cfg.MasterEmail).Info("master admin created")
		}
	}

	// Services
	publisher := queue.NewPublisher(cfg.AMQPURL, logger)
	inventorySvc := service.NewInventoryService(roomTypes, inv, logger)
	availabilitySvc := service.NewAvailabilityService(roomTypes, inv, reservations)
	reservationSvc := service.NewReservationService(roomTypes, inv, reservations, locker, publisher, logger)
	ledgerSvc := service.NewLedgerService(reservations, ledger, logger)

	worker := service.NewSyncWorker(cfg.LedgerSync, hotels, tokens, ledgerSvc, locker, logger)
	scheduler, err := worker.Start(ctx)
	if err != nil {
		logger.WithError(err).Fatal("scheduler start failed")
	}
	consumer := &queue.Consumer{URL: cfg.AMQPURL, Logger: logger, Handle: worker.HandleReservationConfirmed}
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			config.LogError(logger, "main", "consumer.Run", "reservation.confirmed consumer stopped", nil, err)
		}
	}()

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb, logger))

	h := router.Handlers{
		Health:       handler.NewHealthHandler(db, rdb),
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Hotels:       handler.NewHotelHandler(hotels),
		RoomTypes:    handler.NewRoomTypeHandler(roomTypes),
		Inventory:    handler.NewInventoryHandler(inventorySvc),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Reservations: handler.NewReservationHandler(reservationSvc),
		Finance:      handler.NewFinanceHandler(ledgerSvc),
		Dashboard:    handler.NewDashboardHandler(hotels, roomTypes, reservations),
	}
	router.RegisterRoutes(e, h)
	router.RegisterAuth(e, h.Auth)
	router.RegisterAPI(e, h, cfg.JWTSecret, middleware.ResponseCache(config.LoadCacheConfig(), rdb))

	addr := ":" + cfg.Port
	go func() {
		logger.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	cronDone := scheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown")
	}
	select {
	case <-cronDone.Done():
	case <-shutdownCtx.Done():
	}
}
