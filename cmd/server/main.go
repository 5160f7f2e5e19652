package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"gastro/internal/platform/config"
	"gastro/internal/platform/httpserver"
	"gastro/internal/platform/logger"
	"gastro/internal/platform/metrics"
	"gastro/internal/platform/postgres"

	"gastro/internal/auth"
	"gastro/internal/menu"
	"gastro/internal/order"
	"gastro/internal/report"
	"gastro/internal/reservation"
	"gastro/internal/settings"
	"gastro/internal/staff"
	"gastro/internal/stock"
	"gastro/internal/table"
	"gastro/internal/token"
	transport "gastro/internal/transport/http"
	"gastro/internal/zone"

	authhandler "gastro/internal/auth/handler"
	menuhandler "gastro/internal/menu/handler"
	orderhandler "gastro/internal/order/handler"
	reporthandler "gastro/internal/report/handler"
	reservationhandler "gastro/internal/reservation/handler"
	settingshandler "gastro/internal/settings/handler"
	staffhandler "gastro/internal/staff/handler"
	stockhandler "gastro/internal/stock/handler"
	tablehandler "gastro/internal/table/handler"
	zonehandler "gastro/internal/zone/handler"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Error("running migrations", "error", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	tokenService, err := token.NewService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTExpires)
	if err != nil {
		log.Error("configuring token service", "error", err)
		os.Exit(1)
	}

	archive := report.NewArchive(cfg.ReportsDir, log)
	if !archive.LockingActive() {
		log.Warn("file locking unavailable on this platform, report appends are not serialized")
	}

	staffStore := staff.NewStore(db)
	orderStore := order.NewStore(db)

	handlers := transport.Handlers{
		Auth:        authhandler.New(log, auth.NewService(staffStore, tokenService), m),
		Staff:       staffhandler.New(log, staffStore),
		Zone:        zonehandler.New(log, zone.NewStore(db)),
		Table:       tablehandler.New(log, table.NewStore(db)),
		Menu:        menuhandler.New(log, menu.NewStore(db)),
		Order:       orderhandler.New(log, orderStore, archive, m),
		Reservation: reservationhandler.New(log, reservation.NewStore(db)),
		Stock:       stockhandler.New(log, stock.NewStore(db)),
		Settings: settingshandler.New(log, settings.NewStore(db), settingshandler.AdminCredentials{
			AdminLogin:    cfg.AdminLogin,
			AdminPassword: cfg.AdminPassword,
		}),
		Report: reporthandler.New(archive, cfg.MaxUploadBytes, log, m),
	}

	router := transport.NewRouter(log, m, token.NewMiddlewareAdapter(tokenService), handlers)
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}
	log.Info("server stopped")
}
