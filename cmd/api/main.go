package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/play4stakes/play4stakes/internal/api"
	"github.com/play4stakes/play4stakes/internal/infra/logging"
	"github.com/play4stakes/play4stakes/internal/services/arena"
	"github.com/play4stakes/play4stakes/internal/store"
	"github.com/play4stakes/play4stakes/internal/store/postgres"
	"github.com/play4stakes/play4stakes/internal/store/sqlite"
	"github.com/play4stakes/play4stakes/pkg/envconf"
	"github.com/play4stakes/play4stakes/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Close store")

		return st.Close()
	})

	arenaSrv := arena.New(st)

	// --- Expiry sweeper ---
	sweepCtx, stopSweep := context.WithCancel(ctx)
	shutdownqueue.Add(func(context.Context) error {
		stopSweep()

		return nil
	})

	go runSweeper(sweepCtx, arenaSrv, cfg.SweepInterval)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, arenaSrv)

	// Register HTTP server graceful shutdown
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port, "store", cfg.StoreDriver)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

func openStore(ctx context.Context, cfg *apiConfig) (store.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("PG_DSN required for postgres store")
		}

		return postgres.Open(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// runSweeper periodically expires stale challenges and refunds their escrows.
func runSweeper(ctx context.Context, svc *arena.Service, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			_, err := svc.SweepExpired(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("expiry sweep failed", "error", err)
			}
		}
	}
}
