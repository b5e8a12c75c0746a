package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TWRT/tasks-api/internal/api"
	"github.com/TWRT/tasks-api/internal/config"
	"github.com/TWRT/tasks-api/internal/logging"
	"github.com/TWRT/tasks-api/internal/repository"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	idleTimeout       = 2 * time.Minute
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "tasks-api:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(flag.NewFlagSet("tasks-api", flag.ContinueOnError), args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if cfg.Source != "" {
		logger.Info("config loaded", "file", cfg.Source)
	}

	db, err := repository.InitDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()
	logger.Info("database ready", "driver", cfg.Database.Driver)

	pool, err := repository.NewPool(db, cfg.Database.Driver)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.SetupRouter(pool, logger, cfg.Server.MaxBodyBytes),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
