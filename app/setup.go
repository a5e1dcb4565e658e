package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/api"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/config"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/router"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils"
	"golang.org/x/sync/errgroup"
)

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	logger := utils.NewLogger(getEnv.GO_ENV)
	slog.SetDefault(logger)

	// Initialize GORM database connection
	store, err := database.StartGORM(getEnv, logger)
	if err != nil {
		logger.Error("failed to connect to postgres, check that it is running", "host", getEnv.DB_HOST, "port", getEnv.DB_PORT)
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	deps, err := buildContainer(getEnv, store, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), logger, !getEnv.IsProduction())
	router.SetupRoutes(server.GetEngine(), deps.middleware, deps.handlers)

	if deps.cron != nil {
		if err := deps.cron.Start(); err != nil {
			// the API still serves without background jobs
			logger.Warn("failed to start cron jobs", "error", err)
		} else {
			defer deps.cron.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), getEnv.SHUTDOWN_TIMEOUT)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
