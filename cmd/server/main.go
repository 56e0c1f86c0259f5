/*
main.go - Application entry point

PURPOSE:

	Initializes and starts the recurring leave server.
	Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
 1. Load configuration (.env, RL_* environment, flags)
 2. Initialize the root logger
 3. Initialize SQLite store
 4. Create API handler and router
 5. Start server with graceful shutdown

COMMAND-LINE FLAGS:

	-port       HTTP server port (default: 8080, env RL_PORT)
	-db         SQLite database path (default: leaves.db, env RL_DB_PATH)
	            Use ":memory:" for in-memory database
	-log-level  trace|debug|info|warn|error (env RL_LOG_LEVEL)

GRACEFUL SHUTDOWN:

	On SIGINT/SIGTERM:
	1. Stop accepting new connections
	2. Wait for active requests to complete (30s timeout)
	3. Close database connection
	4. Exit

EXAMPLES:

	./server -db="./data/leaves.db"
	RL_LOG_FORMAT=json ./server -port=3000

SEE ALSO:
  - config/config.go: All settings
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/warp/leave-recurrence/api"
	"github.com/warp/leave-recurrence/config"
	"github.com/warp/leave-recurrence/logger"
	"github.com/warp/leave-recurrence/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		logger.Get().Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "leave-recurrence",
	})

	zone, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid RL_TIMEZONE %q: %w", cfg.App.Timezone, err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, api.HandlerOptions{Zone: zone, Log: log})
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimit:      cfg.HTTP.RateLimit,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.App.Port).
			Str("db", cfg.Database.Path).
			Str("timezone", zone.String()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
