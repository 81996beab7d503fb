/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the HPP calculator server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration (.env + environment)
  2. Build the zap logger
  3. Open the SQLite store (migrations run on open)
  4. Optionally seed the demo catalog and demo sales
  5. Start the restock scheduler
  6. Configure HTTP router and start server with graceful shutdown

COMMAND-LINE FLAGS:
  -env     Path of an optional .env file (default: .env)
  -port    HTTP server port, overrides PORT
  -db      SQLite database path, overrides DB_PATH
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, waiting for a running check
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/hpp.db"

  # Run with in-memory database and demo data
  SEED_DEMO_DATA=true ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MKhansa067/HHPCalc/api"
	"github.com/MKhansa067/HHPCalc/config"
	"github.com/MKhansa067/HHPCalc/logger"
	"github.com/MKhansa067/HHPCalc/scheduler"
	"github.com/MKhansa067/HHPCalc/store"
	"github.com/MKhansa067/HHPCalc/store/sqlite"
)

func main() {
	// Flags
	envFile := flag.String("env", ".env", "Optional .env file")
	port := flag.String("port", "", "HTTP server port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		// No logger yet; the config decides its level.
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log := logger.Must(logger.New(cfg.Log.Level))
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// Initialize store
	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	// Business time zone for sale days and "today".
	loc := cfg.Restock.Location()

	if cfg.Database.SeedDemoData {
		if err := seedDemo(context.Background(), db, loc, log); err != nil {
			return err
		}
	}

	// Scheduler
	sched := scheduler.New(db, cfg.Restock, logger.Named(log, "scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// Router
	handler := api.NewHandler(db, sched, api.Defaults{
		MarginPercent:     cfg.Costing.DefaultMarginPercent,
		MonthlyProduction: cfg.Costing.MonthlyProduction,
		Horizon:           cfg.Restock.Horizon,
		Location:          loc,
	}, logger.Named(log, "api"))
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("db", cfg.Database.Path),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

// seedDemo fills an empty catalog and, when there is no sales history,
// generates demo sales so the forecast has something to work with.
func seedDemo(ctx context.Context, s store.Store, loc *time.Location, log *zap.Logger) error {
	if err := store.Seed(ctx, s); err != nil {
		return err
	}

	sales, err := s.ListSales(ctx)
	if err != nil {
		return err
	}
	if len(sales) > 0 {
		return nil
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	seed := uint64(now.UnixNano())
	demo := store.GenerateDemoSales(products, now.In(loc), rand.New(rand.NewPCG(seed, seed)))
	if err := s.ReplaceSales(ctx, demo); err != nil {
		return err
	}

	log.Info("demo data seeded",
		zap.Int("products", len(products)),
		zap.Int("sales", len(demo)),
	)
	return nil
}
