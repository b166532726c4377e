/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the credits engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load TOML configuration (flags override the listen port)
  3. Initialize SQLite store
  4. Create API handler with configured engine components
  5. Start the fraud scan scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: from config, 8080)
  -db      SQLite database path (default: credits.db)
           Use ":memory:" for in-memory database
  -config  TOML config path (default: none, built-in defaults)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the fraud scan scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/credits.db"

  # Run with tuned thresholds
  ./server -config="./credits.toml"

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: TOML schema and defaults
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/welfarehub/credits-engine/api"
	"github.com/welfarehub/credits-engine/config"
	"github.com/welfarehub/credits-engine/core"
	"github.com/welfarehub/credits-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "credits.db", "SQLite database path")
	configPath := flag.String("config", "", "TOML config path (empty = defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler with configured engine components
	clock := core.SystemClock{}
	handler := api.NewHandler(store, store, store)
	handler.Calculator = cfg.Fiscal.BuildLimitCalculator(clock)
	handler.Validator = cfg.Fiscal.BuildValidator()
	handler.Scorer = cfg.Fraud.BuildScorer()
	handler.Aggregator = cfg.Fraud.BuildAggregator(clock)
	handler.MetricsEnabled = cfg.Metrics.Enabled

	// Start the fraud scan scheduler
	scheduler := api.NewFraudScanScheduler(handler)
	scheduler.ScanInterval = cfg.Fraud.ScanIntervalDuration()
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://%s", server.Addr)
		log.Printf("API available at http://%s/api", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
