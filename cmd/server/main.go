/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll consolidation server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Load engine settings (points policy, base rate, function catalog)
  3. Initialize SQLite store and seed the catalog from settings
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS (env fallback in parentheses):
  -port      HTTP server port (PORT, default 8080)
  -db        SQLite database path (DB_PATH, default daywin.db)
             Use ":memory:" for an in-memory database
  -settings  Optional settings JSON path (SETTINGS_PATH)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection

SEE ALSO:
  - api/server.go: Router configuration
  - factory/settings.go: Settings schema
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dirgocs/daywin/api"
	"github.com/dirgocs/daywin/factory"
	"github.com/dirgocs/daywin/store/sqlite"
)

func main() {
	// .env is optional; flags beat environment.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "daywin.db"), "SQLite database path")
	settingsPath := flag.String("settings", envStr("SETTINGS_PATH", ""), "Engine settings JSON path")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	settings := factory.Default()
	if *settingsPath != "" {
		loaded, err := factory.Load(*settingsPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load settings")
		}
		settings = loaded
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Seed the function catalog from settings so previews work on a fresh
	// database.
	ctx := context.Background()
	for _, fn := range settings.Functions {
		if err := store.SaveFunction(ctx, fn); err != nil {
			log.WithError(err).WithField("function", fn.ID).Warn("failed to seed function")
		}
	}

	handler := api.NewHandler(store, settings)
	router := api.NewRouter(handler, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":   *port,
			"db":     *dbPath,
			"policy": settings.PointsPolicy,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
