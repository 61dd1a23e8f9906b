// Package main is the entry point for the busontime server.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/busontime/busontime/internal/api"
	"github.com/busontime/busontime/internal/config"
	"github.com/busontime/busontime/internal/dashboard"
	"github.com/busontime/busontime/internal/transit"
)

func main() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration error: ", err)
	}

	setupLogger(cfg)

	// Validate restricts ArrivalMode to the transit modes.
	mode := transit.Mode(cfg.ArrivalMode)

	if cfg.ArrivalAPIKey == "" {
		slog.Warn("DATA_GO_KR_API_KEY is not set; bus lookups will fail until it is configured")
	}

	favorites, err := dashboard.LoadFavorites(cfg.FavoritesPath)
	if err != nil {
		slog.Warn("favorites not loaded", "path", cfg.FavoritesPath, "error", err.Error())
	}

	busSvc := transit.NewBusService(cfg.ArrivalAPIKey, cfg.ArrivalBaseURL, mode, cfg.HTTPTimeout)
	router := api.NewRouter(cfg, busSvc, favorites)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("busontime server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"arrival_mode", string(mode),
			"favorites", favorites.Len(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
