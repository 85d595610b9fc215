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

	"github.com/joho/godotenv"

	"card-flip/api"
	"card-flip/config"
	"card-flip/leaderboard"
	"card-flip/loghandler"
	"card-flip/receipt"
	"card-flip/sessions"
	"card-flip/storage"
	"card-flip/ws"
)

func main() {
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, logLevel())))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main",
			"hint", "set SUPABASE_DB_URL or leaderboard.sqlite_path to enable the leaderboard")
	}

	cfg := config.Load()
	slog.Info("configuration", "tag", "main",
		"board", fmt.Sprintf("%dx%d", cfg.BoardRows, cfg.BoardCols),
		"matchDelayMS", cfg.MatchDelayMS, "mismatchDelayMS", cfg.MismatchDelayMS,
		"frameMS", cfg.FrameIntervalMS, "port", cfg.HTTPPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := storage.Open(ctx, cfg.Leaderboard)
	defer store.Close()

	lb := leaderboard.NewFromConfig(store, cfg)
	receipts := receipt.NewSignerFromConfig(cfg)

	// Set up game sessions
	manager := sessions.NewManager(ctx, cfg, lb, receipts)

	// Set up WebSocket hub
	hub := ws.NewHub(cfg, manager)
	go hub.Run(ctx)

	handler := api.NewHandler(cfg, lb, receipts, manager)
	router := api.NewRouter(handler, http.HandlerFunc(hub.ServeWS))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("card flip server listening", "tag", "main", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "tag", "main", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down", "tag", "main", "activeSessions", manager.Active())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "tag", "main", "err", err)
	}
	manager.Shutdown()
}

// logLevel reads LOG_LEVEL (debug, info, warn, error); info by default.
func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
