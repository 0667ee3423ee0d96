package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankceo/internal/api"
	"bankceo/internal/config"
	"bankceo/internal/game"
	"bankceo/internal/notify"
	"bankceo/internal/session"
	"bankceo/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	tables, err := config.LoadTables(cfg.TablesPath)
	if err != nil {
		logger.Error("load tables failed", "err", err)
		os.Exit(1)
	}
	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("store open failed", "driver", cfg.Store.Driver, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	notifier, err := notify.New(cfg.DiscordToken, cfg.DiscordChannelID, logger)
	if err != nil {
		logger.Error("notifier init failed", "err", err)
		os.Exit(1)
	}

	src := game.NewTimeSource()
	if cfg.Seed != 0 {
		src = game.NewSource(cfg.Seed)
	}
	server := api.New(cfg, logger, session.Deps{
		Store:    st,
		Resolver: game.NewResolver(tables, src, logger),
		Notifier: notifier,
		Logger:   logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("bankceo api listening", "addr", cfg.Addr, "store", cfg.Store.Driver)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
