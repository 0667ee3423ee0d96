package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"bankceo/internal/config"
	"bankceo/internal/game"
	"bankceo/internal/notify"
	"bankceo/internal/session"
	"bankceo/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
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
	deps := session.Deps{
		Store:    st,
		Resolver: game.NewResolver(tables, src, logger),
		Notifier: notifier,
		Logger:   logger,
	}

	if cfg.RunOnce {
		report, err := session.AdvanceRealtime(ctx, deps)
		if err != nil {
			logger.Error("realtime pass failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "scanned", report.Scanned, "advanced", report.Advanced, "failed", report.Failed)
		return
	}

	// Realtime games advance one week per tick; a tick still running when
	// the next fires is skipped.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(cfg.Schedule, func() {
		report, err := session.AdvanceRealtime(ctx, deps)
		if err != nil {
			logger.Error("realtime pass failed", "err", err)
			return
		}
		logger.Info("realtime pass complete", "scanned", report.Scanned, "advanced", report.Advanced, "failed", report.Failed)
	})
	if err != nil {
		logger.Error("invalid worker schedule", "schedule", cfg.Schedule, "err", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("worker started", "schedule", cfg.Schedule, "store", cfg.Store.Driver)
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("worker shutdown")
}
