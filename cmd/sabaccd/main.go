package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/dankraus/sabacc-online-sub000/internal/cache"
	"github.com/dankraus/sabacc-online-sub000/internal/config"
	"github.com/dankraus/sabacc-online-sub000/internal/database"
	"github.com/dankraus/sabacc-online-sub000/internal/game"
	"github.com/dankraus/sabacc-online-sub000/internal/rooms"
	"github.com/dankraus/sabacc-online-sub000/internal/server"
)

func main() {
	cfg := config.Load()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RedisURL != "" {
		if err := cache.Init(ctx, cfg.RedisURL); err != nil {
			logrus.WithError(err).Warn("redis unavailable, event audit queue disabled")
		}
	}
	if cfg.DatabaseURL != "" {
		if err := database.Init(ctx, cfg.DatabaseURL); err != nil {
			logrus.WithError(err).Warn("postgres unavailable, result persistence disabled")
		} else if err := database.EnsureSchema(ctx); err != nil {
			logrus.WithError(err).Warn("schema setup failed")
		}
		defer database.Close()
	}

	rules := game.DefaultRules()
	rules.StartingChips = cfg.StartingChips
	rules.Ante = cfg.Ante
	rules.ContinueCost = cfg.ContinueCost
	rules.RoundEndDelay = cfg.RoundEndDelay

	coord := rooms.NewCoordinator(rules)
	defer coord.Shutdown()

	srv := server.New(coord)
	if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("server exited")
	}
}
