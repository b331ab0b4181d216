package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ledgerdesk/admin-console/internal/app"
	"github.com/ledgerdesk/admin-console/internal/infrastructure/config"
	"github.com/ledgerdesk/admin-console/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(logger.OptionsFor(cfg.IsDevelopment(), cfg.LogLevel))
	log := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger.Get())
	if err != nil {
		log.Fatal().Err(err).Msg("create app")
	}

	if err := a.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("run app")
	}
}
