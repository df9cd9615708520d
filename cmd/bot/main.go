// Package main Luminary Journal bot
//
// @title           Luminary Journal service API
// @version         1.0
// @description     Служебный сервер бота: состояние, метрики и ручной запуск рассылки.
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/luminary-journal/internal/app/bot"
	"github.com/magabrotheeeer/luminary-journal/internal/config"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env, os.Stdout)

	logger.Info("starting bot", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bot.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize bot app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("bot app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("bot app stopped gracefully")
}
