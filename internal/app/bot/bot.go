// Package bot собирает процесс бота: приём сообщений, ежедневную рассылку
// и служебный HTTP-сервер.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	bothandler "github.com/magabrotheeeer/luminary-journal/internal/bot"
	"github.com/magabrotheeeer/luminary-journal/internal/cache"
	"github.com/magabrotheeeer/luminary-journal/internal/config"
	"github.com/magabrotheeeer/luminary-journal/internal/http/handlers/health"
	"github.com/magabrotheeeer/luminary-journal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/luminary-journal/internal/http/router"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/jwt"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	"github.com/magabrotheeeer/luminary-journal/internal/migrations"
	"github.com/magabrotheeeer/luminary-journal/internal/models"
	"github.com/magabrotheeeer/luminary-journal/internal/services/access"
	"github.com/magabrotheeeer/luminary-journal/internal/services/affirmation"
	"github.com/magabrotheeeer/luminary-journal/internal/services/journal"
	schedulerservice "github.com/magabrotheeeer/luminary-journal/internal/services/scheduler"
	senderservice "github.com/magabrotheeeer/luminary-journal/internal/services/sender"
	"github.com/magabrotheeeer/luminary-journal/internal/storage/cached"
	"github.com/magabrotheeeer/luminary-journal/internal/storage/repository"
)

// App представляет процесс бота.
type App struct {
	cfg              *config.Config
	api              *tgbotapi.BotAPI
	handler          *bothandler.Handler
	schedulerService *schedulerservice.SchedulerService
	server           *http.Server
	db               *repository.Storage
	cache            *cache.Cache
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	var err error
	for range 10 {
		if err = repository.CheckDatabaseReady(db); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New создает новый экземпляр приложения бота.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	a.db = db

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	if err = waitForDB(db); err != nil {
		a.closeResources()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}
	a.cache = cacheRedis

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to init bot api: %w", err)
	}
	a.api = api

	policy, err := access.NewPolicy(cfg.Policy)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	users := cached.NewUsers(db, cacheRedis, cfg.UserTTL, logger)
	accessService := access.NewService(users, policy, logger)
	journalService := journal.NewService(users, cacheRedis, accessService, journal.Settings{
		TrialPeriod: cfg.TrialPeriod,
		PendingTTL:  cfg.PendingTTL,
		Plans:       cfg.Plans,
	}, logger)
	a.handler = bothandler.NewHandler(api, journalService, cfg.Payment, cfg.TrialPeriod, logger)

	catalog := affirmation.DefaultCatalog()
	if cfg.CatalogPath != "" {
		if catalog, err = affirmation.LoadCatalog(cfg.CatalogPath); err != nil {
			a.closeResources()
			return nil, err
		}
	}
	tracker := affirmation.NewTracker(db, affirmation.NewGenerator(catalog), cacheRedis, affirmation.Settings{
		Window:   cfg.Window,
		Attempts: cfg.Attempts,
		LockTTL:  cfg.LockTTL,
	}, logger)

	var (
		delivery schedulerservice.Sender
		limiter  *rate.Limiter
	)
	switch cfg.DeliveryMode {
	case config.DeliveryQueue:
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		a.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetAffirmationQueues())
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		a.ch = ch
		delivery = senderservice.NewQueueSender(ch)
	default:
		delivery = senderservice.NewTelegramSender(api)
		limiter = rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst)
	}
	a.schedulerService = schedulerservice.NewSchedulerService(db, tracker, delivery,
		models.Eligibility(cfg.Eligibility), limiter, logger)

	healthHandler := health.New(logger, cfg.TimeoutHTTP, map[string]health.Checker{
		"postgres": db.DB.PingContext,
		"redis": func(ctx context.Context) error {
			return cacheRedis.Db.Ping(ctx).Err()
		},
	})
	var tokens middlewarectx.TokenParser
	if cfg.AdminSecret != "" {
		tokens = jwt.NewJWTMaker(cfg.AdminSecret, cfg.AdminTokenTTL)
	} else {
		logger.Warn("admin secret is not set, /admin is disabled")
	}
	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router.NewRouter(logger, healthHandler, a.schedulerService, tokens),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return a, nil
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.DB.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}

// Run запускает приём сообщений, планировщик и HTTP-сервер и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.closeResources()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go a.schedulerService.FireDaily(ctx, a.cfg.FireHour(), a.cfg.Minute, a.cfg.Location())

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.api.GetUpdatesChan(u)
	a.logger.Info("bot started", slog.String("username", a.api.Self.UserName))
	go a.handler.Run(ctx, updates)

	var runErr error
	select {
	case runErr = <-errCh:
		a.logger.Error("HTTP server failed", sl.Err(runErr))
	case <-ctx.Done():
	}

	a.logger.Info("shutting down bot")
	a.api.StopReceivingUpdates()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.server.Shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to shutdown HTTP server", sl.Err(err))
	}
	return runErr
}
