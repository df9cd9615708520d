// Package sender собирает процесс, который доставляет аффирмации из очереди в Telegram.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/luminary-journal/internal/config"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	senderservice "github.com/magabrotheeeer/luminary-journal/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.SenderConfig, logger *slog.Logger) (*App, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init bot api: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetAffirmationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst)
	senderService := senderservice.NewSenderService(senderservice.NewTelegramSender(api), limiter, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	handle := func(body []byte) error {
		return a.senderService.HandleAffirmation(ctx, body)
	}
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueDaily, handle, a.logger)
	if err != nil {
		a.logger.Error("failed to start affirmation consumer", sl.Err(err))
		return err
	}
	a.logger.Info("consuming affirmations", slog.String("queue", rabbitmq.QueueDaily))

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}
