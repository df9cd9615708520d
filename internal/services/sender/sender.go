// Package sender доставляет аффирмации пользователям: напрямую через Telegram
// или через очередь RabbitMQ для отдельного процесса-отправителя.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/luminary-journal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

// BotAPI часть *tgbotapi.BotAPI, нужная для отправки сообщений.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender отправляет текст в личный чат пользователя.
type TelegramSender struct {
	api BotAPI
}

// NewTelegramSender создает новый экземпляр TelegramSender.
func NewTelegramSender(api BotAPI) *TelegramSender {
	return &TelegramSender{api: api}
}

func (s *TelegramSender) Send(ctx context.Context, userID int64, text string) error {
	const op = "sender.TelegramSender.Send"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if _, err := s.api.Send(tgbotapi.NewMessage(userID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// QueueSender публикует аффирмацию в очередь рассылки.
type QueueSender struct {
	ch rabbitmq.Publisher
}

// NewQueueSender создает новый экземпляр QueueSender.
func NewQueueSender(ch rabbitmq.Publisher) *QueueSender {
	return &QueueSender{ch: ch}
}

func (s *QueueSender) Send(ctx context.Context, userID int64, text string) error {
	const op = "sender.QueueSender.Send"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	msg := models.AffirmationMessage{UserID: userID, Text: text}
	if err := rabbitmq.PublishMessage(s.ch, rabbitmq.ExchangeAffirmations, rabbitmq.RoutingKeyDaily, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Sender доставляет текст пользователю.
type Sender interface {
	Send(ctx context.Context, userID int64, text string) error
}

// SenderService обрабатывает сообщения из очереди рассылки.
type SenderService struct {
	sender  Sender
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(sender Sender, limiter *rate.Limiter, log *slog.Logger) *SenderService {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &SenderService{
		sender:  sender,
		limiter: limiter,
		log:     log,
	}
}

// HandleAffirmation разбирает сообщение очереди и отправляет аффирмацию.
func (s *SenderService) HandleAffirmation(ctx context.Context, body []byte) error {
	const op = "sender.HandleAffirmation"
	var message models.AffirmationMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if message.UserID == 0 || message.Text == "" {
		return fmt.Errorf("%s: incomplete message", op)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sender.Send(ctx, message.UserID, message.Text); err != nil {
		s.log.Error("failed to deliver affirmation", sl.UserID(message.UserID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("affirmation delivered", sl.UserID(message.UserID))
	return nil
}
