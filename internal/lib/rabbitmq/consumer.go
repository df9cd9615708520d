package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
)

// ConsumerMessage запускает потребителя очереди. Сообщение подтверждается после
// успешной обработки; при ошибке оно отбрасывается без возврата в очередь.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("queue", queueName))
	go dispatch(ctx, delivery, PrefetchCount, func(d amqp.Delivery) {
		if err := handler(d.Body); err != nil {
			log.Error("failed to handle message", sl.Err(err))
			if nackErr := d.Nack(false, false); nackErr != nil {
				log.Error("failed to nack message", sl.Err(nackErr))
			}
			return
		}
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	}, log)
	return nil
}

// dispatch обрабатывает не более limit сообщений одновременно и возвращается
// при отмене ctx или закрытии канала. Сообщение, для которого не нашлось слота
// до отмены, возвращается в очередь.
func dispatch(ctx context.Context, deliveries <-chan amqp.Delivery, limit int, handle func(amqp.Delivery), log *slog.Logger) {
	sem := make(chan struct{}, limit)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				if err := d.Nack(false, true); err != nil {
					log.Error("failed to requeue message", sl.Err(err))
				}
				return
			}
			go func() {
				defer func() { <-sem }()
				handle(d)
			}()
		case <-ctx.Done():
			return
		}
	}
}
