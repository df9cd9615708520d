package rabbitmq

const (
	// ExchangeAffirmations direct-обменник ежедневной рассылки.
	ExchangeAffirmations = "affirmations"
	// QueueDaily очередь, из которой читает sender.
	QueueDaily = "affirmations.daily"
	// RoutingKeyDaily ключ маршрутизации ежедневных аффирмаций.
	RoutingKeyDaily = "daily"
	// PrefetchCount сколько неподтверждённых сообщений получает потребитель.
	PrefetchCount = 10
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetAffirmationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueDaily, RoutingKey: RoutingKeyDaily},
	}
}
