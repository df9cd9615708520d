package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublishMessage_Unit(t *testing.T) {
	msg := models.AffirmationMessage{UserID: 7, Text: "дыши"}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	tests := []struct {
		name       string
		message    any
		setupMocks func(*MockChannel)
		wantErr    bool
	}{
		{
			name:    "success",
			message: msg,
			setupMocks: func(ch *MockChannel) {
				ch.On("Publish", ExchangeAffirmations, RoutingKeyDaily, false, false, amqp.Publishing{
					ContentType:  "application/json",
					Body:         body,
					DeliveryMode: amqp.Persistent,
				}).Return(nil).Once()
			},
		},
		{
			name:    "channel error",
			message: msg,
			setupMocks: func(ch *MockChannel) {
				ch.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(errors.New("channel closed")).Once()
			},
			wantErr: true,
		},
		{
			name:       "marshal error",
			message:    struct{ Ch chan int }{Ch: make(chan int)},
			setupMocks: func(*MockChannel) {},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := new(MockChannel)
			tt.setupMocks(ch)

			err := PublishMessage(ch, ExchangeAffirmations, RoutingKeyDaily, tt.message)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
			} else {
				require.NoError(t, err)
			}
			ch.AssertExpectations(t)
		})
	}
}

func TestPublishMessage_ToAffirmationQueue(t *testing.T) {
	ctx := context.Background()
	amqpURI := amqpURIForTest(ctx, t)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	ch, err := SetupChannel(conn, GetAffirmationQueues())
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()

	msg := models.AffirmationMessage{UserID: 42, Text: "ты растёшь"}
	require.NoError(t, PublishMessage(ch, ExchangeAffirmations, RoutingKeyDaily, msg))

	deliveries, err := ch.Consume(QueueDaily, "test-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got models.AffirmationMessage
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, msg, got)
		assert.Equal(t, "application/json", d.ContentType)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message via exchange")
	}
}
