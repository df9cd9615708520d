package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAffirmationQueues(t *testing.T) {
	queues := GetAffirmationQueues()

	require.Len(t, queues, 1)
	assert.Equal(t, QueueDaily, queues[0].QueueName)
	assert.Equal(t, RoutingKeyDaily, queues[0].RoutingKey)
}
