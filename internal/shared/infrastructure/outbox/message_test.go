package outbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturebridge/venturebridge/internal/shared/domain"
)

type stubEvent struct {
	domain.BaseEvent
	Detail string `json:"detail"`
}

func TestNewMessage(t *testing.T) {
	aggregateID := uuid.New()
	event := &stubEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "subscription", "subscription.activated"),
		Detail:    "standard",
	}

	msg, err := NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, aggregateID, msg.AggregateID)
	assert.Equal(t, "subscription", msg.AggregateType)
	assert.Equal(t, "subscription.activated", msg.RoutingKey)
	assert.Equal(t, "subscription.activated", msg.EventType)
	assert.JSONEq(t, `{"detail":"standard"}`, string(msg.Payload))
	assert.False(t, msg.IsPublished())
}

func TestMessagesFromEvents(t *testing.T) {
	events := []domain.DomainEvent{
		&stubEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "payment", "payment.recorded")},
		&stubEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "subscription", "subscription.activated")},
	}

	msgs, err := MessagesFromEvents(events)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "payment.recorded", msgs[0].RoutingKey)
	assert.Equal(t, "subscription.activated", msgs[1].RoutingKey)
}

func TestMessage_CanRetry(t *testing.T) {
	msg := &Message{RetryCount: 2}
	assert.True(t, msg.CanRetry(3))
	assert.False(t, msg.CanRetry(2))
}
