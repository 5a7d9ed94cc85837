package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gangrun/outreach/pkg/events"
)

func TestNotifierNormalizesEventNames(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	notifier := NewNotifier(bus, testLogger())

	notifier.TriggerUserRegistered(ctx, "c1")
	notifier.TriggerOrderPlaced(ctx, "c1", "ord-9", map[string]any{"total": 42.5})
	notifier.TriggerCartAbandoned(ctx, "c1", map[string]any{"items": 3})
	notifier.TriggerInactiveCustomer(ctx, "c1", 45)
	notifier.TriggerEmailOpened(ctx, "c1", "camp-1")

	published := bus.published()
	require.Len(t, published, 5)

	names := make([]string, 0, len(published))

	for _, event := range published {
		marketing, ok := event.(events.MarketingEventReceived)
		require.True(t, ok)
		assert.Equal(t, "c1", marketing.CustomerID)
		names = append(names, marketing.EventName)
	}

	assert.Equal(t, []string{
		EventUserRegistered,
		EventOrderPlaced,
		EventCartAbandoned,
		EventCustomerInactive,
		EventEmailOpened,
	}, names)

	order, ok := published[1].(events.MarketingEventReceived)
	require.True(t, ok)
	assert.Equal(t, "ord-9", order.Data["order_id"])
	assert.Equal(t, 42.5, order.Data["total"])

	inactive, ok := published[3].(events.MarketingEventReceived)
	require.True(t, ok)
	assert.Equal(t, 45, inactive.Data["days_since_last_order"])
}
