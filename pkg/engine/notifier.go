package engine

import (
	"context"
	"log/slog"

	"github.com/gangrun/outreach/pkg/eventbus"
	"github.com/gangrun/outreach/pkg/events"
)

// Normalized marketing event names published by the trigger wrappers.
const (
	EventUserRegistered   = "user.registered"
	EventOrderPlaced      = "order.placed"
	EventCartAbandoned    = "cart.abandoned"
	EventCustomerInactive = "customer.inactive"
	EventEmailOpened      = "email.opened"
)

// Notifier is the fire-and-forget trigger surface consumed by checkout,
// signup, and sweeper code. Each wrapper publishes a normalized marketing
// event; failures are logged, never returned.
type Notifier struct {
	eventBus eventbus.EventPublisher
	logger   *slog.Logger
}

func NewNotifier(bus eventbus.EventPublisher, logger *slog.Logger) *Notifier {
	return &Notifier{
		eventBus: bus,
		logger:   logger.With("module", "trigger_notifier"),
	}
}

func (n *Notifier) TriggerUserRegistered(ctx context.Context, customerID string) {
	n.publish(ctx, EventUserRegistered, customerID, nil)
}

func (n *Notifier) TriggerOrderPlaced(ctx context.Context, customerID, orderID string, orderData map[string]any) {
	data := map[string]any{"order_id": orderID}
	for key, value := range orderData {
		data[key] = value
	}

	n.publish(ctx, EventOrderPlaced, customerID, data)
}

func (n *Notifier) TriggerCartAbandoned(ctx context.Context, customerID string, cartData map[string]any) {
	n.publish(ctx, EventCartAbandoned, customerID, cartData)
}

func (n *Notifier) TriggerInactiveCustomer(ctx context.Context, customerID string, daysSinceLastOrder int) {
	n.publish(ctx, EventCustomerInactive, customerID, map[string]any{
		"days_since_last_order": daysSinceLastOrder,
	})
}

func (n *Notifier) TriggerEmailOpened(ctx context.Context, customerID, campaignID string) {
	n.publish(ctx, EventEmailOpened, customerID, map[string]any{
		"campaign_id": campaignID,
	})
}

func (n *Notifier) publish(ctx context.Context, eventName, customerID string, data map[string]any) {
	event := events.MarketingEventReceived{
		BaseEvent:  events.NewBaseEvent(events.MarketingEventReceivedEvent, ""),
		EventName:  eventName,
		CustomerID: customerID,
		Data:       data,
	}

	err := n.eventBus.Publish(ctx, customerID, event)
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to publish marketing event",
			"event", eventName, "customer_id", customerID, "error", err)
	}
}
