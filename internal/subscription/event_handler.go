package subscription

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mechmaster/subscription-management/internal/core/events"
)

// EventHandler writes an audit trail for payment outcomes.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{
		logger: logger,
	}
}

func (h *EventHandler) HandleSubscriptionActivated(ctx context.Context, event events.Event) error {
	activated, ok := event.(*events.SubscriptionActivatedEvent)
	if !ok {
		h.logger.Error("invalid event type for subscription activated handler", "event_type", event.EventType())
		return fmt.Errorf("expected SubscriptionActivatedEvent, got %T", event)
	}

	h.logger.Info("audit: subscription activated",
		"user_id", activated.UserID,
		"payment_id", activated.PaymentID,
		"order_id", activated.OrderID,
		"amount", activated.Amount,
		"valid_until", activated.ValidUntil,
		"event_id", activated.EventID())

	return nil
}

func (h *EventHandler) HandleVerificationFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(*events.PaymentVerificationFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for verification failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentVerificationFailedEvent, got %T", event)
	}

	h.logger.Warn("audit: payment verification failed",
		"user_id", failed.UserID,
		"order_id", failed.OrderID,
		"payment_id", failed.PaymentID,
		"reason", failed.Reason,
		"event_id", failed.EventID())

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeSubscriptionActivated, h.HandleSubscriptionActivated)
	eventBus.Subscribe(events.EventTypePaymentVerificationFailed, h.HandleVerificationFailed)

	h.logger.Info("subscription event handlers registered",
		"handlers", []string{
			events.EventTypeSubscriptionActivated,
			events.EventTypePaymentVerificationFailed,
		})
}
