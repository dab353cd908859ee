package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSubscriptionActivated     = "subscription.activated"
	EventTypePaymentVerificationFailed = "payment.verification_failed"
)

type SubscriptionActivatedEvent struct {
	BaseEvent
	UserID     int64     `json:"user_id"`
	PaymentID  string    `json:"payment_id"`
	OrderID    string    `json:"order_id"`
	Amount     int64     `json:"amount"`
	ValidUntil time.Time `json:"valid_until"`
}

func NewSubscriptionActivatedEvent(userID int64, paymentID, orderID string, amount int64, validUntil time.Time) *SubscriptionActivatedEvent {
	return &SubscriptionActivatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeSubscriptionActivated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":     userID,
				"payment_id":  paymentID,
				"order_id":    orderID,
				"amount":      amount,
				"valid_until": validUntil,
			},
		},
		UserID:     userID,
		PaymentID:  paymentID,
		OrderID:    orderID,
		Amount:     amount,
		ValidUntil: validUntil,
	}
}

type PaymentVerificationFailedEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

func NewPaymentVerificationFailedEvent(userID int64, orderID, paymentID, reason string) *PaymentVerificationFailedEvent {
	return &PaymentVerificationFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentVerificationFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":    userID,
				"order_id":   orderID,
				"payment_id": paymentID,
				"reason":     reason,
			},
		},
		UserID:    userID,
		OrderID:   orderID,
		PaymentID: paymentID,
		Reason:    reason,
	}
}
