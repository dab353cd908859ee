package subscription

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	subscriptionDatamodel "github.com/mechmaster/subscription-management/internal/core/datamodel/subscription"
	"github.com/mechmaster/subscription-management/internal/paymentgateway"
)

type ServiceAPI interface {
	CreateOrder(ctx context.Context, clientAmount int64, currency string) (*paymentgateway.Order, error)
	VerifyPayment(ctx context.Context, userID int64, callback PaymentCallback, expectedAmount int64) (*VerificationResult, error)
	GetSubscription(ctx context.Context, userID int64) (*UserSubscription, error)
}

type GatewayAPI interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*paymentgateway.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*paymentgateway.Payment, error)
}

type RepositoryAPI interface {
	// ActivateSubscription persists the payment record and the user's new
	// entitlement atomically. It must fail with ErrDuplicatePayment when the
	// payment id has already been applied.
	ActivateSubscription(userID int64, payment *subscriptionDatamodel.SubscriptionPayment, start, end time.Time) error
	GetSubscription(userID int64) (*UserSubscription, error)
	DeactivateExpired(asOf time.Time) (int64, error)
}

// PaymentCallback is the payload the checkout widget hands back after the
// gateway completes a transaction. It is consumed once and never stored.
type PaymentCallback struct {
	OrderID   string
	PaymentID string
	Signature string
}

type VerificationResult struct {
	PaymentID  string
	AmountPaid int64 // major units
	ValidUntil time.Time
}

type UserSubscription struct {
	Status           string     `json:"status"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	PaymentReference *string    `json:"payment_reference,omitempty"`
	IsPaid           bool       `json:"is_paid"`
}

func (s *UserSubscription) IsCurrentlyActive(now time.Time) bool {
	if s.Status != "active" || s.EndDate == nil {
		return false
	}
	return s.EndDate.After(now)
}

// ComputeSignature recomputes the gateway's callback signature:
// HMAC-SHA256 over "orderID|paymentID" keyed with the gateway secret.
func ComputeSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time so the check leaks nothing
// about how much of a forged signature matched.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := ComputeSignature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
