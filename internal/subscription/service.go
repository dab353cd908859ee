package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/mechmaster/subscription-management/internal"
	subscriptionDatamodel "github.com/mechmaster/subscription-management/internal/core/datamodel/subscription"
	"github.com/mechmaster/subscription-management/internal/core/events"
	"github.com/mechmaster/subscription-management/internal/paymentgateway"
	"github.com/mechmaster/subscription-management/internal/pricing"
)

// ErrDuplicatePayment is returned by repositories when a payment id has
// already activated a subscription.
var ErrDuplicatePayment = errors.New("payment already applied")

type Service struct {
	gateway   GatewayAPI
	repo      RepositoryAPI
	keySecret string
	eventBus  *events.EventBus
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(gateway GatewayAPI, repo RepositoryAPI, keySecret string, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		gateway:   gateway,
		repo:      repo,
		keySecret: keySecret,
		eventBus:  eventBus,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder validates the client-declared amount against the pricing
// policy and registers an order with the gateway. The amount sent to the
// gateway is always the policy amount, never the client's, even after the
// equality check passed.
func (s *Service) CreateOrder(ctx context.Context, clientAmount int64, currency string) (*paymentgateway.Order, error) {
	if clientAmount != pricing.AmountMinor() {
		s.logger.Warn("order rejected: client amount does not match policy",
			"client_amount", clientAmount)
		return nil, apperrors.ErrInvalidAmount
	}

	if currency == "" {
		currency = pricing.Currency()
	}
	if currency != pricing.Currency() {
		s.logger.Warn("order rejected: unsupported currency", "currency", currency)
		return nil, apperrors.ErrInvalidAmount
	}

	receipt := fmt.Sprintf("mechmaster_%d", s.now().UnixMilli())
	notes := map[string]string{
		"subscription": "MechMaster Annual Subscription",
		"plan":         "annual",
	}

	order, err := s.gateway.CreateOrder(ctx, pricing.AmountMinor(), currency, receipt, notes)
	if err != nil {
		s.logger.Error("gateway order creation failed", "error", err, "receipt", receipt)
		return nil, apperrors.NewExternalError("failed to create payment order", apperrors.ErrCodeGatewayError).WithCause(err)
	}

	// Guards against gateway-side configuration drift.
	if order.Amount != pricing.AmountMinor() {
		s.logger.Error("gateway echoed a different amount than requested",
			"order_id", order.ID,
			"order_amount", order.Amount)
		return nil, apperrors.ErrOrderAmountMismatch
	}

	s.logger.Info("payment order created",
		"order_id", order.ID,
		"amount", order.Amount,
		"currency", order.Currency)

	return order, nil
}

// VerifyPayment runs the ordered verification checks, cheapest first, and
// activates the subscription only when every one passes. userID comes from
// the caller's session context, never from the callback payload.
func (s *Service) VerifyPayment(ctx context.Context, userID int64, callback PaymentCallback, expectedAmount int64) (*VerificationResult, error) {
	if expectedAmount != pricing.AmountMinor() {
		s.logger.Warn("verification rejected: expected amount does not match policy",
			"user_id", userID,
			"expected_amount", expectedAmount)
		return nil, s.fail(ctx, userID, callback, apperrors.ErrInvalidAmount)
	}

	if !VerifySignature(s.keySecret, callback.OrderID, callback.PaymentID, callback.Signature) {
		s.logger.Warn("verification rejected: signature mismatch",
			"user_id", userID,
			"order_id", callback.OrderID,
			"payment_id", callback.PaymentID)
		return nil, s.fail(ctx, userID, callback, apperrors.ErrSignatureMismatch)
	}

	payment, err := s.gateway.FetchPayment(ctx, callback.PaymentID)
	if err != nil {
		s.logger.Error("verification failed: gateway lookup error",
			"error", err,
			"user_id", userID,
			"payment_id", callback.PaymentID)
		return nil, s.fail(ctx, userID, callback,
			apperrors.NewExternalError("failed to verify payment with gateway", apperrors.ErrCodeGatewayLookupFailed).WithCause(err))
	}

	// The definitive amount check: the gateway's own record of what was
	// captured, not anything the client asserted.
	if payment.Amount != pricing.AmountMinor() {
		s.logger.Warn("verification rejected: captured amount does not match policy",
			"user_id", userID,
			"payment_id", callback.PaymentID,
			"captured_amount", payment.Amount)
		return nil, s.fail(ctx, userID, callback, apperrors.ErrAmountMismatch)
	}

	if payment.Status != paymentgateway.PaymentStatusCaptured {
		s.logger.Warn("verification rejected: payment not captured",
			"user_id", userID,
			"payment_id", callback.PaymentID,
			"status", payment.Status)
		return nil, s.fail(ctx, userID, callback, apperrors.ErrPaymentNotCaptured)
	}

	start := s.now()
	end := start.AddDate(1, 0, 0)

	record := &subscriptionDatamodel.SubscriptionPayment{
		UserID:      userID,
		OrderID:     callback.OrderID,
		PaymentID:   callback.PaymentID,
		AmountPaise: payment.Amount,
		Status:      payment.Status,
	}

	if err := s.repo.ActivateSubscription(userID, record, start, end); err != nil {
		if errors.Is(err, ErrDuplicatePayment) {
			s.logger.Warn("verification replayed for already-applied payment",
				"user_id", userID,
				"payment_id", callback.PaymentID)
			return nil, apperrors.ErrPaymentReplayed
		}
		s.logger.Error("failed to activate subscription",
			"error", err,
			"user_id", userID,
			"payment_id", callback.PaymentID)
		return nil, apperrors.NewInternalError("failed to activate subscription", err)
	}

	s.logger.Info("payment verified and subscription activated",
		"user_id", userID,
		"order_id", callback.OrderID,
		"payment_id", callback.PaymentID,
		"valid_until", end)

	event := events.NewSubscriptionActivatedEvent(userID, callback.PaymentID, callback.OrderID, payment.Amount, end)
	s.eventBus.Publish(ctx, event)

	return &VerificationResult{
		PaymentID:  callback.PaymentID,
		AmountPaid: payment.Amount / 100,
		ValidUntil: end,
	}, nil
}

func (s *Service) GetSubscription(ctx context.Context, userID int64) (*UserSubscription, error) {
	sub, err := s.repo.GetSubscription(userID)
	if err != nil {
		s.logger.Error("failed to load subscription", "error", err, "user_id", userID)
		return nil, err
	}
	return sub, nil
}

// DeactivateExpired flips lapsed subscriptions to inactive; run periodically
// by the worker.
func (s *Service) DeactivateExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeactivateExpired(s.now())
	if err != nil {
		s.logger.Error("failed to deactivate expired subscriptions", "error", err)
		return 0, err
	}
	if count > 0 {
		s.logger.Info("deactivated expired subscriptions", "count", count)
	}
	return count, nil
}

func (s *Service) fail(ctx context.Context, userID int64, callback PaymentCallback, cause *apperrors.AppError) error {
	event := events.NewPaymentVerificationFailedEvent(userID, callback.OrderID, callback.PaymentID, string(cause.Code))
	s.eventBus.Publish(ctx, event)
	return cause
}
